package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	// envConfigPath names the YAML config file when --config is not given.
	envConfigPath = "BROKERSTAT_CONFIG"

	defaultEnvFile          = ".env"
	defaultCompressionLevel = 1
	defaultExecuteTime      = 30
)

// options holds the parsed command line.
type options struct {
	compressionLevel uint
	clientName       string
	executeTime      uint

	configPath string
	envFile    string

	help    bool
	version bool

	// Set when the flag was given explicitly, so config file values are
	// only replaced on request.
	compressionSet bool
	executeSet     bool
}

// usageError is a command-line error. It exits with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return exitUsage }

// parseFlags parses args. On --help it prints usage to out and returns
// options with help set.
func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("brokerstat", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.UintVarP(&opts.compressionLevel, "compression-level", "c", defaultCompressionLevel, "transport compression level (0-9)")
	flagSet.StringVarP(&opts.clientName, "client-name", "n", "", "client name presented to the broker (default from config)")
	flagSet.UintVarP(&opts.executeTime, "execute-time", "e", defaultExecuteTime, "number of reporting intervals to run")
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file (env "+envConfigPath+")")
	flagSet.StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(out, "Usage:\n  brokerstat [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, nil
		}
		return opts, &usageError{err: err}
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return opts, &usageError{err: fmt.Errorf("unexpected argument: %s", extra[0])}
	}

	opts.compressionSet = flagSet.Changed("compression-level")
	opts.executeSet = flagSet.Changed("execute-time")
	return opts, nil
}

// apply copies the explicitly given flags onto cfg.
func (o options) apply(cfg *config.Config) {
	if o.compressionSet {
		cfg.Session.CompressionLevel = int(o.compressionLevel) // #nosec G115 -- range checked by Validate
	}
	if o.clientName != "" {
		cfg.Session.ClientName = o.clientName
	}
	if o.executeSet {
		cfg.Report.Count = int(o.executeTime) // #nosec G115 -- interval counts are small
	}
}

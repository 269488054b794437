package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// libraryLogger adapts slog to the paho logger interface.
type libraryLogger struct {
	logger *slog.Logger
	level  slog.Level
}

func (l libraryLogger) Println(v ...interface{}) {
	l.logger.Log(context.Background(), l.level, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l libraryLogger) Printf(format string, v ...interface{}) {
	l.logger.Log(context.Background(), l.level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// RouteLibraryLogs sends the client library's internal CRITICAL, ERROR and
// WARN output to logger. DEBUG output stays disabled; it logs every packet.
//
// The library loggers are process-wide, so call this once during startup.
func RouteLibraryLogs(logger *slog.Logger) {
	logger = logger.With("component", "paho")
	pahomqtt.CRITICAL = libraryLogger{logger: logger, level: slog.LevelError}
	pahomqtt.ERROR = libraryLogger{logger: logger, level: slog.LevelError}
	pahomqtt.WARN = libraryLogger{logger: logger, level: slog.LevelWarn}
}

package mqtt

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultPort and defaultTLSPort are used when the host omits a port.
	defaultPort    = "1883"
	defaultTLSPort = "8883"

	// connectWaitGrace is added on top of the configured connect timeout so the
	// library's own dial timeout fires first.
	connectWaitGrace = time.Second

	// defaultSubscribeTimeout bounds the wait for a subscription acknowledgement.
	defaultSubscribeTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending work on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// subackFailure is the SUBACK return code for a rejected subscription.
	subackFailure = 0x80

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// secureSchemes are broker URL schemes that imply TLS.
var secureSchemes = map[string]bool{
	"ssl":   true,
	"tls":   true,
	"mqtts": true,
	"wss":   true,
}

// knownSchemes are the broker URL schemes the client library can dial.
var knownSchemes = map[string]bool{
	"tcp":   true,
	"mqtt":  true,
	"ws":    true,
	"ssl":   true,
	"tls":   true,
	"mqtts": true,
	"wss":   true,
}

// buildClientOptions creates paho options from the session properties.
//
// This configures:
//   - Broker URL derived from the host setting
//   - Client name, credentials and VPN-qualified username
//   - Single-shot library connect (retries are driven by Session.Connect)
//   - Auto-reconnect once a session has been established
//   - TLS when requested or implied by the URL scheme
func buildClientOptions(cfg config.SessionConfig) (*pahomqtt.ClientOptions, error) {
	brokerURL, err := brokerURL(cfg.Host, cfg.TLS)
	if err != nil {
		return nil, err
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.ClientName)

	if user := qualifiedUsername(cfg.VPN, cfg.Username); user != "" {
		opts.SetUsername(user)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	// Initial connect attempts are counted by Session.Connect; the library
	// only takes over reconnection after the first successful connect.
	opts.SetConnectRetry(false)
	opts.SetAutoReconnect(true)
	opts.SetResumeSubs(false)
	if cfg.ReconnectMaxInterval > 0 {
		opts.SetMaxReconnectInterval(cfg.ReconnectMaxInterval)
	}

	opts.SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}

	if cfg.TLS || secureSchemes[schemeOf(brokerURL)] {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts, nil
}

// brokerURL turns the configured host into a broker URL.
//
// Accepted forms:
//   - "host" (default port added)
//   - "host:port"
//   - "scheme://host:port" with a scheme the client library supports
func brokerURL(host string, useTLS bool) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHost)
	}

	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidHost, err)
		}
		if u.Host == "" {
			return "", fmt.Errorf("%w: %q has no host", ErrInvalidHost, host)
		}
		if !knownSchemes[u.Scheme] {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidHost, u.Scheme)
		}
		return host, nil
	}

	scheme, port := "tcp", defaultPort
	if useTLS {
		scheme, port = "ssl", defaultTLSPort
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	return scheme + "://" + host, nil
}

// schemeOf returns the scheme of a URL built by brokerURL.
func schemeOf(brokerURL string) string {
	scheme, _, found := strings.Cut(brokerURL, "://")
	if !found {
		return ""
	}
	return strings.ToLower(scheme)
}

// qualifiedUsername prefixes the username with the VPN name using the
// "vpn:username" convention of multi-tenant brokers.
func qualifiedUsername(vpn, username string) string {
	if username == "" {
		return ""
	}
	if vpn == "" {
		return username
	}
	return vpn + ":" + username
}

package websocket

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/racecable"
)

// Config holds the connection settings of an event stream.
type Config struct {
	// URL of the upgrade endpoint (ws:// or wss://)
	URL string
	// Subprotocol offered during the handshake
	Subprotocol string
	// AccessToken is sent as a bearer token during the handshake when set
	AccessToken string
	// Header holds extra handshake headers
	Header http.Header
	// HandshakeTimeout bounds the upgrade handshake
	HandshakeTimeout time.Duration
	// ReadLimit caps the size of inbound frames
	ReadLimit int64
	// CloseOnFatal closes the stream after yielding a fatal_error or
	// connection_error item
	CloseOnFatal bool
	// RateLimitConfig throttles outbound commands. Nil disables throttling.
	RateLimitConfig *RateLimitConfig
	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// RateLimitConfig defines rate limiting of outbound commands
type RateLimitConfig struct {
	// MessagesPerSecond defines how many commands can be sent per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultConfig returns the configuration for the public race event channel
func DefaultConfig() *Config {
	return &Config{
		URL:              racecable.DefaultCableURL,
		Subprotocol:      racecable.Subprotocol,
		HandshakeTimeout: 10 * time.Second,
		ReadLimit:        racecable.MaxFrameSize,
		RateLimitConfig:  DefaultRateLimitConfig(),
	}
}

// DefaultRateLimitConfig returns the default rate limit configuration
// Allows 10 commands per second with burst of 20
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 10,
		Burst:             20,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

// newLimiter returns nil when rate limiting is disabled
func (c *RateLimitConfig) newLimiter() *rate.Limiter {
	if c == nil || !c.Enabled {
		return nil
	}
	return rate.NewLimiter(c.MessagesPerSecond, c.Burst)
}

func (c *Config) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

package websocket

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luciancaetano/racecable"
)

// Dial performs the upgrade handshake and returns an open stream.
//
// A handshake that does not end with 101 Switching Protocols is reported as
// *racecable.ConnectError.
func Dial(ctx context.Context, cfg *Config) (*Stream, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := cfg.logger()

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	if cfg.Subprotocol != "" {
		dialer.Subprotocols = []string{cfg.Subprotocol}
	}

	header := http.Header{}
	for k, v := range cfg.Header {
		header[k] = append([]string(nil), v...)
	}
	if cfg.AccessToken != "" {
		header.Set("Authorization", "Bearer "+cfg.AccessToken)
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		connectErr := &racecable.ConnectError{Err: err}
		if resp != nil {
			connectErr.StatusCode = resp.StatusCode
		}
		l.Error("connect failed",
			zap.String("url", cfg.URL),
			zap.Int("status", connectErr.StatusCode),
			zap.Error(err))
		return nil, connectErr
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Close()
		return nil, &racecable.ConnectError{StatusCode: resp.StatusCode, Err: errors.New("unexpected handshake status")}
	}

	transport := NewConn(conn, cfg.ReadLimit)
	l.Debug("connected",
		zap.String("url", cfg.URL),
		zap.String("conn", transport.ID()),
		zap.String("subprotocol", conn.Subprotocol()))

	return NewStream(transport, cfg), nil
}

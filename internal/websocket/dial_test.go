package websocket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/luciancaetano/racecable"
	"github.com/luciancaetano/racecable/internal/cabletest"
)

func dialTestServer(t *testing.T, srv *cabletest.Server, token string) (*Stream, *cabletest.Client) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.URL = srv.URL()
	cfg.AccessToken = token
	cfg.RateLimitConfig = NoRateLimit()
	cfg.Logger = zaptest.NewLogger(t)

	stream, err := Dial(testContext(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close(context.Background()) })

	select {
	case client := <-srv.Connects():
		return stream, client
	case <-time.After(2 * time.Second):
		t.Fatal("server did not see the connection")
		return nil, nil
	}
}

// TestDialSubscribe tests the subscribe round trip against a live server
func TestDialSubscribe(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{ConfirmSubscriptions: true})
	defer srv.Close()

	stream, _ := dialTestServer(t, srv, "")
	ctx := testContext(t)

	require.NoError(t, stream.Subscribe(ctx, racecable.GlobalRaceChannel()))

	select {
	case cmd := <-srv.Commands():
		assert.Equal(t, racecable.CommandSubscribe, cmd.Kind)
		assert.Equal(t, racecable.GlobalRaceChannel(), cmd.Identifier)
	case <-ctx.Done():
		t.Fatal("server did not receive the command")
	}

	ev, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, racecable.EventConfirmSubscription, ev.Kind)
	assert.Equal(t, racecable.GlobalRaceChannel(), ev.Identifier)
}

// TestDialAccessToken tests the bearer token sent during the handshake
func TestDialAccessToken(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{AccessToken: "secret"})
	defer srv.Close()

	stream, _ := dialTestServer(t, srv, "secret")
	assert.True(t, stream.IsOpen())
}

// TestDialRejected tests that a refused handshake reports the HTTP status
func TestDialRejected(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{AccessToken: "secret"})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL()

	stream, err := Dial(testContext(t), cfg)
	assert.Nil(t, stream)

	var connectErr *racecable.ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, http.StatusUnauthorized, connectErr.StatusCode)
}

// TestDialUnreachable tests a connect failure without an HTTP response
func TestDialUnreachable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.URL = "ws://127.0.0.1:1/api/cable"
	cfg.HandshakeTimeout = time.Second

	_, err := Dial(testContext(t), cfg)

	var connectErr *racecable.ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Zero(t, connectErr.StatusCode)
}

// TestDialServerClose tests that a server side close ends the stream
func TestDialServerClose(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{})
	defer srv.Close()

	stream, client := dialTestServer(t, srv, "")
	ctx := testContext(t)

	require.NoError(t, client.Send(cabletest.PingFrame()))
	client.CloseWithCode(websocket.CloseNormalClosure, "")

	_, err := stream.Next(ctx)
	var receiveErr *racecable.ReceiveError
	require.ErrorAs(t, err, &receiveErr)
	assert.True(t, websocket.IsCloseError(receiveErr.Err, websocket.CloseNormalClosure))

	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// TestConnCancelledRead tests that a frame arriving after a cancelled pull
// is handed to the next one
func TestConnCancelledRead(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{SkipWelcome: true})
	defer srv.Close()

	stream, client := dialTestServer(t, srv, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := stream.Next(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
	require.True(t, stream.IsOpen())

	require.NoError(t, client.Send(cabletest.ConfirmFrame(racecable.GlobalRaceChannel())))

	ev, err := stream.Next(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, racecable.EventConfirmSubscription, ev.Kind)
}

// TestConnBinaryFrames tests that binary frames are reported as non-text
func TestConnBinaryFrames(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{SkipWelcome: true})
	defer srv.Close()

	stream, client := dialTestServer(t, srv, "")

	require.NoError(t, client.SendBinary([]byte{0xde, 0xad}))
	require.NoError(t, client.Send(cabletest.ConfirmFrame(racecable.GlobalRaceChannel())))

	text, data, err := stream.transport.ReadMessage(testContext(t))
	require.NoError(t, err)
	assert.False(t, text)
	assert.Equal(t, []byte{0xde, 0xad}, data)

	ev, err := stream.Next(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, racecable.EventConfirmSubscription, ev.Kind)
}

// TestConnClose tests that closing the stream closes the connection
func TestConnClose(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{})
	defer srv.Close()

	stream, _ := dialTestServer(t, srv, "")
	conn := stream.transport.(*Conn)

	require.NoError(t, stream.Close(testContext(t)))
	assert.False(t, stream.IsOpen())
	assert.False(t, conn.IsAlive())

	err := conn.WriteText(testContext(t), []byte(`{}`))
	assert.EqualError(t, err, racecable.ErrConnectionClosed)
}

// TestConnReadAfterFailure tests that reads after a failed read report the
// connection as closed instead of blocking
func TestConnReadAfterFailure(t *testing.T) {
	t.Parallel()

	srv := cabletest.New(cabletest.Config{SkipWelcome: true})
	defer srv.Close()

	stream, client := dialTestServer(t, srv, "")
	conn := stream.transport.(*Conn)

	client.CloseWithCode(websocket.CloseGoingAway, "")

	_, _, err := conn.ReadMessage(testContext(t))
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)

	_, _, err = conn.ReadMessage(testContext(t))
	assert.EqualError(t, err, racecable.ErrConnectionClosed)
	assert.False(t, conn.IsAlive())
}

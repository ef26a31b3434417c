// Package cabletest provides a scripted race event server for tests.
package cabletest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/racecable"
	"github.com/luciancaetano/racecable/internal/protocol"
)

// Path is the upgrade endpoint served by Server
const Path = "/api/cable"

// Config controls the behaviour of a Server
type Config struct {
	// AccessToken, when set, is required as a bearer token
	AccessToken string
	// SkipWelcome disables the welcome frame sent on connect
	SkipWelcome bool
	// ConfirmSubscriptions answers subscribe commands with
	// confirm_subscription
	ConfirmSubscriptions bool
	// OnConnect is called after the welcome frame was sent
	OnConnect func(c *Client)
}

// Server is an httptest backed websocket server speaking the race event
// protocol.
type Server struct {
	cfg      Config
	http     *httptest.Server
	upgrader websocket.Upgrader
	clients  sync.Map // map[string]*Client
	commands chan racecable.Command
	connects chan *Client
}

// Client is one connection accepted by the Server
type Client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// New starts a server. Close it when done.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		commands: make(chan racecable.Command, 64),
		connects: make(chan *Client, 16),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{racecable.Subprotocol},
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	s.http = httptest.NewServer(mux)
	return s
}

// URL returns the ws:// address of the upgrade endpoint
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http") + Path
}

// HTTPURL returns the http:// address of the server root
func (s *Server) HTTPURL() string {
	return s.http.URL
}

// Close drops every client and stops the server
func (s *Server) Close() {
	s.clients.Range(func(key, value any) bool {
		value.(*Client).Drop()
		return true
	})
	s.http.Close()
}

// Commands returns the commands received from all clients, in order
func (s *Server) Commands() <-chan racecable.Command {
	return s.commands
}

// Connects returns clients as they connect
func (s *Server) Connects() <-chan *Client {
	return s.connects
}

// Broadcast sends a raw text frame to all connected clients
func (s *Server) Broadcast(frame string) {
	s.clients.Range(func(key, value any) bool {
		value.(*Client).Send(frame)
		return true
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AccessToken != "" && r.Header.Get("Authorization") != "Bearer "+s.cfg.AccessToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{id: uuid.New().String(), conn: conn}
	s.clients.Store(client.id, client)

	if !s.cfg.SkipWelcome {
		client.Send(`{"type":"welcome"}`)
	}
	if s.cfg.OnConnect != nil {
		s.cfg.OnConnect(client)
	}
	select {
	case s.connects <- client:
	default:
	}

	go s.handleClient(client)
}

// handleClient reads commands until the connection closes
func (s *Server) handleClient(client *Client) {
	defer func() {
		s.clients.Delete(client.id)
		client.conn.Close()
	}()

	for {
		messageType, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			continue
		}
		select {
		case s.commands <- cmd:
		default:
		}

		if s.cfg.ConfirmSubscriptions && cmd.Kind == racecable.CommandSubscribe {
			client.Send(ConfirmFrame(cmd.Identifier))
		}
	}
}

// ID returns the server side id of the client
func (c *Client) ID() string {
	return c.id
}

// Send writes a raw text frame
func (c *Client) Send(frame string) error {
	return c.write(websocket.TextMessage, []byte(frame))
}

// SendBinary writes a binary frame
func (c *Client) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

// CloseWithCode sends a close frame and closes the connection
func (c *Client) CloseWithCode(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	message := websocket.FormatCloseMessage(code, reason)
	c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	c.conn.Close()
}

// Drop closes the connection without a close frame
func (c *Client) Drop() {
	c.conn.Close()
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(messageType, data)
}

// ConfirmFrame builds a confirm_subscription frame for id
func ConfirmFrame(id racecable.Identifier) string {
	return mustFrame(map[string]any{
		"type":       "confirm_subscription",
		"identifier": mustIdentifier(id),
	})
}

// MessageFrame builds a targeted frame carrying message for id
func MessageFrame(id racecable.Identifier, message any) string {
	return mustFrame(map[string]any{
		"identifier": mustIdentifier(id),
		"message":    message,
	})
}

// DataFrame builds a targeted frame with the usual data wrapper, storing
// payload under slot (race, races or chat_message)
func DataFrame(id racecable.Identifier, tag, slot string, payload any) string {
	return MessageFrame(id, map[string]any{
		"type": tag,
		"data": map[string]any{
			"message": "ok",
			slot:      payload,
		},
	})
}

// ErrorFrame builds a targeted frame for one of the terminal error tags
func ErrorFrame(id racecable.Identifier, tag, text string) string {
	return MessageFrame(id, map[string]any{
		"type":    tag,
		"message": text,
	})
}

// PingFrame builds a ping control frame
func PingFrame() string {
	return mustFrame(map[string]any{
		"type":    "ping",
		"message": time.Now().Unix(),
	})
}

func mustIdentifier(id racecable.Identifier) string {
	s, err := protocol.EncodeIdentifier(id)
	if err != nil {
		panic(err)
	}
	return s
}

func mustFrame(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Package ws connects to the race event cable.
package ws

import (
	"context"

	"github.com/luciancaetano/racecable"
	"github.com/luciancaetano/racecable/internal/websocket"
)

type Config = websocket.Config
type RateLimitConfig = websocket.RateLimitConfig

// Dial connects to the endpoint described by cfg and returns an open event
// stream. A nil cfg uses DefaultConfig().
//
// Example:
//
//	stream, err := ws.Dial(ctx, ws.NewConfig(racecable.DefaultCableURL, token))
//	if err != nil {
//	    return err
//	}
//	defer stream.Close(ctx)
//
//	if err := stream.Subscribe(ctx, racecable.GlobalRaceChannel()); err != nil {
//	    return err
//	}
//	for ev, err := range stream.Events(ctx) {
//	    ...
//	}
func Dial(ctx context.Context, cfg *Config) (racecable.EventStream, error) {
	stream, err := websocket.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// NewStream builds an event stream over an existing transport
func NewStream(transport racecable.Transport, cfg *Config) racecable.EventStream {
	return websocket.NewStream(transport, cfg)
}

// NewConfig returns the default configuration for url, authenticating with
// accessToken when it is not empty
func NewConfig(url, accessToken string) *Config {
	cfg := websocket.DefaultConfig()
	cfg.URL = url
	cfg.AccessToken = accessToken
	return cfg
}

// DefaultConfig returns the configuration for the public race event endpoint
func DefaultConfig() *Config {
	return websocket.DefaultConfig()
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return websocket.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return websocket.NoRateLimit()
}

// Package racecable is a client for the real-time race event channel of the
// splits.io speedrunning service.
//
// The server multiplexes many logical subscriptions over one websocket
// connection using an ActionCable-style JSON protocol. A subscription is
// named by an Identifier: either the global race feed, which announces every
// public race, or a single race, which additionally carries its chat.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/racecable"
//	    "github.com/luciancaetano/racecable/ws"
//	)
//
//	stream, err := ws.Dial(ctx, ws.NewConfig(racecable.DefaultCableURL, accessToken))
//	if err != nil {
//	    return err
//	}
//	defer stream.Close(ctx)
//
//	if err := stream.Subscribe(ctx, racecable.RaceChannel(raceID, joinToken)); err != nil {
//	    return err
//	}
//
//	for ev, err := range stream.Events(ctx) {
//	    var serverErr *racecable.ServerError
//	    if errors.As(err, &serverErr) {
//	        // the subscription was refused, the stream is still usable
//	        continue
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    switch ev.Kind {
//	    case racecable.EventRaceUpdated:
//	        // ev.Race holds the new snapshot
//	    case racecable.EventNewMessage:
//	        // ev.ChatMessage holds the message
//	    }
//	}
//
// # Protocol Format
//
// Every frame is one JSON text message. The server sends control frames
//
//	{"type":"welcome"}
//	{"type":"ping","message":1700000000}
//	{"type":"confirm_subscription","identifier":"{\"channel\":\"Api::V4::GlobalRaceChannel\"}"}
//
// and targeted frames
//
//	{"identifier":"...","message":{"type":"race_updated","data":{"message":"...","race":{...}}}}
//
// The identifier is itself a JSON document embedded as a string. Commands
// sent by the client use the same encoding:
//
//	{"command":"subscribe","identifier":"{\"channel\":\"Api::V4::GlobalRaceChannel\"}"}
//
// Pings, welcomes and messages with unknown tags are dropped. Maximum frame
// size: 10MB.
//
// # Errors
//
// EventStream.Next never panics on server input. Failures are reported as:
//
//   - *ServerError: the server refused or ended a subscription (race_not_found,
//     race_invalid_join_token, fatal_error, connection_error). The stream stays open.
//   - *DecodeError: a frame could not be parsed. The stream stays open.
//   - *ReceiveError: the connection failed. The stream is closed.
//   - io.EOF: the stream was already closed.
//
// Dial reports a failed handshake as *ConnectError and writes that cannot
// be completed surface as *SendError.
//
// # Race Model
//
// Payloads decode into the types of the race package. The REST operations
// that change races and entries live in the api package and return the same
// types.
package racecable

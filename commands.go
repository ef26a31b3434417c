package racecable

// Channel names understood by the server. They are part of the wire format.
const (
	ChannelGlobalRace Channel = "Api::V4::GlobalRaceChannel"
	ChannelRace       Channel = "Api::V4::RaceChannel"
)

// Connection defaults.
const (
	// DefaultCableURL is the upgrade endpoint of the race event channel
	DefaultCableURL = "wss://splits.io/api/cable"
	// Subprotocol is negotiated during the upgrade handshake
	Subprotocol = "actioncable-v1-json"
	// MaxFrameSize caps inbound and outbound frames (10MB)
	MaxFrameSize = 10 * 1024 * 1024
)

// Standard error messages
const (
	// Protocol errors
	ErrInvalidFrame      = "frame matches no known envelope shape"
	ErrInvalidIdentifier = "invalid channel identifier"
	ErrUnknownChannel    = "unknown channel"
	ErrMissingPayload    = "message carries no payload"
	ErrFrameTooLarge     = "frame exceeds maximum size"

	// Connection errors
	ErrConnectFailed    = "failed to connect to event channel"
	ErrReceiveFailed    = "failed to receive frame"
	ErrSendFailed       = "failed to send command"
	ErrConnectionClosed = "connection is closed"
)

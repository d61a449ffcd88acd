package realtime

import (
	"context"
)

// Handlers is the set of listeners a subscriber attaches to a client.
// Nil fields are simply not invoked. Handlers run on whichever goroutine
// produced the event (the read loop for server events, the sender for
// mirrored client events); no client lock is held during invocation, so
// a handler may call back into the client.
type Handlers struct {
	// RealtimeEvent receives every protocol event in both directions.
	RealtimeEvent func(ev Event)
	// Error receives protocol and transport errors.
	Error func(err error)
	// Interrupted fires when the server detects user speech starting while
	// a response is in flight.
	Interrupted func()
	// Updated fires after the conversation store has applied a change.
	Updated func(u Update)
}

// Client is the capability contract for the remote realtime speech API.
// The session controller is the sole caller.
type Client interface {
	// Connect opens the connection. Valid only while disconnected.
	Connect(ctx context.Context) error
	// Disconnect closes the connection and resets the conversation.
	// Idempotent.
	Disconnect()
	// IsConnected reports whether the connection is open.
	IsConnected() bool

	// UpdateSession merges the update into the session configuration and
	// pushes it to the server. Updates issued while disconnected are cached
	// and applied on the next Connect.
	UpdateSession(update SessionUpdate) error
	// SendUserMessageContent injects a synthetic user turn and requests a
	// response.
	SendUserMessageContent(parts []ContentPart) error
	// AppendInputAudio streams one microphone frame of 16-bit PCM.
	AppendInputAudio(pcm []byte) error
	// CreateResponse signals an explicit turn end in manual mode.
	CreateResponse() error
	// CancelResponse signals a barge-in cutoff: trackID names the item that
	// was playing and sampleOffset how many samples the listener heard.
	CancelResponse(trackID string, sampleOffset int) error

	// Subscribe attaches listeners and returns a release function. Every
	// teardown path of the subscriber must call release so repeated
	// connect/disconnect cycles cannot accumulate duplicate handlers.
	Subscribe(h Handlers) (release func())
	// Conversation returns the authoritative ordered item store.
	Conversation() *Conversation
}

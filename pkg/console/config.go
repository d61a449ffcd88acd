package console

import (
	"log/slog"

	"github.com/vango-go/voice-console/pkg/audio"
)

// ConnectionState is the primary state of the session state machine.
type ConnectionState int

const (
	// StateDisconnected is the initial and terminal state.
	StateDisconnected ConnectionState = iota
	// StateConnecting is held while the connect sequence is in flight; it
	// doubles as the re-entrancy guard against a second Connect.
	StateConnecting
	// StateConnected means the remote connection and both audio devices
	// are up.
	StateConnected
)

// String returns a human-readable state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// TurnMode selects how turn boundaries are decided.
type TurnMode string

const (
	// TurnModeManual gates capture on explicit start/stop (push-to-talk).
	TurnModeManual TurnMode = "manual"
	// TurnModeServerVAD streams capture continuously and lets the server's
	// voice-activity detection decide turn boundaries.
	TurnModeServerVAD TurnMode = "server_vad"
)

// Config holds session controller settings.
type Config struct {
	// Greeting is the text message sent right after connecting.
	// Default: "Hello!".
	Greeting string

	// Instructions is the baseline system instruction pushed on connect
	// when no persona is bound.
	Instructions string

	// TurnMode is the initial turn-taking mode. Default: TurnModeManual.
	TurnMode TurnMode

	// TranscriptionModel is pushed as the input audio transcription model.
	// Default: "whisper-1".
	TranscriptionModel string

	// Audio is the PCM format shared with the devices and the remote API.
	Audio audio.Config

	// Metrics receives session counters. Optional.
	Metrics *Metrics

	// Logger receives diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Greeting == "" {
		c.Greeting = "Hello!"
	}
	if c.TurnMode == "" {
		c.TurnMode = TurnModeManual
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = "whisper-1"
	}
	if c.Audio == (audio.Config{}) {
		c.Audio = audio.DefaultConfig()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

package realtime

import (
	"encoding/json"
)

// Source identifies which side of the connection produced an event.
type Source string

const (
	// SourceClient marks events sent by this client.
	SourceClient Source = "client"
	// SourceServer marks events received from the remote API.
	SourceServer Source = "server"
)

// Event is one protocol event as seen on the wire, in either direction.
// Payload is the raw JSON of the event for diagnostic display.
type Event struct {
	ID      string          `json:"event_id"`
	Source  Source          `json:"source"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Wire event type strings.
const (
	EventTypeSessionUpdate          = "session.update"
	EventTypeSessionCreated         = "session.created"
	EventTypeSessionUpdated         = "session.updated"
	EventTypeInputAudioAppend       = "input_audio_buffer.append"
	EventTypeInputAudioCommit       = "input_audio_buffer.commit"
	EventTypeSpeechStarted          = "input_audio_buffer.speech_started"
	EventTypeSpeechStopped          = "input_audio_buffer.speech_stopped"
	EventTypeItemCreate             = "conversation.item.create"
	EventTypeItemCreated            = "conversation.item.created"
	EventTypeItemTruncate           = "conversation.item.truncate"
	EventTypeItemTruncated          = "conversation.item.truncated"
	EventTypeInputTranscriptDone    = "conversation.item.input_audio_transcription.completed"
	EventTypeResponseCreate         = "response.create"
	EventTypeResponseCancel         = "response.cancel"
	EventTypeResponseOutputAdded    = "response.output_item.added"
	EventTypeResponseOutputDone     = "response.output_item.done"
	EventTypeResponseAudioDelta     = "response.audio.delta"
	EventTypeResponseAudioDone      = "response.audio.done"
	EventTypeResponseTranscript     = "response.audio_transcript.delta"
	EventTypeResponseTranscriptDone = "response.audio_transcript.done"
	EventTypeResponseTextDelta      = "response.text.delta"
	EventTypeResponseDone           = "response.done"
	EventTypeError                  = "error"
)

// TurnDetection configures server-side turn boundary detection.
type TurnDetection struct {
	Type              string   `json:"type"` // "server_vad"
	Threshold         *float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   *int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs *int     `json:"silence_duration_ms,omitempty"`
}

// AudioTranscription configures input audio transcription.
type AudioTranscription struct {
	Model string `json:"model"` // e.g. "whisper-1"
}

// SessionUpdate carries the recognized session-level configuration options.
// Fields left nil are not changed. TurnDetection distinguishes "set to null"
// (manual turn-taking) from "leave unchanged" via TurnDetectionSet.
type SessionUpdate struct {
	Instructions     *string
	TurnDetection    *TurnDetection
	TurnDetectionSet bool
	Transcription    *AudioTranscription
	Voice            *string
}

// ContentPart is one part of a synthetic user message.
type ContentPart struct {
	Type string `json:"type"` // "input_text"
	Text string `json:"text,omitempty"`
}

// TextContent builds an input_text content part.
func TextContent(text string) ContentPart {
	return ContentPart{Type: "input_text", Text: text}
}

// serverEvent is the decoded form of an inbound wire message. Only the
// fields the client acts on are mapped; Raw keeps the full payload.
type serverEvent struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	ItemID     string          `json:"item_id"`
	Delta      string          `json:"delta"`
	Transcript string          `json:"transcript"`
	AudioEndMs int             `json:"audio_end_ms"`
	Item       *wireItem       `json:"item"`
	Error      *Error          `json:"error"`
	Raw        json.RawMessage `json:"-"`
}

// wireItem is a conversation item as carried by wire events.
type wireItem struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	Role    string     `json:"role"`
	Status  string     `json:"status"`
	Content []wirePart `json:"content"`
}

type wirePart struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

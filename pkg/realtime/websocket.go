package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/voice-console/pkg/audio"
)

// DefaultURL is the realtime API WebSocket endpoint.
const DefaultURL = "wss://api.openai.com/v1/realtime"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-realtime-preview"

// Config holds connection parameters for WSClient.
type Config struct {
	// URL is the WebSocket endpoint. Defaults to DefaultURL.
	URL string
	// APIKey authenticates the connection. Ignored when talking to a local
	// relay that holds the key itself.
	APIKey string
	// Model selects the realtime model. Defaults to DefaultModel.
	Model string
	// HandshakeTimeout bounds the WebSocket dial. Defaults to 10s.
	HandshakeTimeout time.Duration
	// Audio is the PCM format the server streams. Defaults to
	// audio.DefaultConfig.
	Audio audio.Config
	// Logger receives transport diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// WSClient implements Client over a WebSocket connection.
type WSClient struct {
	config Config
	conv   *Conversation
	logger *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	closeCh   chan struct{}
	connected bool

	// session is the merged session configuration; the full configuration
	// is re-sent on every update and replayed on reconnect.
	session sessionState

	subMu   sync.Mutex
	subs    map[int]Handlers
	nextSub int
}

// sessionState is the accumulated session configuration.
type sessionState struct {
	Instructions  string
	TurnDetection *TurnDetection
	Transcription *AudioTranscription
	Voice         string
}

// NewWSClient creates a realtime API client. The connection is not opened
// until Connect.
func NewWSClient(config Config) *WSClient {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = 10 * time.Second
	}
	if config.Audio == (audio.Config{}) {
		config.Audio = audio.DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &WSClient{
		config: config,
		conv:   NewConversation(),
		logger: config.Logger,
		subs:   make(map[int]Handlers),
	}
}

// Conversation returns the authoritative item store.
func (c *WSClient) Conversation() *Conversation {
	return c.conv
}

// IsConnected reports whether the connection is open.
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the server, starts the read loop, and replays the cached
// session configuration. The conversation store is reset so the new session
// starts from a clean item list.
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("realtime: already connected")
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s?model=%s", c.config.URL, c.config.Model)

	headers := http.Header{}
	if c.config.APIKey != "" {
		headers.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return NewConnectionError(fmt.Sprintf("dial %s: %v", c.config.URL, err), resp.StatusCode)
		}
		return fmt.Errorf("realtime: dial %s: %w", c.config.URL, err)
	}

	c.conv.Reset()

	closeCh := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.closeCh = closeCh
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn, closeCh)

	// Replay accumulated session configuration onto the fresh session.
	if err := c.sendSessionUpdate(); err != nil {
		c.Disconnect()
		return fmt.Errorf("realtime: initial session update: %w", err)
	}
	return nil
}

// Disconnect closes the connection and resets the conversation store.
// Calling it while disconnected is a no-op.
func (c *WSClient) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	closeCh := c.closeCh
	c.conn = nil
	c.closeCh = nil
	c.connected = false
	c.mu.Unlock()

	if closeCh != nil {
		close(closeCh)
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.conv.Reset()
}

// Subscribe attaches listeners; the returned release detaches them.
func (c *WSClient) Subscribe(h Handlers) (release func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = h
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// handlers returns a snapshot of current subscribers.
func (c *WSClient) handlers() []Handlers {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	out := make([]Handlers, 0, len(c.subs))
	for _, h := range c.subs {
		out = append(out, h)
	}
	return out
}

// UpdateSession merges the update and pushes the full configuration.
// While disconnected the merge is cached and replayed on Connect.
func (c *WSClient) UpdateSession(update SessionUpdate) error {
	c.mu.Lock()
	if update.Instructions != nil {
		c.session.Instructions = *update.Instructions
	}
	if update.TurnDetectionSet {
		c.session.TurnDetection = update.TurnDetection
	}
	if update.Transcription != nil {
		c.session.Transcription = update.Transcription
	}
	if update.Voice != nil {
		c.session.Voice = *update.Voice
	}
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.sendSessionUpdate()
}

// sendSessionUpdate sends the full merged session configuration.
func (c *WSClient) sendSessionUpdate() error {
	c.mu.Lock()
	session := map[string]any{
		// turn_detection is always present: null selects manual turn-taking.
		"turn_detection": c.session.TurnDetection,
	}
	if c.session.Instructions != "" {
		session["instructions"] = c.session.Instructions
	}
	if c.session.Transcription != nil {
		session["input_audio_transcription"] = c.session.Transcription
	}
	if c.session.Voice != "" {
		session["voice"] = c.session.Voice
	}
	c.mu.Unlock()

	return c.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  session,
	})
}

// SendUserMessageContent injects a synthetic user turn and asks the server
// to respond to it.
func (c *WSClient) SendUserMessageContent(parts []ContentPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("realtime: empty message content")
	}
	err := c.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeItemCreate,
		"item": map[string]any{
			"type":    "message",
			"role":    "user",
			"content": parts,
		},
	})
	if err != nil {
		return err
	}
	return c.CreateResponse()
}

// AppendInputAudio streams one microphone frame. The logged client event
// carries the byte count rather than the encoded audio to keep the
// diagnostic log readable.
func (c *WSClient) AppendInputAudio(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	id := generateEventID()
	err := c.sendEventQuiet(map[string]any{
		"event_id": id,
		"type":     EventTypeInputAudioAppend,
		"audio":    base64.StdEncoding.EncodeToString(pcm),
	})
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(map[string]any{
		"event_id":    id,
		"type":        EventTypeInputAudioAppend,
		"audio_bytes": len(pcm),
	})
	c.emitEvent(Event{ID: id, Source: SourceClient, Type: EventTypeInputAudioAppend, Payload: payload})
	return nil
}

// CreateResponse asks the server to produce a response now.
func (c *WSClient) CreateResponse() error {
	return c.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCreate,
	})
}

// CancelResponse cancels the in-flight response and tells the server how
// much of trackID's audio was actually heard, so regeneration resumes from
// the cutoff instead of resending played audio.
func (c *WSClient) CancelResponse(trackID string, sampleOffset int) error {
	if trackID == "" {
		return fmt.Errorf("realtime: cancel requires a track id")
	}

	if err := c.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCancel,
	}); err != nil {
		return err
	}

	audioEndMs := c.config.Audio.MsForSamples(sampleOffset)
	return c.sendEvent(map[string]any{
		"event_id":      generateEventID(),
		"type":          EventTypeItemTruncate,
		"item_id":       trackID,
		"content_index": 0,
		"audio_end_ms":  audioEndMs,
	})
}

// sendEvent writes a JSON event and mirrors it to subscribers as a
// client-source log event.
func (c *WSClient) sendEvent(event map[string]any) error {
	if err := c.sendEventQuiet(event); err != nil {
		return err
	}
	payload, _ := json.Marshal(event)
	id, _ := event["event_id"].(string)
	typ, _ := event["type"].(string)
	c.emitEvent(Event{ID: id, Source: SourceClient, Type: typ, Payload: payload})
	return nil
}

// sendEventQuiet writes a JSON event without mirroring it.
func (c *WSClient) sendEventQuiet(event map[string]any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return fmt.Errorf("realtime: not connected")
	}

	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		if raw, err := json.Marshal(event); err == nil {
			c.logger.Debug("send event", "type", event["type"], "len", len(raw))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return fmt.Errorf("realtime: not connected")
	}
	return conn.WriteJSON(event)
}

// readLoop reads server messages until the connection closes.
func (c *WSClient) readLoop(conn *websocket.Conn, closeCh chan struct{}) {
	for {
		select {
		case <-closeCh:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-closeCh:
				// Deliberate disconnect; not an error.
			default:
				c.logger.Debug("read loop ended", "err", err)
				c.emitError(fmt.Errorf("realtime: read: %w", err))
				c.mu.Lock()
				if c.conn == conn {
					c.connected = false
				}
				c.mu.Unlock()
			}
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.emitError(NewProtocolError(fmt.Sprintf("parse server event: %v", err)))
			continue
		}
		ev.Raw = message
		c.handleServerEvent(&ev)
	}
}

// handleServerEvent applies a server event to the conversation store and
// notifies subscribers.
func (c *WSClient) handleServerEvent(ev *serverEvent) {
	c.emitEvent(Event{ID: ev.EventID, Source: SourceServer, Type: ev.Type, Payload: ev.Raw})

	switch ev.Type {
	case EventTypeError:
		if ev.Error != nil {
			c.emitError(ev.Error)
		} else {
			c.emitError(NewProtocolError("server error event without detail"))
		}

	case EventTypeSpeechStarted:
		c.emitInterrupted()

	case EventTypeItemCreated, EventTypeResponseOutputAdded:
		if ev.Item != nil {
			c.emitUpdated(c.conv.applyCreated(ev.Item))
		}

	case EventTypeResponseTranscript:
		if ev.ItemID != "" {
			c.emitUpdated(c.conv.applyTranscriptDelta(ev.ItemID, ev.Delta))
		}

	case EventTypeResponseTextDelta:
		if ev.ItemID != "" {
			c.emitUpdated(c.conv.applyTextDelta(ev.ItemID, ev.Delta))
		}

	case EventTypeResponseAudioDelta:
		if ev.ItemID == "" || ev.Delta == "" {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			c.emitError(NewProtocolError(fmt.Sprintf("decode audio delta: %v", err)))
			return
		}
		c.emitUpdated(c.conv.applyAudioDelta(ev.ItemID, pcm))

	case EventTypeInputTranscriptDone:
		if ev.ItemID != "" {
			c.emitUpdated(c.conv.applyInputTranscript(ev.ItemID, ev.Transcript))
		}

	case EventTypeResponseOutputDone:
		if ev.Item != nil {
			c.emitUpdated(c.conv.applyCompleted(ev.Item))
		}

	case EventTypeItemTruncated:
		if ev.ItemID != "" {
			c.emitUpdated(c.conv.applyTruncated(ev.ItemID, ev.AudioEndMs, c.config.Audio))
		}
	}
}

// The emit helpers iterate over a snapshot of the subscriber list and
// hold no client lock while a handler runs, so handlers are free to
// call back into the client (e.g. cancelling a response from within
// the Interrupted callback).

func (c *WSClient) emitEvent(ev Event) {
	for _, h := range c.handlers() {
		if h.RealtimeEvent != nil {
			h.RealtimeEvent(ev)
		}
	}
}

func (c *WSClient) emitError(err error) {
	for _, h := range c.handlers() {
		if h.Error != nil {
			h.Error(err)
		}
	}
}

func (c *WSClient) emitInterrupted() {
	for _, h := range c.handlers() {
		if h.Interrupted != nil {
			h.Interrupted()
		}
	}
}

func (c *WSClient) emitUpdated(u Update) {
	for _, h := range c.handlers() {
		if h.Updated != nil {
			h.Updated(u)
		}
	}
}

// generateEventID creates a unique client event id.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

var _ Client = (*WSClient)(nil)

package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-go/voice-console/pkg/audio"
	"github.com/vango-go/voice-console/pkg/console/eventlog"
	"github.com/vango-go/voice-console/pkg/console/persona"
	"github.com/vango-go/voice-console/pkg/realtime"
)

// Session is the realtime voice session controller. It owns the remote
// client and both audio devices exclusively for the lifetime of a
// connection; no other component may start or stop them.
type Session struct {
	config   Config
	client   realtime.Client
	recorder audio.Recorder
	player   audio.StreamPlayer
	catalog  *persona.Catalog
	log      *eventlog.Log
	logger   *slog.Logger
	metrics  *Metrics

	mu                 sync.Mutex
	state              ConnectionState
	turnMode           TurnMode
	isRecording        bool
	startTime          time.Time
	activeAgent        *persona.Agent
	activeInstructions string
	items              []realtime.Item
	release            func()
}

// NewSession creates a session controller over the given collaborators.
func NewSession(client realtime.Client, recorder audio.Recorder, player audio.StreamPlayer, catalog *persona.Catalog, config Config) *Session {
	config = config.withDefaults()
	if catalog == nil {
		catalog = persona.DefaultCatalog()
	}
	return &Session{
		config:   config,
		client:   client,
		recorder: recorder,
		player:   player,
		catalog:  catalog,
		log:      eventlog.New(),
		logger:   config.Logger,
		metrics:  config.Metrics,
		state:    StateDisconnected,
		turnMode: config.TurnMode,
	}
}

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is connected.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// TurnMode returns the active turn-taking mode.
func (s *Session) TurnMode() TurnMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnMode
}

// CanPushToTalk reports whether push-to-talk is available: manual mode
// while connected.
func (s *Session) CanPushToTalk() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnMode == TurnModeManual && s.state == StateConnected
}

// IsRecording reports whether a manual recording window is open.
func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRecording
}

// Items returns the current conversation snapshot. Read-only to rendering.
func (s *Session) Items() []realtime.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Log returns the diagnostic event log.
func (s *Session) Log() *eventlog.Log {
	return s.log
}

// ActiveAgent returns the bound persona, if any.
func (s *Session) ActiveAgent() (persona.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeAgent == nil {
		return persona.Agent{}, false
	}
	return *s.activeAgent, true
}

// ActiveInstructions returns the local view of the bound instructions.
func (s *Session) ActiveInstructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeInstructions
}

// Agents returns the persona catalog in order.
func (s *Session) Agents() []persona.Agent {
	return s.catalog.Agents()
}

// Connect opens the session: reset log and items, open the remote
// connection, initialize capture, connect playback, send the greeting, and
// begin continuous streaming in server VAD mode. Any failure tears down
// whatever was opened and returns to Disconnected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("console: connect while %s", state)
	}
	s.state = StateConnecting
	s.startTime = time.Now()
	s.mu.Unlock()

	s.log.Reset(s.startTime)
	s.setItems(s.client.Conversation().Items())

	release := s.client.Subscribe(realtime.Handlers{
		RealtimeEvent: s.onRealtimeEvent,
		Error:         s.onClientError,
		Interrupted:   s.onInterrupted,
		Updated:       s.onConversationUpdated,
	})
	s.mu.Lock()
	s.release = release
	s.mu.Unlock()

	if err := s.connectSequence(ctx); err != nil {
		s.teardown()
		return err
	}

	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()

	s.metrics.sessionStarted()
	s.logger.Info("session connected", "turn_mode", string(s.TurnMode()))
	return nil
}

// connectSequence runs the ordered connect steps; each must complete before
// the next.
func (s *Session) connectSequence(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		return fmt.Errorf("console: open connection: %w", err)
	}
	if err := s.pushSessionDefaults(); err != nil {
		return fmt.Errorf("console: configure session: %w", err)
	}
	if err := s.recorder.Begin(); err != nil {
		return fmt.Errorf("console: begin capture: %w", err)
	}
	if err := s.player.Connect(); err != nil {
		return fmt.Errorf("console: connect playback: %w", err)
	}
	if err := s.client.SendUserMessageContent([]realtime.ContentPart{
		realtime.TextContent(s.config.Greeting),
	}); err != nil {
		return fmt.Errorf("console: send greeting: %w", err)
	}

	if s.TurnMode() == TurnModeServerVAD && s.client.IsConnected() {
		if err := s.recorder.Record(s.sendFrame); err != nil {
			return fmt.Errorf("console: start streaming: %w", err)
		}
	}
	return nil
}

// pushSessionDefaults sends the baseline session configuration:
// instructions (persona-bound if one is selected), transcription model, and
// turn detection matching the current mode.
func (s *Session) pushSessionDefaults() error {
	s.mu.Lock()
	instructions := s.config.Instructions
	if s.activeInstructions != "" {
		instructions = s.activeInstructions
	}
	mode := s.turnMode
	s.mu.Unlock()

	update := realtime.SessionUpdate{
		Transcription:    &realtime.AudioTranscription{Model: s.config.TranscriptionModel},
		TurnDetectionSet: true,
	}
	if mode == TurnModeServerVAD {
		update.TurnDetection = &realtime.TurnDetection{Type: "server_vad"}
	}
	if instructions != "" {
		update.Instructions = &instructions
	}
	return s.client.UpdateSession(update)
}

// Disconnect closes the session. UI-visible state is cleared first so stale
// data cannot be rendered mid-teardown; the remaining steps are best-effort
// and never panic. Calling while disconnected is a no-op.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateDisconnected
	s.isRecording = false
	s.items = nil
	release := s.release
	s.release = nil
	s.mu.Unlock()

	s.log.Reset(time.Now())

	if release != nil {
		release()
	}
	s.client.Disconnect()
	if err := s.recorder.End(); err != nil {
		s.logger.Warn("end capture", "err", err)
	}
	if _, err := s.player.Interrupt(); err != nil {
		s.logger.Warn("interrupt playback", "err", err)
	}

	s.metrics.sessionEnded()
	s.logger.Info("session disconnected")
	return nil
}

// teardown unwinds a failed connect: every exit path releases the
// listeners and leaves no dangling open device.
func (s *Session) teardown() {
	s.mu.Lock()
	s.state = StateDisconnected
	s.isRecording = false
	release := s.release
	s.release = nil
	s.mu.Unlock()

	if release != nil {
		release()
	}
	s.client.Disconnect()
	if err := s.recorder.End(); err != nil {
		s.logger.Warn("end capture", "err", err)
	}
	if _, err := s.player.Interrupt(); err != nil {
		s.logger.Warn("interrupt playback", "err", err)
	}
}

// sendFrame delivers one capture frame to the remote connection. Frames
// arriving after disconnect are dropped, never queued.
func (s *Session) sendFrame(pcm []byte) {
	if !s.IsConnected() || !s.client.IsConnected() {
		return
	}
	if err := s.client.AppendInputAudio(pcm); err != nil {
		s.logger.Debug("append audio", "err", err)
		return
	}
	s.metrics.audioSent(len(pcm))
}

// setItems replaces the local snapshot with the authoritative list.
func (s *Session) setItems(items []realtime.Item) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// onRealtimeEvent records a protocol event into the coalescing log.
func (s *Session) onRealtimeEvent(ev realtime.Event) {
	s.log.Record(ev)
	s.metrics.eventRecorded(string(ev.Source))
}

// onClientError logs protocol and transport errors; the conversation
// continues.
func (s *Session) onClientError(err error) {
	s.logger.Error("realtime client", "err", err)
	s.metrics.errorSeen()
}

// onInterrupted handles the server signaling user speech during playback.
func (s *Session) onInterrupted() {
	s.handleInterruption()
}

// onConversationUpdated routes streamed audio to the playback device,
// attaches a decoded file once an item completes with audio present, and
// re-reads the authoritative item list.
func (s *Session) onConversationUpdated(u realtime.Update) {
	if len(u.Delta.Audio) > 0 {
		s.player.Add16BitPCM(u.Delta.Audio, u.Item.ID)
		s.metrics.audioReceived(len(u.Delta.Audio))
	}

	if u.Item.Status == realtime.ItemCompleted && len(u.Item.Audio) > 0 && u.Item.File == nil {
		file := audio.EncodeWAV(u.Item.Audio, s.config.Audio.SampleRate, s.config.Audio.Channels)
		s.client.Conversation().AttachFile(u.Item.ID, file)
	}

	s.setItems(s.client.Conversation().Items())
}

// InputFrequencies returns frequency data for the capture device, or
// silence when the device is not active.
func (s *Session) InputFrequencies(kind audio.FrequencyKind) *audio.Frequencies {
	if f := s.recorder.GetFrequencies(kind); f != nil {
		return f
	}
	return audio.Silence()
}

// OutputFrequencies returns frequency data for the playback device, or
// silence when nothing is playing.
func (s *Session) OutputFrequencies(kind audio.FrequencyKind) *audio.Frequencies {
	if f := s.player.GetFrequencies(kind); f != nil {
		return f
	}
	return audio.Silence()
}

// InputLevel returns the RMS energy and peak amplitude of the capture
// device's most recent frame.
func (s *Session) InputLevel() (rms, peak float64) {
	return s.recorder.Level()
}

// OutputLevel returns the RMS energy and peak amplitude of the most
// recently played audio.
func (s *Session) OutputLevel() (rms, peak float64) {
	return s.player.Level()
}

package console

import (
	"fmt"

	"github.com/vango-go/voice-console/pkg/realtime"
)

// StartRecording opens a manual push-to-talk window. If a response is
// currently playing it is interrupted first, then the microphone is armed.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return fmt.Errorf("console: not connected")
	}
	if s.turnMode != TurnModeManual {
		s.mu.Unlock()
		return fmt.Errorf("console: recording is gated only in manual mode")
	}
	if s.isRecording {
		s.mu.Unlock()
		return nil
	}
	s.isRecording = true
	s.mu.Unlock()

	s.handleInterruption()

	if err := s.recorder.Record(s.sendFrame); err != nil {
		s.mu.Lock()
		s.isRecording = false
		s.mu.Unlock()
		return fmt.Errorf("console: arm microphone: %w", err)
	}
	return nil
}

// StopRecording closes the push-to-talk window and explicitly requests a
// response (the manual turn-end signal).
func (s *Session) StopRecording() error {
	s.mu.Lock()
	if !s.isRecording {
		s.mu.Unlock()
		return fmt.Errorf("console: not recording")
	}
	s.isRecording = false
	s.mu.Unlock()

	if err := s.recorder.Pause(); err != nil {
		s.logger.Warn("pause capture", "err", err)
	}
	if err := s.client.CreateResponse(); err != nil {
		return fmt.Errorf("console: request response: %w", err)
	}
	return nil
}

// ChangeTurnMode switches the turn-taking policy. Switching is rejected
// mid-response: while a manual recording window is open or while playback
// is active.
func (s *Session) ChangeTurnMode(mode TurnMode) error {
	if mode != TurnModeManual && mode != TurnModeServerVAD {
		return fmt.Errorf("console: unknown turn mode %q", mode)
	}

	s.mu.Lock()
	if mode == s.turnMode {
		s.mu.Unlock()
		return nil
	}
	if s.isRecording {
		s.mu.Unlock()
		return fmt.Errorf("console: cannot switch modes while recording")
	}
	connected := s.state == StateConnected
	s.mu.Unlock()

	if connected && s.player.Active() {
		return fmt.Errorf("console: cannot switch modes while a response is playing")
	}

	switch mode {
	case TurnModeManual:
		// Pause first so no frame leaks outside an explicit window.
		if s.recorder.Recording() {
			if err := s.recorder.Pause(); err != nil {
				s.logger.Warn("pause capture", "err", err)
			}
		}
		if err := s.client.UpdateSession(realtime.SessionUpdate{TurnDetectionSet: true}); err != nil {
			return fmt.Errorf("console: update turn detection: %w", err)
		}

	case TurnModeServerVAD:
		if err := s.client.UpdateSession(realtime.SessionUpdate{
			TurnDetectionSet: true,
			TurnDetection:    &realtime.TurnDetection{Type: "server_vad"},
		}); err != nil {
			return fmt.Errorf("console: update turn detection: %w", err)
		}
		if connected && s.client.IsConnected() {
			if err := s.recorder.Record(s.sendFrame); err != nil {
				return fmt.Errorf("console: start streaming: %w", err)
			}
		}
	}

	s.mu.Lock()
	s.turnMode = mode
	s.mu.Unlock()
	return nil
}

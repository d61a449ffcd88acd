package console

// handleInterruption performs barge-in: stop playback at the current sample
// offset and tell the remote API how much audio the listener actually
// heard. Triggered by the server's speech-started signal and by an explicit
// StartRecording during playback.
//
// The cancel call is fire-and-forget relative to the capture restart:
// failures are logged since the response is being abandoned regardless.
func (s *Session) handleInterruption() {
	offset, err := s.player.Interrupt()
	if err != nil {
		s.logger.Warn("interrupt playback", "err", err)
		return
	}
	if offset == nil {
		// Nothing was playing; cancelling with no track is invalid.
		return
	}

	s.metrics.interrupted()
	if err := s.client.CancelResponse(offset.TrackID, offset.Offset); err != nil {
		s.logger.Warn("cancel response", "track", offset.TrackID, "err", err)
	}
}

package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// TrackOffset identifies how much of a playing track was actually emitted
// before an interrupt: the track id and the sample offset at which playback
// stopped. It is consumed immediately by the cancellation call and never
// stored.
type TrackOffset struct {
	TrackID string
	Offset  int
}

// StreamPlayer is the playback device contract consumed by the session
// controller. Audio is streamed in as 16-bit PCM chunks tagged with the
// conversation item id they belong to.
type StreamPlayer interface {
	// Connect opens the output device.
	Connect() error
	// Interrupt stops playback immediately, discards buffered audio, and
	// returns the track id and sample offset actually played. Returns nil
	// when nothing was playing; safe to call repeatedly.
	Interrupt() (*TrackOffset, error)
	// Add16BitPCM queues a PCM chunk for the given track. A new track id
	// replaces whatever was queued before.
	Add16BitPCM(pcm []byte, trackID string)
	// GetFrequencies returns the magnitude spectrum of the most recent
	// emitted audio, or nil when nothing is playing.
	GetFrequencies(kind FrequencyKind) *Frequencies
	// Level returns the RMS energy and peak amplitude of the most recent
	// emitted audio, or zeros when nothing is playing.
	Level() (rms, peak float64)
	// Active reports whether a track is currently playing.
	Active() bool
}

// SpeakerPlayer streams audio to the default output device via oto.
type SpeakerPlayer struct {
	config Config
	bins   int

	mu      sync.Mutex
	otoCtx  *oto.Context
	player  *oto.Player
	buf     []byte
	trackID string
	played  int // bytes of the current track already handed to the device
	lastOut []byte
	closed  bool
}

// NewSpeakerPlayer creates a speaker player for the given format.
func NewSpeakerPlayer(config Config) *SpeakerPlayer {
	return &SpeakerPlayer{
		config: config,
		bins:   16,
		buf:    make([]byte, 0, config.BytesPerSecond()*2),
	}
}

// Connect opens the output device. The oto player itself is created lazily
// on the first audio chunk so silence costs nothing.
func (s *SpeakerPlayer) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.otoCtx != nil {
		return nil
	}

	// ~100ms buffer for low latency
	opts := &oto.NewContextOptions{
		SampleRate:   s.config.SampleRate,
		ChannelCount: s.config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return fmt.Errorf("audio: init output device: %w", err)
	}
	<-ready
	s.otoCtx = ctx
	s.closed = false
	return nil
}

// Add16BitPCM queues a PCM chunk for the given track.
func (s *SpeakerPlayer) Add16BitPCM(pcm []byte, trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if trackID != s.trackID {
		s.buf = s.buf[:0]
		s.played = 0
		s.trackID = trackID
	}
	s.buf = append(s.buf, pcm...)

	if s.player == nil && s.otoCtx != nil {
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
}

// Read implements io.Reader for the oto player. Every real byte handed to
// the device is accounted against the current track's play offset; on
// underrun it feeds silence so the device keeps running while the next
// delta streams in.
func (s *SpeakerPlayer) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.EOF
	}

	if len(s.buf) == 0 {
		s.lastOut = nil
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.played += n
	s.lastOut = append(s.lastOut[:0], p[:n]...)
	return n, nil
}

// Interrupt stops playback at the current sample offset and reports it.
func (s *SpeakerPlayer) Interrupt() (*TrackOffset, error) {
	s.mu.Lock()

	// A drained buffer means the track finished on its own; there is no
	// in-flight audio left to truncate. The track id is kept so a late
	// delta for the same response keeps accumulating its play offset.
	if s.trackID == "" || len(s.buf) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	offset := &TrackOffset{
		TrackID: s.trackID,
		Offset:  s.played / (s.config.Channels * 2),
	}

	s.buf = s.buf[:0]
	s.trackID = ""
	s.played = 0
	s.lastOut = nil
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		// Pause stops audio immediately; Reset clears oto's internal buffer
		// so old audio cannot overlap whatever plays next.
		player.Pause()
		player.Reset()
		_ = player.Close()
	}
	return offset, nil
}

// Active reports whether track audio is still queued for the device. A
// fully drained track counts as inactive so mode switches are not blocked
// after a response finishes.
func (s *SpeakerPlayer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) > 0
}

// GetFrequencies analyzes the most recently emitted audio. Returns nil when
// nothing is playing.
func (s *SpeakerPlayer) GetFrequencies(kind FrequencyKind) *Frequencies {
	s.mu.Lock()
	frame := s.lastOut
	rate := s.config.SampleRate
	bins := s.bins
	s.mu.Unlock()

	if len(frame) == 0 {
		return nil
	}
	return AnalyzeFrequencies(frame, rate, bins, kind)
}

// Level reports the RMS energy and peak amplitude of the most recently
// emitted audio.
func (s *SpeakerPlayer) Level() (rms, peak float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lastOut) == 0 {
		return 0, 0
	}
	return CalculateRMSEnergy(s.lastOut), CalculatePeakAmplitude(s.lastOut)
}

// Close releases the output device.
func (s *SpeakerPlayer) Close() {
	s.mu.Lock()
	s.closed = true
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		_ = player.Close()
	}
}

var _ StreamPlayer = (*SpeakerPlayer)(nil)

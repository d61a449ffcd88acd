package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Recorder is the capture device contract consumed by the session
// controller. Frames are 16-bit little-endian PCM at the configured rate.
type Recorder interface {
	// Begin opens the capture device. No frames are delivered until Record.
	Begin() error
	// End stops capture and releases the device. Safe to call when not begun.
	End() error
	// Pause stops frame delivery without releasing the device.
	Pause() error
	// Record arms frame delivery. Each captured frame is passed to onFrame
	// in chronological order.
	Record(onFrame func(pcm []byte)) error
	// Recording reports whether frames are currently being delivered.
	Recording() bool
	// GetFrequencies returns the magnitude spectrum of the most recent
	// frame, or nil when the device is not active.
	GetFrequencies(kind FrequencyKind) *Frequencies
	// Level returns the RMS energy and peak amplitude of the most recent
	// frame, or zeros when the device is not active.
	Level() (rms, peak float64)
}

// MicRecorder captures microphone audio via malgo (miniaudio).
type MicRecorder struct {
	config Config
	bins   int

	mu        sync.Mutex
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	onFrame   func(pcm []byte)
	recording bool
	lastFrame []byte
}

// NewMicRecorder creates a microphone recorder for the given format.
func NewMicRecorder(config Config) *MicRecorder {
	return &MicRecorder{config: config, bins: 16}
}

// Begin opens the capture device and starts the hardware stream. Frames are
// discarded until Record is called.
func (m *MicRecorder) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("audio: recorder already begun")
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return fmt.Errorf("audio: init capture context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.config.Channels)
	deviceConfig.SampleRate = uint32(m.config.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.deliver(input)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		return fmt.Errorf("audio: init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		return fmt.Errorf("audio: start capture device: %w", err)
	}

	m.ctx = ctx
	m.device = device
	return nil
}

// deliver forwards one hardware frame to the armed callback and retains a
// copy for frequency analysis.
func (m *MicRecorder) deliver(input []byte) {
	m.mu.Lock()
	m.lastFrame = append(m.lastFrame[:0], input...)
	onFrame := m.onFrame
	recording := m.recording
	m.mu.Unlock()

	if recording && onFrame != nil && len(input) > 0 {
		frame := make([]byte, len(input))
		copy(frame, input)
		onFrame(frame)
	}
}

// Record arms frame delivery to onFrame.
func (m *MicRecorder) Record(onFrame func(pcm []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return fmt.Errorf("audio: recorder not begun")
	}
	m.onFrame = onFrame
	m.recording = true
	return nil
}

// Pause stops frame delivery; the hardware stream keeps running so a later
// Record resumes without device latency.
func (m *MicRecorder) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recording = false
	return nil
}

// End stops capture and releases the device and context.
func (m *MicRecorder) End() error {
	m.mu.Lock()
	device := m.device
	ctx := m.ctx
	m.device = nil
	m.ctx = nil
	m.recording = false
	m.onFrame = nil
	m.lastFrame = nil
	m.mu.Unlock()

	if device != nil {
		_ = device.Stop()
		device.Uninit()
	}
	if ctx != nil {
		if err := ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: release capture context: %w", err)
		}
	}
	return nil
}

// Recording reports whether frames are being delivered.
func (m *MicRecorder) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// GetFrequencies analyzes the most recent captured frame. Returns nil when
// the device is not active.
func (m *MicRecorder) GetFrequencies(kind FrequencyKind) *Frequencies {
	m.mu.Lock()
	frame := m.lastFrame
	active := m.device != nil
	rate := m.config.SampleRate
	bins := m.bins
	m.mu.Unlock()

	if !active || len(frame) == 0 {
		return nil
	}
	return AnalyzeFrequencies(frame, rate, bins, kind)
}

// Level reports the RMS energy and peak amplitude of the most recent
// captured frame. Returns zeros when the device is not active.
func (m *MicRecorder) Level() (rms, peak float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil || len(m.lastFrame) == 0 {
		return 0, 0
	}
	return CalculateRMSEnergy(m.lastFrame), CalculatePeakAmplitude(m.lastFrame)
}

var _ Recorder = (*MicRecorder)(nil)

package audio

import (
	"math"
)

// CalculateRMSEnergy computes the root-mean-square energy of PCM audio.
// Input is assumed to be 16-bit signed little-endian PCM.
// Returns a value between 0.0 and 1.0.
func CalculateRMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// CalculatePeakAmplitude returns the maximum absolute amplitude in the PCM data.
// Returns a value between 0.0 and 1.0.
func CalculatePeakAmplitude(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		// Use float64 to avoid overflow when negating -32768
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}

// FrequencyKind selects the analysis band for GetFrequencies.
type FrequencyKind string

const (
	// KindVoice limits analysis to the human voice band.
	KindVoice FrequencyKind = "voice"
	// KindFrequency analyzes the full band up to Nyquist.
	KindFrequency FrequencyKind = "frequency"
)

// Frequencies is one frame of per-band magnitudes for visualization.
// Values are normalized to 0.0..1.0.
type Frequencies struct {
	Values []float32
}

// Silence returns an analysis frame representing no signal. The
// visualization loop renders this whenever a device is not active.
func Silence() *Frequencies {
	return &Frequencies{Values: []float32{0}}
}

// AnalyzeFrequencies computes bin magnitudes over a PCM frame using the
// Goertzel algorithm at bin-center frequencies. kind selects the band:
// KindVoice covers 80Hz..4kHz, KindFrequency covers 0..Nyquist.
func AnalyzeFrequencies(pcm []byte, sampleRate, bins int, kind FrequencyKind) *Frequencies {
	if bins <= 0 {
		bins = 16
	}
	samples := len(pcm) / 2
	if samples == 0 || sampleRate <= 0 {
		return Silence()
	}

	signal := make([]float64, samples)
	for i := 0; i < samples; i++ {
		s := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		signal[i] = float64(s) / 32768.0
	}

	lo, hi := 0.0, float64(sampleRate)/2
	if kind == KindVoice {
		lo, hi = 80.0, 4000.0
		if hi > float64(sampleRate)/2 {
			hi = float64(sampleRate) / 2
		}
	}

	values := make([]float32, bins)
	for b := 0; b < bins; b++ {
		freq := lo + (hi-lo)*(float64(b)+0.5)/float64(bins)
		values[b] = float32(goertzelMagnitude(signal, freq, float64(sampleRate)))
	}
	return &Frequencies{Values: values}
}

// goertzelMagnitude returns the normalized magnitude of one frequency
// component of the signal.
func goertzelMagnitude(signal []float64, freq, sampleRate float64) float64 {
	n := len(signal)
	if n == 0 {
		return 0
	}
	omega := 2 * math.Pi * freq / sampleRate
	coeff := 2 * math.Cos(omega)

	var s0, s1, s2 float64
	for _, x := range signal {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	magnitude := math.Sqrt(s1*s1+s2*s2-coeff*s1*s2) * 2 / float64(n)
	if magnitude > 1 {
		magnitude = 1
	}
	return magnitude
}

package pipeline

import "math"

const (
	// speechRMSThreshold is the per-window energy above which a recording is
	// considered to contain speech rather than room noise.
	speechRMSThreshold = 0.01

	// vadWindowSamples is 100ms at 16kHz.
	vadWindowSamples = 1600
)

// hasSpeech reports whether any analysis window of the recording carries
// enough energy to be worth decoding. Silent recordings skip the model
// entirely so a stray hotkey press costs nothing.
func hasSpeech(samples []float32) bool {
	if len(samples) == 0 {
		return false
	}
	for start := 0; start < len(samples); start += vadWindowSamples {
		end := start + vadWindowSamples
		if end > len(samples) {
			end = len(samples)
		}
		if calculateRMS(samples[start:end]) > speechRMSThreshold {
			return true
		}
	}
	return false
}

// calculateRMS calculates the root mean square of audio samples.
func calculateRMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

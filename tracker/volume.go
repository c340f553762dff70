package tracker

import (
	"math"

	"github.com/viterin/vek/vek32"

	"gridtrack"
)

// Volume holds the peak and RMS levels of the left and right channels of a
// stereo buffer, as fractions of full scale.
type Volume struct {
	Peak [2]float64
	RMS  [2]float64
}

// AnalyzeVolume measures an interleaved stereo buffer. Useful for checking
// the headroom of an offline render before writing it out.
func AnalyzeVolume(buffer gridtrack.AudioBuffer) Volume {
	var v Volume
	frames := len(buffer) / 2
	if frames == 0 {
		return v
	}
	side := make([]float32, frames)
	squares := make([]float32, frames)
	for j := 0; j < 2; j++ {
		for i := 0; i < frames; i++ {
			side[i] = float32(buffer[i*2+j]) / (math.MaxInt16 + 1)
		}
		vek32.Mul_Into(squares, side, side)
		v.RMS[j] = math.Sqrt(float64(vek32.Mean(squares)))
		v.Peak[j] = math.Sqrt(float64(vek32.Max(squares)))
	}
	return v
}

// DB converts a fraction of full scale to decibels, floored so that
// silence does not become negative infinity.
func DB(level float64) float64 {
	const floor = -96
	if level <= 0 {
		return floor
	}
	dB := 20 * math.Log10(level)
	if dB < floor {
		return floor
	}
	return dB
}

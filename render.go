package gridtrack

import (
	"fmt"
	"math"
)

// renderLoopCount is the fixed number of loop iterations rendered when
// looping is enabled, regardless of the loop length.
const renderLoopCount = 4

// toneRenderAmplitude scales synthesized tones during mixdown so that
// several channels can sound before the sum clips.
const toneRenderAmplitude = 0.3

// RenderRows returns the number of logical rows a render of the song spans:
// four full loop iterations when looping is enabled, otherwise every row
// once.
func RenderRows(s *Song) int {
	if s.LoopEnabled && s.LoopEnd > s.LoopStart {
		return (s.LoopEnd - s.LoopStart + 1) * renderLoopCount
	}
	return s.NumRows
}

// renderRowIndex maps a logical render row to the actual song row, honoring
// the loop wrap the same way the live scheduler does.
func renderRowIndex(s *Song, row int) int {
	if s.LoopEnabled && s.LoopEnd > s.LoopStart {
		return s.LoopStart + row%(s.LoopEnd-s.LoopStart+1)
	}
	return row % s.NumRows
}

// Render deterministically mixes the whole song (or its loop span) down to
// one interleaved stereo buffer. Channels 0..3 are weighted 0.7 left / 0.3
// right, channels 4..7 the other way around; every addition saturates at
// the int16 range. Samples that fail to load are treated as rests and do
// not fail the render. A nil loader uses WavFileLoader.
func Render(s *Song, loader SampleLoader) (AudioBuffer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if loader == nil {
		loader = WavFileLoader{}
	}
	rowSamples := s.SamplesPerRow()
	totalRows := RenderRows(s)
	totalSamples := totalRows * rowSamples
	if totalSamples <= 0 {
		return nil, fmt.Errorf("render span is empty: %d rows of %d samples", totalRows, rowSamples)
	}
	master := make(AudioBuffer, totalSamples*2)
	rowBuffer := make(AudioBuffer, rowSamples*2)
	for row := 0; row < totalRows; row++ {
		actualRow := renderRowIndex(s, row)
		for i := range rowBuffer {
			rowBuffer[i] = 0
		}
		sounding := false
		for ch := 0; ch < s.NumChannels; ch++ {
			cell := s.Cell(ch, actualRow)
			if cell.Note <= 0 {
				continue
			}
			if cell.Sample != "" {
				if mixSample(rowBuffer, ch, cell, loader) {
					sounding = true
				}
			} else {
				mixTone(rowBuffer, ch, Frequency(cell.Note))
				sounding = true
			}
		}
		if !sounding {
			continue
		}
		// The row slice is added to the master buffer rather than copied,
		// so overlapping rows would compose if they ever happened.
		start := row * rowSamples * 2
		for i, v := range rowBuffer {
			master[start+i] = addSaturating(master[start+i], v)
		}
	}
	return master, nil
}

// RenderWav renders the song and wraps the result in a WAV container.
func RenderWav(s *Song, loader SampleLoader) ([]byte, error) {
	buffer, err := Render(s, loader)
	if err != nil {
		return nil, err
	}
	return Wav(buffer)
}

// mixSample loads and pitch-shifts a sample cell, then mixes it into the
// stereo row buffer, truncated to the row length. Returns false if the
// sample could not be loaded or resampled.
func mixSample(rowBuffer AudioBuffer, ch int, cell Cell, loader SampleLoader) bool {
	data, err := loader.LoadPCM(cell.Sample)
	if err != nil {
		return false
	}
	if math.Abs(cell.PitchRatio-1.0) > ratioEpsilon {
		data = Resample(data, cell.PitchRatio)
	}
	if len(data) == 0 {
		return false
	}
	n := len(data)
	if rowLen := len(rowBuffer) / 2; n > rowLen {
		n = rowLen
	}
	left, right := panWeights(ch)
	for i := 0; i < n; i++ {
		mixStereo(rowBuffer, i, data[i], left, right)
	}
	return true
}

// mixTone synthesizes a sine tone across the whole row and mixes it into
// the stereo row buffer.
func mixTone(rowBuffer AudioBuffer, ch int, freq float64) {
	left, right := panWeights(ch)
	for i := 0; i < len(rowBuffer)/2; i++ {
		sample := int16(math.MaxInt16 * toneRenderAmplitude * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
		mixStereo(rowBuffer, i, sample, left, right)
	}
}

// panWeights returns the fixed left/right amplitude weighting of an output
// channel: the lower four channels lean left, the upper four lean right.
func panWeights(ch int) (left, right float32) {
	if ch < 4 {
		return 0.7, 0.3
	}
	return 0.3, 0.7
}

func mixStereo(buffer AudioBuffer, frame int, sample int16, left, right float32) {
	buffer[frame*2] = addSaturating(buffer[frame*2], int16(float32(sample)*left))
	buffer[frame*2+1] = addSaturating(buffer[frame*2+1], int16(float32(sample)*right))
}

// addSaturating adds two samples, clipping the sum to the int16 range.
func addSaturating(a, b int16) int16 {
	sum := int32(a) + int32(b)
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}
	if sum < math.MinInt16 {
		return math.MinInt16
	}
	return int16(sum)
}

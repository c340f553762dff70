package gridtrack

import "math"

// ratioEpsilon is the threshold below which a pitch ratio is considered
// 1.0 and the source buffer is copied verbatim, avoiding needless
// interpolation loss.
const ratioEpsilon = 0.001

// Resample resamples a mono PCM buffer to the given pitch ratio using
// linear interpolation. The result has round(len(src) / ratio) samples:
// output sample i reads source position i*ratio, interpolating between the
// neighbouring source samples, with the upper index clamped to the last
// valid sample. The ratio is clamped to [0.5, 2.0] regardless of the
// requested value, bounding both runtime and audible artifacts.
//
// A nil result means the buffer could not be produced; callers should skip
// the sample rather than fail.
func Resample(src []int16, ratio float64) []int16 {
	if math.Abs(ratio-1.0) < ratioEpsilon {
		out := make([]int16, len(src))
		copy(out, src)
		return out
	}
	ratio = clampRatio(ratio)
	if len(src) == 0 {
		return nil
	}
	newLen := int(math.Round(float64(len(src)) / ratio))
	if newLen <= 0 {
		return nil
	}
	out := make([]int16, newLen)
	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		idx1 := int(srcPos)
		if idx1 > len(src)-1 {
			idx1 = len(src) - 1
		}
		idx2 := idx1 + 1
		if idx2 > len(src)-1 {
			idx2 = len(src) - 1
		}
		frac := srcPos - float64(idx1)
		sample := float64(src[idx1])*(1.0-frac) + float64(src[idx2])*frac
		out[i] = int16(sample)
	}
	return out
}

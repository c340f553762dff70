package gridtrack

import (
	"math"
	"testing"
)

func TestResampleNearUnityCopiesVerbatim(t *testing.T) {
	src := []int16{1, -2, 3, -4, 5}
	out := Resample(src, 1.0005)
	if len(out) != len(src) {
		t.Fatalf("got %d samples, expected %d", len(out), len(src))
	}
	for i := range src {
		if out[i] != src[i] {
			t.Fatalf("sample %d = %d, expected %d", i, out[i], src[i])
		}
	}
	out[0] = 99
	if src[0] != 1 {
		t.Errorf("output aliases the source buffer")
	}
}

func TestResampleOctaveUpHalvesLength(t *testing.T) {
	src := make([]int16, 100)
	for i := range src {
		src[i] = 1000
	}
	out := Resample(src, 2.0)
	if len(out) != 50 {
		t.Fatalf("got %d samples, expected 50", len(out))
	}
	for i, v := range out {
		if v != 1000 {
			t.Fatalf("sample %d = %d, expected 1000", i, v)
		}
	}
}

func TestResampleRoundTrip(t *testing.T) {
	// shifting up by r and back down by 1/r restores the buffer: the
	// length within rounding and the samples within the interpolation
	// error of a smooth signal
	src := make([]int16, 300)
	for i := range src {
		src[i] = int16(10000 * math.Sin(2*math.Pi*float64(i)/50))
	}
	up := Resample(src, 1.5)
	if len(up) != 200 {
		t.Fatalf("got %d samples after shifting up, expected 200", len(up))
	}
	down := Resample(up, 1.0/1.5)
	if diff := len(down) - len(src); diff < -1 || diff > 1 {
		t.Fatalf("round trip length %d, expected %d within rounding", len(down), len(src))
	}
	// the final samples interpolate against a clamped endpoint, so only
	// the interior is compared
	for i := 0; i < len(down)-2 && i < len(src)-2; i++ {
		if math.Abs(float64(down[i])-float64(src[i])) > 500 {
			t.Fatalf("sample %d = %d, expected about %d", i, down[i], src[i])
		}
	}
}

func TestResampleClampsRatio(t *testing.T) {
	src := make([]int16, 100)
	if got := len(Resample(src, 8.0)); got != 50 {
		t.Errorf("ratio 8.0: got %d samples, expected 50 (clamped to 2.0)", got)
	}
	if got := len(Resample(src, 0.01)); got != 200 {
		t.Errorf("ratio 0.01: got %d samples, expected 200 (clamped to 0.5)", got)
	}
}

func TestResampleLengthRounds(t *testing.T) {
	src := make([]int16, 3)
	// 3 / 2.0 = 1.5, which rounds to 2
	if got := len(Resample(src, 2.0)); got != 2 {
		t.Errorf("got %d samples, expected 2", got)
	}
}

func TestResampleInterpolates(t *testing.T) {
	out := Resample([]int16{0, 100}, 0.5)
	expected := []int16{0, 50, 100, 100}
	if len(out) != len(expected) {
		t.Fatalf("got %d samples, expected %d", len(out), len(expected))
	}
	for i := range expected {
		if math.Abs(float64(out[i]-expected[i])) > 1 {
			t.Errorf("sample %d = %d, expected %d", i, out[i], expected[i])
		}
	}
}

func TestResampleEmptySource(t *testing.T) {
	if out := Resample(nil, 1.5); out != nil {
		t.Errorf("expected nil for empty source, got %d samples", len(out))
	}
	if out := Resample(nil, 1.0); len(out) != 0 {
		t.Errorf("expected empty output for empty source at unity, got %d samples", len(out))
	}
}

package tracker

import (
	"math"
	"testing"

	"gridtrack"
)

func TestAnalyzeVolume(t *testing.T) {
	// left at half scale, right silent
	buffer := make(gridtrack.AudioBuffer, 2000)
	for i := 0; i < len(buffer); i += 2 {
		buffer[i] = 16384
	}
	v := AnalyzeVolume(buffer)
	if math.Abs(v.Peak[0]-0.5) > 1e-3 {
		t.Errorf("left peak = %v, expected 0.5", v.Peak[0])
	}
	if math.Abs(v.RMS[0]-0.5) > 1e-3 {
		t.Errorf("left RMS = %v, expected 0.5 for a constant signal", v.RMS[0])
	}
	if v.Peak[1] != 0 || v.RMS[1] != 0 {
		t.Errorf("right channel should be silent, got peak %v RMS %v", v.Peak[1], v.RMS[1])
	}
}

func TestAnalyzeVolumeEmpty(t *testing.T) {
	v := AnalyzeVolume(nil)
	if v.Peak[0] != 0 || v.RMS[0] != 0 {
		t.Errorf("empty buffer should measure as silence, got %+v", v)
	}
}

func TestDB(t *testing.T) {
	if got := DB(1); got != 0 {
		t.Errorf("DB(1) = %v, expected 0", got)
	}
	if got := DB(0); got != -96 {
		t.Errorf("DB(0) = %v, expected the -96 floor", got)
	}
	if got := DB(0.5); math.Abs(got-(-6.0206)) > 1e-3 {
		t.Errorf("DB(0.5) = %v, expected about -6.02", got)
	}
	if got := DB(1e-10); got != -96 {
		t.Errorf("DB(1e-10) = %v, expected the -96 floor", got)
	}
}

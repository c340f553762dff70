package gridtrack

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// constantLoader returns the same buffer for every path, so render tests do
// not need sample files on disk.
type constantLoader struct {
	buffer AudioBuffer
	err    error
}

func (l constantLoader) LoadPCM(path string) (AudioBuffer, error) {
	return l.buffer, l.err
}

func TestRenderRows(t *testing.T) {
	s := NewSong()
	if got := RenderRows(s); got != 16 {
		t.Errorf("without looping: %d rows, expected 16", got)
	}
	if err := s.SetLoop(true, 2, 5); err != nil {
		t.Fatal(err)
	}
	if got := RenderRows(s); got != 16 {
		t.Errorf("4 iterations of a 4-row loop: %d rows, expected 16", got)
	}
	if err := s.SetLoop(true, 0, 15); err != nil {
		t.Fatal(err)
	}
	if got := RenderRows(s); got != 64 {
		t.Errorf("4 iterations of the full grid: %d rows, expected 64", got)
	}
}

func TestRenderRowIndexStaysInLoop(t *testing.T) {
	s := NewSong()
	if err := s.SetLoop(true, 2, 5); err != nil {
		t.Fatal(err)
	}
	for row := 0; row < RenderRows(s); row++ {
		actual := renderRowIndex(s, row)
		if actual < 2 || actual > 5 {
			t.Fatalf("render row %d mapped to song row %d, outside the loop", row, actual)
		}
		if expected := 2 + row%4; actual != expected {
			t.Fatalf("render row %d mapped to song row %d, expected %d", row, actual, expected)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	s := NewSong()
	s.Tracks[0].Cells[0].Note = 69
	s.Tracks[5].Cells[3].Note = 72
	a, err := Render(s, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b, err := Render(s, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two renders of the same song differ")
	}
}

func TestRenderLength(t *testing.T) {
	s := NewSong() // 16 rows at 125 ms
	buffer, err := Render(s, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if expected := 16 * 5512 * 2; len(buffer) != expected {
		t.Errorf("got %d samples, expected %d", len(buffer), expected)
	}
}

func TestRenderTonePanning(t *testing.T) {
	s := NewSong()
	s.NumRows = 1
	for ch := range s.Tracks {
		s.Tracks[ch].Cells = s.Tracks[ch].Cells[:1]
	}
	s.LoopEnd = 0
	s.Tracks[0].Cells[0].Note = 69
	buffer, err := Render(s, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var left, right float64
	for i := 0; i < len(buffer); i += 2 {
		left += math.Abs(float64(buffer[i]))
		right += math.Abs(float64(buffer[i+1]))
	}
	if left <= right {
		t.Errorf("channel 0 should lean left: left energy %v, right %v", left, right)
	}
	// the same note on an upper channel leans the other way
	s.Tracks[0].Cells[0].Note = 0
	s.Tracks[5].Cells[0].Note = 69
	buffer, err = Render(s, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	left, right = 0, 0
	for i := 0; i < len(buffer); i += 2 {
		left += math.Abs(float64(buffer[i]))
		right += math.Abs(float64(buffer[i+1]))
	}
	if right <= left {
		t.Errorf("channel 5 should lean right: left energy %v, right %v", left, right)
	}
	if ratio := left / right; math.Abs(ratio-3.0/7.0) > 0.01 {
		t.Errorf("pan ratio = %v, expected 3/7", ratio)
	}
}

func TestRenderSaturates(t *testing.T) {
	s := NewSong()
	full := make(AudioBuffer, s.SamplesPerRow())
	for i := range full {
		full[i] = math.MaxInt16
	}
	s.Tracks[0].Cells[0] = Cell{Note: 60, OriginalNote: 60, Sample: "a.wav", PitchRatio: 1.0}
	s.Tracks[1].Cells[0] = Cell{Note: 60, OriginalNote: 60, Sample: "b.wav", PitchRatio: 1.0}
	buffer, err := Render(s, constantLoader{buffer: full})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// two full-scale samples at 0.7 left weight sum well past full scale
	if buffer[0] != math.MaxInt16 {
		t.Errorf("left sample = %d, expected saturation at %d", buffer[0], math.MaxInt16)
	}
}

func TestRenderSampleFailureIsSilent(t *testing.T) {
	s := NewSong()
	s.Tracks[0].Cells[0] = Cell{Note: 60, OriginalNote: 60, Sample: "missing.wav", PitchRatio: 1.0}
	buffer, err := Render(s, constantLoader{err: errors.New("no such file")})
	if err != nil {
		t.Fatalf("a missing sample must not fail the render: %v", err)
	}
	for i, v := range buffer {
		if v != 0 {
			t.Fatalf("sample %d = %d, expected silence", i, v)
		}
	}
}

func TestRenderSampleTruncatedToRow(t *testing.T) {
	s := NewSong()
	long := make(AudioBuffer, s.SamplesPerRow()*3)
	for i := range long {
		long[i] = 1000
	}
	s.Tracks[0].Cells[0] = Cell{Note: 60, OriginalNote: 60, Sample: "long.wav", PitchRatio: 1.0}
	buffer, err := Render(s, constantLoader{buffer: long})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	rowSamples := s.SamplesPerRow()
	if buffer[0] == 0 {
		t.Errorf("row 0 should sound")
	}
	if got := buffer[rowSamples*2]; got != 0 {
		t.Errorf("sample bled %d into row 1", got)
	}
}

func TestRenderRejectsInvalidSong(t *testing.T) {
	s := NewSong()
	s.BPM = 1000
	if _, err := Render(s, nil); !errors.Is(err, ErrInvalidBPM) {
		t.Errorf("Render of an invalid song = %v, expected ErrInvalidBPM", err)
	}
}

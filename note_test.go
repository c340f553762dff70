package gridtrack

import (
	"math"
	"testing"
)

func TestIndexToName(t *testing.T) {
	tests := []struct {
		note int
		name string
	}{
		{0, "---"},
		{-1, "---"},
		{128, "---"},
		{1, "C#-2"},
		{60, "C3"},
		{69, "A3"},
		{72, "C4"},
		{127, "G8"},
	}
	for _, test := range tests {
		if got := IndexToName(test.note); got != test.name {
			t.Errorf("IndexToName(%d) = %q, expected %q", test.note, got, test.name)
		}
	}
}

func TestNoteToIndex(t *testing.T) {
	tests := []struct {
		name string
		note int
	}{
		{"A3", 69},
		{"a3", 69},
		{"C#-2", 1},
		{" A3 ", 69},
		{"---", 0},
		{"", 0},
		{"H5", 0},
		{"A", 0},
	}
	for _, test := range tests {
		if got := NoteToIndex(test.name); got != test.note {
			t.Errorf("NoteToIndex(%q) = %d, expected %d", test.name, got, test.note)
		}
	}
}

func TestNoteNameRoundTrip(t *testing.T) {
	for note := 1; note < NumNotes; note++ {
		if got := NoteToIndex(IndexToName(note)); got != note {
			t.Fatalf("NoteToIndex(IndexToName(%d)) = %d", note, got)
		}
	}
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		note int
		freq float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{69 + 7, 440 * math.Pow(2, 7.0/12)},
	}
	for _, test := range tests {
		if got := Frequency(test.note); math.Abs(got-test.freq) > 1e-9 {
			t.Errorf("Frequency(%d) = %v, expected %v", test.note, got, test.freq)
		}
	}
}

func TestPitchRatio(t *testing.T) {
	tests := []struct {
		original, target int
		ratio            float64
	}{
		{60, 60, 1.0},
		{60, 72, 2.0},
		{60, 48, 0.5},
		{0, 60, 1.0},
		{60, 0, 1.0},
	}
	for _, test := range tests {
		if got := PitchRatio(test.original, test.target); math.Abs(got-test.ratio) > 1e-9 {
			t.Errorf("PitchRatio(%d, %d) = %v, expected %v", test.original, test.target, got, test.ratio)
		}
	}
}

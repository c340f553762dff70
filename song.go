package gridtrack

import (
	"errors"
	"fmt"
	"math"
)

// SampleRate is the fixed engine sample rate in Hz. Both the live voices and
// the offline renderer produce audio at this rate.
const SampleRate = 44100

// MaxChannels is the number of output channels and therefore the maximum
// width of the song grid; one voice pool slot exists per channel.
const MaxChannels = 8

const (
	// MinBPM and MaxBPM bound the tempos SetBPM accepts. A stored BPM of 0
	// is a sentinel meaning "use the fallback row duration".
	MinBPM = 20
	MaxBPM = 300

	// FallbackRowDurationMs is the row duration used when BPM is 0.
	FallbackRowDurationMs = 500

	// rowsPerBeat is baked into the tempo semantics: a row always lasts a
	// quarter of a beat. Changing this changes what BPM means.
	rowsPerBeat = 4
)

var (
	ErrInvalidBPM  = errors.New("BPM must be between 20 and 300")
	ErrInvalidLoop = errors.New("loop bounds must satisfy 0 <= start < end < rows")
)

type (
	// Song is a fixed-size grid of Tracks, one per output channel, plus the
	// tempo and an optional loop span. The engine reads the grid but never
	// mutates it, except for the tempo-derived duration cache in each cell.
	Song struct {
		Title       string
		BPM         int
		NumChannels int
		NumRows     int
		LoopStart   int
		LoopEnd     int
		LoopEnabled bool
		Tracks      []Track
	}

	// Track holds the cells of a single channel, one per row.
	Track struct {
		Cells []Cell
	}

	// Cell is one grid entry. Note 0 is a rest; 1..127 is a played pitch.
	// An empty Sample means the cell is synthesized as a tone. OriginalNote
	// is the pitch the sample was recorded at; PitchRatio is derived from
	// Note and OriginalNote and recomputed on load, never trusted from disk.
	Cell struct {
		Note         int
		OriginalNote int
		DurationMs   int     `yaml:"durationms,omitempty"`
		Sample       string  `yaml:",omitempty"`
		PitchRatio   float64 `yaml:"pitchratio,omitempty"`
	}
)

// NewSong returns an empty song in the default configuration: the full
// 8-channel grid, 16 rows, 120 BPM, looping off and every cell a rest with
// original note C3.
func NewSong() *Song {
	s := &Song{
		Title:       "gridtrack song",
		BPM:         120,
		NumChannels: MaxChannels,
		NumRows:     16,
		LoopEnd:     15,
	}
	s.Tracks = make([]Track, s.NumChannels)
	duration := s.RowDurationMs()
	for ch := range s.Tracks {
		s.Tracks[ch].Cells = make([]Cell, s.NumRows)
		for row := range s.Tracks[ch].Cells {
			s.Tracks[ch].Cells[row] = Cell{
				OriginalNote: 60, // C3
				DurationMs:   duration,
				PitchRatio:   1.0,
			}
		}
	}
	return s
}

// RowDurationMs returns the duration of one row in milliseconds for the
// given tempo: (60000 / bpm) / 4, i.e. four rows per beat. A bpm of 0
// yields the 500 ms fallback.
func RowDurationMs(bpm int) int {
	if bpm == 0 {
		return FallbackRowDurationMs
	}
	return (60000 / bpm) / rowsPerBeat
}

// RowDurationMs returns the duration of one row of this song in
// milliseconds.
func (s *Song) RowDurationMs() int {
	return RowDurationMs(s.BPM)
}

// SamplesPerRow returns the number of mono samples in one row at the engine
// sample rate.
func (s *Song) SamplesPerRow() int {
	return s.RowDurationMs() * SampleRate / 1000
}

// Cell returns the cell at the given channel and row. Out-of-range
// positions read as rests.
func (s *Song) Cell(channel, row int) Cell {
	if channel < 0 || channel >= len(s.Tracks) {
		return Cell{PitchRatio: 1.0}
	}
	cells := s.Tracks[channel].Cells
	if row < 0 || row >= len(cells) {
		return Cell{PitchRatio: 1.0}
	}
	return cells[row]
}

// SetBPM changes the tempo and refreshes the duration cache of every cell.
// Tempos outside 20..300 are rejected and the previous tempo is retained.
func (s *Song) SetBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return fmt.Errorf("%w: got %d", ErrInvalidBPM, bpm)
	}
	s.BPM = bpm
	s.UpdateDurations()
	return nil
}

// SetLoop enables looping over the inclusive row span [start, end], or
// disables looping when enabled is false. Malformed bounds are rejected and
// the previous loop configuration is retained.
func (s *Song) SetLoop(enabled bool, start, end int) error {
	if !enabled {
		s.LoopEnabled = false
		return nil
	}
	if start < 0 || start >= end || end >= s.NumRows {
		return fmt.Errorf("%w: got [%d, %d] with %d rows", ErrInvalidLoop, start, end, s.NumRows)
	}
	s.LoopEnabled = true
	s.LoopStart = start
	s.LoopEnd = end
	return nil
}

// UpdateDurations writes the current tempo-derived row duration into every
// cell's duration cache.
func (s *Song) UpdateDurations() {
	duration := s.RowDurationMs()
	for ch := range s.Tracks {
		for row := range s.Tracks[ch].Cells {
			s.Tracks[ch].Cells[row].DurationMs = duration
		}
	}
}

// UpdateRatios recomputes every cell's pitch ratio from its note pair. Used
// after loading a song, as cached ratios from a file are never trusted.
func (s *Song) UpdateRatios() {
	for ch := range s.Tracks {
		for row := range s.Tracks[ch].Cells {
			c := &s.Tracks[ch].Cells[row]
			c.PitchRatio = PitchRatio(c.OriginalNote, c.Note)
		}
	}
}

// Validate checks the structural invariants of the song: a sane grid, a
// tempo that is either the 0 sentinel or within bounds, and loop bounds
// inside the grid whenever looping is enabled.
func (s *Song) Validate() error {
	if s.BPM != 0 && (s.BPM < MinBPM || s.BPM > MaxBPM) {
		return fmt.Errorf("%w: got %d", ErrInvalidBPM, s.BPM)
	}
	if s.NumChannels < 1 || s.NumChannels > MaxChannels {
		return fmt.Errorf("song must have 1..%d channels, got %d", MaxChannels, s.NumChannels)
	}
	if s.NumRows < 1 {
		return fmt.Errorf("song must have at least one row, got %d", s.NumRows)
	}
	if len(s.Tracks) != s.NumChannels {
		return fmt.Errorf("song has %d tracks but claims %d channels", len(s.Tracks), s.NumChannels)
	}
	for ch := range s.Tracks {
		if len(s.Tracks[ch].Cells) != s.NumRows {
			return fmt.Errorf("channel %d has %d rows but song claims %d", ch, len(s.Tracks[ch].Cells), s.NumRows)
		}
	}
	if s.LoopEnabled && (s.LoopStart < 0 || s.LoopStart >= s.LoopEnd || s.LoopEnd >= s.NumRows) {
		return fmt.Errorf("%w: got [%d, %d] with %d rows", ErrInvalidLoop, s.LoopStart, s.LoopEnd, s.NumRows)
	}
	return nil
}

// Copy makes a deep copy of the Song.
func (s *Song) Copy() Song {
	tracks := make([]Track, len(s.Tracks))
	for i, t := range s.Tracks {
		cells := make([]Cell, len(t.Cells))
		copy(cells, t.Cells)
		tracks[i] = Track{Cells: cells}
	}
	ret := *s
	ret.Tracks = tracks
	return ret
}

// clampRatio bounds a pitch ratio to the range the resampler accepts,
// regardless of how far apart the note pair is.
func clampRatio(ratio float64) float64 {
	return math.Min(2.0, math.Max(0.5, ratio))
}

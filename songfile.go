package gridtrack

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError locates a malformed song-file field. Channel is -1 for header
// lines. A parse error aborts the entire load; no partial song state is
// ever returned.
type ParseError struct {
	Line    int
	Channel int
	Row     int
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Channel < 0 {
		return fmt.Sprintf("song file line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("song file line %d (channel %d, row %d): %s", e.Line, e.Channel, e.Row, e.Msg)
}

// ReadSong parses the plain-text song format: a free-text title line,
// BPM/Rows/Channels/Loop headers, then channels x rows cell lines of
// "<note> <original_note> <note_name> <sample_path>". The sample path may
// be empty. Pitch ratios are recomputed from the note pair; any cached
// ratio in the file is ignored.
func ReadSong(r io.Reader) (*Song, error) {
	scanner := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		line++
		return strings.TrimRight(scanner.Text(), "\r"), true
	}

	title, ok := next()
	if !ok {
		return nil, &ParseError{Line: 1, Channel: -1, Msg: "missing title line"}
	}
	s := &Song{Title: title}

	headers := []struct {
		format string
		dst    *int
	}{
		{"BPM: %d", &s.BPM},
		{"Rows: %d", &s.NumRows},
		{"Channels: %d", &s.NumChannels},
	}
	for _, h := range headers {
		text, ok := next()
		if !ok {
			return nil, &ParseError{Line: line + 1, Channel: -1, Msg: fmt.Sprintf("missing %q header", strings.TrimSuffix(h.format, " %d"))}
		}
		if _, err := fmt.Sscanf(text, h.format, h.dst); err != nil {
			return nil, &ParseError{Line: line, Channel: -1, Msg: fmt.Sprintf("malformed header %q", text)}
		}
	}
	text, ok := next()
	if !ok {
		return nil, &ParseError{Line: line + 1, Channel: -1, Msg: "missing \"Loop\" header"}
	}
	var loopEnabled int
	if _, err := fmt.Sscanf(text, "Loop: %d %d %d", &loopEnabled, &s.LoopStart, &s.LoopEnd); err != nil {
		return nil, &ParseError{Line: line, Channel: -1, Msg: fmt.Sprintf("malformed header %q", text)}
	}
	s.LoopEnabled = loopEnabled != 0

	if s.NumChannels < 1 || s.NumChannels > MaxChannels {
		return nil, &ParseError{Line: line, Channel: -1, Msg: fmt.Sprintf("channel count %d outside 1..%d", s.NumChannels, MaxChannels)}
	}
	if s.NumRows < 1 {
		return nil, &ParseError{Line: line, Channel: -1, Msg: fmt.Sprintf("row count %d must be positive", s.NumRows)}
	}

	s.Tracks = make([]Track, s.NumChannels)
	for ch := 0; ch < s.NumChannels; ch++ {
		s.Tracks[ch].Cells = make([]Cell, s.NumRows)
		for row := 0; row < s.NumRows; row++ {
			text, ok := next()
			if !ok {
				return nil, &ParseError{Line: line + 1, Channel: ch, Row: row, Msg: "unexpected end of file"}
			}
			cell, err := parseCell(text)
			if err != nil {
				return nil, &ParseError{Line: line, Channel: ch, Row: row, Msg: err.Error()}
			}
			s.Tracks[ch].Cells[row] = cell
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read song: %w", err)
	}
	s.UpdateRatios()
	s.UpdateDurations()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("song file is not a valid song: %w", err)
	}
	return s, nil
}

// parseCell parses "<note> <original_note> <note_name> <sample_path>". The
// note name is informational only; the integers are authoritative. The
// sample path is everything after the third field, so paths may contain
// spaces.
func parseCell(text string) (Cell, error) {
	parts := strings.SplitN(text, " ", 4)
	if len(parts) < 3 {
		return Cell{}, fmt.Errorf("expected at least 3 fields, got %d", len(parts))
	}
	note, err := strconv.Atoi(parts[0])
	if err != nil {
		return Cell{}, fmt.Errorf("malformed note %q", parts[0])
	}
	originalNote, err := strconv.Atoi(parts[1])
	if err != nil {
		return Cell{}, fmt.Errorf("malformed original note %q", parts[1])
	}
	if note < 0 || note >= NumNotes {
		return Cell{}, fmt.Errorf("note %d outside 0..%d", note, NumNotes-1)
	}
	if originalNote < 0 || originalNote >= NumNotes {
		return Cell{}, fmt.Errorf("original note %d outside 0..%d", originalNote, NumNotes-1)
	}
	var sample string
	if len(parts) == 4 {
		sample = strings.TrimSpace(parts[3])
	}
	return Cell{Note: note, OriginalNote: originalNote, Sample: sample}, nil
}

// WriteSong serializes the song in the plain-text format ReadSong reads.
func WriteSong(w io.Writer, s *Song) error {
	bw := bufio.NewWriter(w)
	title := s.Title
	if title == "" {
		title = "gridtrack song"
	}
	fmt.Fprintln(bw, title)
	fmt.Fprintf(bw, "BPM: %d\n", s.BPM)
	fmt.Fprintf(bw, "Rows: %d\n", s.NumRows)
	fmt.Fprintf(bw, "Channels: %d\n", s.NumChannels)
	loopEnabled := 0
	if s.LoopEnabled {
		loopEnabled = 1
	}
	fmt.Fprintf(bw, "Loop: %d %d %d\n", loopEnabled, s.LoopStart, s.LoopEnd)
	for ch := 0; ch < s.NumChannels; ch++ {
		for row := 0; row < s.NumRows; row++ {
			c := s.Cell(ch, row)
			line := fmt.Sprintf("%d %d %s %s", c.Note, c.OriginalNote, IndexToName(c.Note), c.Sample)
			fmt.Fprintln(bw, strings.TrimRight(line, " "))
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write song: %w", err)
	}
	return nil
}

// LoadSongFile loads a song from disk, picking the format from the file
// extension: .yml/.yaml files are YAML, everything else is the plain-text
// format.
func LoadSongFile(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read song file %v: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var s Song
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("could not unmarshal song file %v: %w", path, err)
		}
		s.UpdateRatios()
		s.UpdateDurations()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("song file %v is not a valid song: %w", path, err)
		}
		return &s, nil
	default:
		s, err := ReadSong(strings.NewReader(string(data)))
		if err != nil {
			return nil, fmt.Errorf("could not load %v: %w", path, err)
		}
		return s, nil
	}
}

// SaveSongFile writes a song to disk, picking the format from the file
// extension the same way LoadSongFile does.
func SaveSongFile(path string, s *Song) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var err error
		data, err = yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("could not marshal song: %w", err)
		}
	default:
		var buf strings.Builder
		if err := WriteSong(&buf, s); err != nil {
			return err
		}
		data = []byte(buf.String())
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write song file %v: %w", path, err)
	}
	return nil
}

package gridtrack

import (
	"fmt"
	"math"
	"strings"
)

// NumNotes is the size of the note table. Index 0 doubles as the rest
// marker, so the playable range is 1..127.
const NumNotes = 128

// RestName is the textual marker for a rest (or an unknown note).
const RestName = "---"

const referenceNote = 69 // 440 Hz

var chromatic = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteNames spans ten-and-a-bit octaves from C-2 to G8, so that index 69
// lands on the 440 Hz reference pitch.
var noteNames = func() [NumNotes]string {
	var names [NumNotes]string
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", chromatic[i%12], i/12-2)
	}
	return names
}()

// NoteToIndex returns the pitch index for a note name like "C4" or "A#3".
// The comparison is case-insensitive. The rest marker, an empty string and
// any unrecognized name all return 0; callers cannot distinguish a typo from
// a rest and should treat both as silence.
func NoteToIndex(name string) int {
	name = strings.TrimSpace(name)
	if name == "" || name == RestName {
		return 0
	}
	for i, n := range noteNames {
		if strings.EqualFold(name, n) {
			return i
		}
	}
	return 0
}

// IndexToName returns the note name for a pitch index, or the rest marker
// for anything outside 1..127.
func IndexToName(note int) string {
	if note <= 0 || note >= NumNotes {
		return RestName
	}
	return noteNames[note]
}

// Frequency returns the frequency in Hz of a pitch index, with index 69
// tuned to 440 Hz.
func Frequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-referenceNote)/12)
}

// PitchRatio returns the playback-speed multiplier for shifting a sample
// recorded at originalNote so that it sounds at targetNote. Returns 1.0 if
// either note is a rest.
func PitchRatio(originalNote, targetNote int) float64 {
	if originalNote <= 0 || targetNote <= 0 {
		return 1.0
	}
	return math.Pow(2, float64(targetNote-originalNote)/12)
}

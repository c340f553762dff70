package tracker

import (
	"context"
	"fmt"
	"time"

	"gridtrack"
)

// graceDelay is how long the driver waits between marking the previous
// row's voices inactive and triggering the next row's voices. Voices that
// overlap a row boundary are bounded by this delay.
const graceDelay = 10 * time.Millisecond

type (
	// StartPlayMsg starts playback from the given row.
	StartPlayMsg struct{ Row int }
	// StopPlayMsg stops playback and retires all voices.
	StopPlayMsg struct{}
	// PlayRowMsg plays a single row and returns to idle.
	PlayRowMsg struct{ Row int }
	// BPMMsg changes the tempo. Out-of-range tempos are rejected with an
	// alert and the previous tempo is kept.
	BPMMsg struct{ BPM int }
	// SongMsg replaces the song being played.
	SongMsg struct{ Song gridtrack.Song }
)

// Player is the live scheduler: a driver goroutine that advances through
// song rows at the tempo-derived rate, triggering and retiring voices in
// its pool. It is controlled entirely by messages on the broker's ToPlayer
// channel, which it polls once per row boundary; cancellation is
// cooperative, never pre-emptive mid-row.
type Player struct {
	broker *Broker
	pool   *VoicePool

	song    gridtrack.Song
	playing bool
	row     int
	loops   int
}

func NewPlayer(broker *Broker, audioContext gridtrack.AudioContext, loader gridtrack.SampleLoader) *Player {
	p := &Player{broker: broker}
	// Voice alerts fire on detached voice goroutines, which must not touch
	// the driver-owned position fields; the alert travels bare and the
	// position fields stay zero.
	p.pool = NewVoicePool(audioContext, loader, func(a Alert) {
		TrySend(broker.ToModel, MsgToModel{Data: a})
	})
	return p
}

// Pool exposes the player's voice pool, mainly so a control surface can
// inspect voice liveness.
func (p *Player) Pool() *VoicePool { return p.pool }

// Run is the driver loop. It returns when ctx is cancelled; the context is
// checked once per row boundary, so stopping can lag by up to one row
// duration plus the voices' own advisory-stop latency.
func (p *Player) Run(ctx context.Context) {
	for {
		if !p.playing {
			select {
			case <-ctx.Done():
				p.pool.StopAll()
				return
			case msg := <-p.broker.ToPlayer:
				p.handleMessage(msg)
			}
			continue
		}
		p.playRow(p.row)
		select {
		case <-ctx.Done():
			p.stop()
			return
		case <-time.After(time.Duration(p.song.RowDurationMs()) * time.Millisecond):
		}
		p.drainMessages()
		if p.playing {
			p.advanceRow()
		}
	}
}

// NextRow returns the row the scheduler moves to after the given one: the
// loop start when looping wraps past the loop end, otherwise the next row,
// with done set once the end of the song is reached without looping.
func NextRow(s *gridtrack.Song, row int) (next int, wrapped bool, done bool) {
	row++
	if s.LoopEnabled && row > s.LoopEnd {
		return s.LoopStart, true, false
	}
	if row >= s.NumRows {
		return row, false, true
	}
	return row, false, false
}

func (p *Player) advanceRow() {
	next, wrapped, done := NextRow(&p.song, p.row)
	if done {
		p.stop()
		return
	}
	p.row = next
	if wrapped {
		// The loop counter is diagnostics only.
		p.loops++
		p.send(nil)
	}
}

// playRow retires the previous row's voices, waits the grace delay, then
// triggers a voice for every channel whose cell sounds on this row.
func (p *Player) playRow(row int) {
	p.pool.StopAll()
	time.Sleep(graceDelay)
	durationMs := p.song.RowDurationMs()
	for ch := 0; ch < p.song.NumChannels; ch++ {
		cell := p.song.Cell(ch, row)
		if cell.Note <= 0 {
			continue
		}
		if cell.Sample != "" {
			p.pool.TriggerSample(ch, cell.Sample, cell.PitchRatio, durationMs)
		} else {
			p.pool.TriggerTone(ch, gridtrack.Frequency(cell.Note), durationMs)
		}
	}
	p.send(nil)
}

func (p *Player) handleMessage(msg any) {
	switch m := msg.(type) {
	case SongMsg:
		p.song = m.Song
		if p.row >= p.song.NumRows {
			p.row = 0
		}
	case StartPlayMsg:
		if len(p.song.Tracks) == 0 {
			p.sendAlert("Player", "no song loaded", Error)
			return
		}
		p.pool.StopAll()
		p.playing = true
		p.loops = 0
		p.row = m.Row
		if p.row < 0 || p.row >= p.song.NumRows {
			p.row = 0
		}
		p.send(nil)
	case StopPlayMsg:
		p.stop()
	case PlayRowMsg:
		if p.playing {
			return
		}
		row := m.Row
		if row < 0 || row >= p.song.NumRows {
			return
		}
		p.playRow(row)
		time.Sleep(time.Duration(p.song.RowDurationMs()) * time.Millisecond)
		p.pool.StopAll()
		p.send(nil)
	case BPMMsg:
		if err := p.song.SetBPM(m.BPM); err != nil {
			p.sendAlert("BPM", fmt.Sprintf("tempo unchanged: %v", err), Warning)
		}
	default:
		// ignore unknown messages
	}
}

func (p *Player) drainMessages() {
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			p.handleMessage(msg)
		default:
			return
		}
	}
}

func (p *Player) stop() {
	p.playing = false
	p.pool.StopAll()
	p.send(nil)
}

// send reports the player position to the model side; it never blocks.
func (p *Player) send(data any) {
	TrySend(p.broker.ToModel, MsgToModel{Playing: p.playing, Row: p.row, Loops: p.loops, Data: data})
}

func (p *Player) sendAlert(name, message string, priority AlertPriority) {
	p.send(Alert{Name: name, Message: message, Priority: priority})
}

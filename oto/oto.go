package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"gridtrack"
)

// Context is an oto-backed gridtrack.AudioContext. Every Output() is an
// independent mono stream; oto mixes them, which is how up to eight voices
// sound at once.
type Context struct {
	ctx *oto.Context
}

// otoBufferSize is how much audio oto buffers ahead per player. It is
// longer than the longest possible row, so enqueueing a row's audio does
// not block the voice goroutine.
const otoBufferSize = time.Second

func NewContext() (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   gridtrack.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   otoBufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Close implements gridtrack.AudioContext. An oto context cannot actually
// be closed; it lives for the rest of the process.
func (c *Context) Close() error {
	return nil
}

func (c *Context) Output() gridtrack.AudioSink {
	pr, pw := io.Pipe()
	player := c.ctx.NewPlayer(pr)
	player.Play()
	return &output{pr: pr, pw: pw, player: player, tmpBuffer: make([]byte, 0)}
}

type output struct {
	pr        *io.PipeReader
	pw        *io.PipeWriter
	player    *oto.Player
	tmpBuffer []byte
}

func (o *output) WriteAudio(buffer gridtrack.AudioBuffer) error {
	// reuse the old capacity of tmpBuffer by setting its length to zero,
	// then keep the result around for the next write
	o.tmpBuffer = Int16BufferToLE(buffer, o.tmpBuffer[:0])
	if _, err := o.pw.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

func (o *output) Close() error {
	o.pw.Close()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

package tracker

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gridtrack"
)

// toneLiveAmplitude is the amplitude of live synthesized tones. Live voices
// play full scale; the offline renderer attenuates instead, matching the
// original engine.
const toneLiveAmplitude = 1.0

type voiceKind int

const (
	toneVoice voiceKind = iota
	sampleVoice
)

type (
	// VoicePool is a fixed set of playback slots, one per output channel.
	// Each slot holds at most one live voice. Triggering a slot marks any
	// previous voice inactive (a cooperative, advisory stop: a voice only
	// observes it after its own playback wait) and spawns a new detached
	// voice goroutine. One mutex guards every slot field; both the driver
	// and the voice bodies hold it for the duration of each access.
	VoicePool struct {
		mu      sync.Mutex
		slots   [gridtrack.MaxChannels]voiceSlot
		context gridtrack.AudioContext
		loader  gridtrack.SampleLoader
		alert   func(Alert)
	}

	voiceSlot struct {
		active     bool
		generation uint64 // which spawned voice currently owns the slot
		kind       voiceKind
		freq       float64
		sample     string
		pitchRatio float64
		durationMs int
	}
)

// NewVoicePool creates a pool playing through the given audio context.
// loader defaults to WavFileLoader and alert may be nil to drop
// diagnostics.
func NewVoicePool(context gridtrack.AudioContext, loader gridtrack.SampleLoader, alert func(Alert)) *VoicePool {
	if loader == nil {
		loader = gridtrack.WavFileLoader{}
	}
	if alert == nil {
		alert = func(Alert) {}
	}
	return &VoicePool{context: context, loader: loader, alert: alert}
}

// StopAll marks every voice inactive. The stop is advisory; an in-flight
// voice finishes its current wait before observing it.
func (p *VoicePool) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		p.slots[i].active = false
	}
}

// Active reports whether the slot currently holds a live voice.
func (p *VoicePool) Active(channel int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if channel < 0 || channel >= len(p.slots) {
		return false
	}
	return p.slots[channel].active
}

// ActiveCount returns the number of slots holding a live voice.
func (p *VoicePool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for i := range p.slots {
		if p.slots[i].active {
			count++
		}
	}
	return count
}

// TriggerTone starts a sine-tone voice on the slot, pre-empting any voice
// already there.
func (p *VoicePool) TriggerTone(channel int, freq float64, durationMs int) {
	if channel < 0 || channel >= len(p.slots) {
		return
	}
	p.mu.Lock()
	p.slots[channel].generation++
	generation := p.slots[channel].generation
	p.slots[channel].kind = toneVoice
	p.slots[channel].freq = freq
	p.slots[channel].durationMs = durationMs
	p.slots[channel].active = true
	p.mu.Unlock()
	go p.runToneVoice(channel, generation)
}

// TriggerSample starts a sample-playback voice on the slot, pre-empting any
// voice already there.
func (p *VoicePool) TriggerSample(channel int, sample string, pitchRatio float64, durationMs int) {
	if channel < 0 || channel >= len(p.slots) {
		return
	}
	p.mu.Lock()
	p.slots[channel].generation++
	generation := p.slots[channel].generation
	p.slots[channel].kind = sampleVoice
	p.slots[channel].sample = sample
	p.slots[channel].pitchRatio = pitchRatio
	p.slots[channel].durationMs = durationMs
	p.slots[channel].active = true
	p.mu.Unlock()
	go p.runSampleVoice(channel, generation)
}

// finish clears the liveness flag, but only if the voice still owns the
// slot; a newer voice may have been triggered on it meanwhile.
func (p *VoicePool) finish(channel int, generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slots[channel].generation == generation {
		p.slots[channel].active = false
	}
}

func (p *VoicePool) runToneVoice(channel int, generation uint64) {
	defer p.finish(channel, generation)
	p.mu.Lock()
	freq := p.slots[channel].freq
	durationMs := p.slots[channel].durationMs
	active := p.slots[channel].active && p.slots[channel].generation == generation
	p.mu.Unlock()
	if freq == 0 || !active {
		return
	}
	samples := durationMs * gridtrack.SampleRate / 1000
	buffer := make(gridtrack.AudioBuffer, samples)
	for i := range buffer {
		buffer[i] = int16(math.MaxInt16 * toneLiveAmplitude * math.Sin(2*math.Pi*freq*float64(i)/gridtrack.SampleRate))
	}
	p.play(channel, buffer, durationMs)
}

func (p *VoicePool) runSampleVoice(channel int, generation uint64) {
	defer p.finish(channel, generation)
	p.mu.Lock()
	sample := p.slots[channel].sample
	pitchRatio := p.slots[channel].pitchRatio
	durationMs := p.slots[channel].durationMs
	active := p.slots[channel].active && p.slots[channel].generation == generation
	p.mu.Unlock()
	if sample == "" || !active {
		return
	}
	data, err := p.loader.LoadPCM(sample)
	if err != nil {
		// The voice is abandoned; the row plays on without it.
		p.alert(Alert{Name: "SampleLoad", Message: fmt.Sprintf("could not load sample: %v", err), Priority: Warning})
		return
	}
	if math.Abs(pitchRatio-1.0) > 0.001 {
		data = gridtrack.Resample(data, pitchRatio)
		if len(data) == 0 {
			return
		}
	}
	// A higher pitch plays the sample faster, so the apparent duration
	// shrinks by the same ratio.
	playMs := durationMs
	if pitchRatio > 0 {
		playMs = int(float64(durationMs) / pitchRatio)
	}
	p.play(channel, data, playMs)
}

// play enqueues the buffer on a fresh sink and then waits out the playback
// duration. The wait is timer based, not sample accurate, and it is only
// after the wait that the voice checks in again; this is what makes stops
// advisory.
func (p *VoicePool) play(channel int, buffer gridtrack.AudioBuffer, durationMs int) {
	if p.context == nil {
		return
	}
	sink := p.context.Output()
	if sink == nil {
		return
	}
	defer sink.Close()
	if err := sink.WriteAudio(buffer); err != nil {
		p.alert(Alert{Name: "AudioWrite", Message: fmt.Sprintf("channel %d: %v", channel, err), Priority: Error})
		return
	}
	time.Sleep(time.Duration(durationMs) * time.Millisecond)
}

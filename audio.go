package gridtrack

// AudioBuffer is interleaved 16-bit PCM. The offline renderer produces
// stereo buffers (left, right, left, right, ...); live voices and loaded
// samples are mono streams.
type AudioBuffer []int16

// AudioSink is something that can play PCM buffers, typically one output
// stream of an audio device.
type AudioSink interface {
	WriteAudio(buffer AudioBuffer) error
	Close() error
}

// AudioContext is the external audio output abstraction: it hands out
// independent sinks that are mixed by the backend. Each live voice enqueues
// its audio to its own sink.
type AudioContext interface {
	Output() AudioSink
	Close() error
}

// SampleLoader loads the PCM contents of a sample file. Implementations
// return the raw 16-bit sample stream; the engine treats it as mono.
type SampleLoader interface {
	LoadPCM(path string) (AudioBuffer, error)
}

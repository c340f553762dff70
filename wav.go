package gridtrack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Wav wraps an interleaved stereo 16-bit buffer in a canonical 44-byte PCM
// WAV container: RIFF/WAVE/fmt /data chunks, format tag 1, 2 channels,
// 16 bits per sample, 44100 Hz.
func Wav(buffer AudioBuffer) ([]byte, error) {
	buf := new(bytes.Buffer)
	wavHeader(len(buffer), buf)
	if err := binary.Write(buf, binary.LittleEndian, []int16(buffer)); err != nil {
		return nil, fmt.Errorf("Wav failed: %v", err)
	}
	return buf.Bytes(), nil
}

// wavHeader writes a PCM wave header into the bytes.Buffer. bufferLength is
// the total number of int16 samples (both channels); the data size is
// bufferLength * 2 bytes and the RIFF chunk size is the data size + 36.
func wavHeader(bufferLength int, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const (
		numChannels    = 2
		bytesPerSample = 2
	)
	dataSize := bufferLength * bytesPerSample
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(dataSize+36))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(16))                                       // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))                                        // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))                              //
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))                               //
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate*numChannels*bytesPerSample))    // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))               // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                         // bits per sample
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
}

// ParseWav extracts the raw 16-bit PCM sample stream and the sample rate
// from a WAV file. Only uncompressed 16-bit PCM is accepted. The samples are
// returned as a flat stream regardless of the file's channel count; sample
// playback treats them as mono, the way the original tracker treated loaded
// chunks.
func ParseWav(data []byte) (AudioBuffer, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE file")
	}
	var sampleRate int
	var fmtSeen bool
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("malformed fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("unsupported WAV encoding: format %d, %d bits", format, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			fmtSeen = true
		case "data":
			if !fmtSeen {
				return nil, 0, errors.New("data chunk before fmt chunk")
			}
			samples := make(AudioBuffer, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(data[body+i*2 : body+i*2+2]))
			}
			return samples, sampleRate, nil
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}
	return nil, 0, errors.New("no data chunk found")
}

// WavFileLoader loads samples from WAV files on disk.
type WavFileLoader struct{}

func (WavFileLoader) LoadPCM(path string) (AudioBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read sample %v: %w", path, err)
	}
	samples, _, err := ParseWav(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse sample %v: %w", path, err)
	}
	return samples, nil
}

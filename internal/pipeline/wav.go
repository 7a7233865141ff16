package pipeline

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavPCM holds decoded audio ready for the speech model.
type wavPCM struct {
	samples    []float32
	sampleRate int
	channels   int
}

// readPCM16WAV decodes a 16-bit PCM WAV file into normalized float32 samples.
// It walks RIFF chunks rather than assuming the 44-byte canonical layout, and
// tolerates a data chunk cut short by an interrupted capture process.
func readPCM16WAV(path string) (wavPCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wavPCM{}, fmt.Errorf("read recording: %w", err)
	}

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return wavPCM{}, fmt.Errorf("recording %s is not a RIFF/WAVE file", path)
	}

	var (
		pcm        wavPCM
		haveFormat bool
		haveData   bool
		raw        []byte
	)

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]
		if chunkLen > len(body) {
			// The capture process was killed mid-write; use what landed.
			chunkLen = len(body)
		}
		body = body[:chunkLen]

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return wavPCM{}, fmt.Errorf("recording %s has a short fmt chunk", path)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != 1 {
				return wavPCM{}, fmt.Errorf("recording %s uses unsupported audio format %d (want PCM)", path, format)
			}
			bits := binary.LittleEndian.Uint16(body[14:16])
			if bits != 16 {
				return wavPCM{}, fmt.Errorf("recording %s has %d-bit samples (want 16)", path, bits)
			}
			pcm.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			pcm.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFormat = true
		case "data":
			raw = body
			haveData = true
		}

		// Chunks are word-aligned.
		offset += 8 + chunkLen
		if chunkLen%2 == 1 {
			offset++
		}
	}

	if !haveFormat || !haveData {
		return wavPCM{}, fmt.Errorf("recording %s is missing fmt or data chunk", path)
	}
	if pcm.channels < 1 {
		return wavPCM{}, fmt.Errorf("recording %s reports %d channels", path, pcm.channels)
	}

	raw = raw[:len(raw)-len(raw)%2]
	frames := len(raw) / 2 / pcm.channels
	pcm.samples = make([]float32, 0, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < pcm.channels; c++ {
			sample := int16(binary.LittleEndian.Uint16(raw[(i*pcm.channels+c)*2:]))
			sum += float32(sample) / 32768
		}
		pcm.samples = append(pcm.samples, sum/float32(pcm.channels))
	}
	return pcm, nil
}

// writePCM16WAV writes raw little-endian PCM bytes with a minimal WAV header.
// Used by tests and debug dumps; the layout matches what capture tools emit.
func writePCM16WAV(file io.Writer, pcm []byte, sampleRate int, channels int) error {
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := file.Write(header); err != nil {
		return err
	}
	_, err := file.Write(pcm)
	return err
}

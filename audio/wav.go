package audio

import (
	"bytes"
	"encoding/binary"
)

// Capture format: 16kHz mono signed 16-bit little-endian PCM.
const (
	SampleRate     = 16000
	Channels       = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// EncodeWAV wraps raw little-endian PCM bytes in a minimal WAV container.
func EncodeWAV(pcm []byte, sampleRate int, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const wavFormatPCM = 1

// wavFormat is the fmt chunk subset talker can play.
type wavFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// decodeWAV walks RIFF chunks and returns the fmt description and raw PCM.
func decodeWAV(wav []byte) (wavFormat, []byte, error) {
	if len(wav) < 12 {
		return wavFormat{}, nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return wavFormat{}, nil, errors.New("not a valid WAV file")
	}

	var (
		format    wavFormat
		sawFormat bool
	)
	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		size := binary.LittleEndian.Uint32(wav[pos+4 : pos+8])
		start := pos + 8
		// Clamp before converting so a huge size cannot wrap int on 32-bit targets.
		chunkSize := len(wav) - start
		if uint64(size) < uint64(chunkSize) {
			chunkSize = int(size)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || start+16 > len(wav) {
				return wavFormat{}, nil, errors.New("truncated fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(wav[start : start+2])
			if audioFormat != wavFormatPCM {
				return wavFormat{}, nil, fmt.Errorf("unsupported WAV encoding %d", audioFormat)
			}
			format = wavFormat{
				Channels:      int(binary.LittleEndian.Uint16(wav[start+2 : start+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(wav[start+4 : start+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(wav[start+14 : start+16])),
			}
			sawFormat = true
		case "data":
			if !sawFormat {
				return wavFormat{}, nil, errors.New("data chunk before fmt chunk")
			}
			return format, wav[start : start+chunkSize], nil
		}

		pos = start + chunkSize
		// Chunks are word-aligned.
		if size%2 != 0 {
			pos++
		}
	}

	return wavFormat{}, nil, errors.New("data chunk not found in WAV")
}

// int16Samples converts little-endian 16-bit PCM to samples.
func int16Samples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return samples
}

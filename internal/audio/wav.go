package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PCMFormat describes raw little-endian PCM samples
type PCMFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultPCMFormat is what the Gemini speech models return
var DefaultPCMFormat = PCMFormat{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

// ParsePCMMimeType reads the sample rate from a MIME type such as
// "audio/L16;codec=pcm;rate=24000"
func ParsePCMMimeType(mimeType string) PCMFormat {
	format := DefaultPCMFormat
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || strings.ToLower(key) != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			format.SampleRate = rate
		}
	}
	if strings.HasPrefix(strings.ToLower(mimeType), "audio/l8") {
		format.BitsPerSample = 8
	}
	return format
}

// WriteWAV writes pcm to w wrapped in a canonical 44-byte RIFF/WAVE header
func WriteWAV(w io.Writer, pcm []byte, format PCMFormat) error {
	if format.SampleRate <= 0 || format.Channels <= 0 || format.BitsPerSample <= 0 {
		return fmt.Errorf("invalid PCM format: %+v", format)
	}

	blockAlign := format.Channels * format.BitsPerSample / 8
	byteRate := format.SampleRate * blockAlign
	dataSize := uint32(len(pcm))

	header := []interface{}{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36) + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		uint16(format.Channels),
		uint32(format.SampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(format.BitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write WAV header: %w", err)
		}
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	return nil
}

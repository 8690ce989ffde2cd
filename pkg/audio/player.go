// Package audio plays the alert chime through oto.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// ErrNotWAV is returned for data without a RIFF/WAVE header
var ErrNotWAV = errors.New("not a WAV file")

// Global audio context singleton; oto allows one per process
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	globalAudioCtxErr  error
)

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// initAudioContext initializes the global audio context once. Later calls
// reuse the first format.
func initAudioContext(format *wavFormat) error {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			globalAudioCtxErr = fmt.Errorf("failed to initialize audio context: %w", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan
		globalAudioCtx = ctx
	})
	return globalAudioCtxErr
}

// Chime plays a short WAV file once per call. An empty path disables it.
type Chime struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	loaded  bool
	format  *wavFormat
	samples []byte
}

// NewChime creates a chime for the WAV file at path
func NewChime(path string, logger *zap.Logger) *Chime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chime{path: path, logger: logger}
}

// Play starts playback in the background and returns immediately
func (c *Chime) Play() {
	if c == nil || c.path == "" {
		return
	}

	format, samples, err := c.load()
	if err != nil {
		c.logger.Warn("Chime unavailable", zap.String("path", c.path), zap.Error(err))
		return
	}
	if err := initAudioContext(format); err != nil {
		c.logger.Warn("Audio output unavailable", zap.Error(err))
		return
	}

	go c.playOnce(samples)
}

// load reads and parses the file on first use
func (c *Chime) load() (*wavFormat, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.format, c.samples, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil, err
	}
	format, samples, err := parseWAV(data)
	if err != nil {
		return nil, nil, err
	}
	if format.BitDepth != 16 {
		return nil, nil, fmt.Errorf("unsupported bit depth %d, need 16", format.BitDepth)
	}

	c.format, c.samples, c.loaded = format, samples, true
	return format, samples, nil
}

func (c *Chime) playOnce(samples []byte) {
	player := globalAudioCtx.NewPlayer(bytes.NewReader(samples))
	player.Play()

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	if err := player.Close(); err != nil {
		c.logger.Debug("Failed to close audio player", zap.Error(err))
	}
}

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, nil, ErrNotWAV
	}
	reader := bytes.NewReader(data[12:])

	format := &wavFormat{}
	for {
		chunkID := make([]byte, 4)
		if _, err := io.ReadFull(reader, chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(reader, binary.LittleEndian, &fmtChunk); err != nil {
				return nil, nil, err
			}
			format.Channels = int(fmtChunk.Channels)
			format.SampleRate = int(fmtChunk.SampleRate)
			format.BitDepth = int(fmtChunk.BitsPerSample)

			// Skip any extra format bytes
			if chunkSize > 16 {
				reader.Seek(int64(chunkSize-16), io.SeekCurrent)
			}
		case "data":
			if format.SampleRate == 0 {
				return nil, nil, fmt.Errorf("%w: data before fmt chunk", ErrNotWAV)
			}
			audioData := make([]byte, chunkSize)
			n, err := io.ReadFull(reader, audioData)
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, err
			}
			return format, audioData[:n], nil
		default:
			// Skip unknown chunk
			reader.Seek(int64(chunkSize), io.SeekCurrent)
		}
	}
}

package mpeg

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/gen2brain/mpeg"
	"go.uber.org/zap"
)

// maxEmptyDecodes bounds how many consecutive DecodeVideo calls may return no
// frame before the stream is treated as stalled.
const maxEmptyDecodes = 1024

// Opener decodes MPEG-1 program streams in-process, without an ffmpeg binary.
type Opener struct {
	logger *zap.Logger
}

func NewOpener(logger *zap.Logger) *Opener {
	return &Opener{logger: logger}
}

func (o *Opener) Open(ctx context.Context, path string) (port.VideoSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}

	mpg, err := mpeg.New(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read mpeg headers: %w", err)
	}
	mpg.SetAudioEnabled(false)

	rate := mpg.Framerate()
	if !(rate > 0) || mpg.Width() <= 0 || mpg.Height() <= 0 {
		file.Close()
		return nil, fmt.Errorf("no mpeg-1 video stream in %s", path)
	}

	count := int(math.Round(mpg.Duration().Seconds() * rate))

	o.logger.Debug("mpeg decoder opened",
		zap.String("path", path),
		zap.Int("width", mpg.Width()),
		zap.Int("height", mpg.Height()),
		zap.Float64("frame_rate", rate),
		zap.Int("frame_count", count),
	)

	return &Source{file: file, mpg: mpg, rate: rate, count: max(count, 0)}, nil
}

type Source struct {
	file  *os.File
	mpg   *mpeg.MPEG
	rate  float64
	count int
}

func (s *Source) FrameCount() int    { return s.count }
func (s *Source) FrameRate() float64 { return s.rate }

// ReadFrame returns a view over the decoder's frame buffer; it stays valid only
// until the next call.
func (s *Source) ReadFrame(ctx context.Context) (image.Image, error) {
	for empty := 0; ; empty++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if frame := s.mpg.DecodeVideo(); frame != nil {
			return frame.YCbCr(), nil
		}
		if s.mpg.HasEnded() {
			return nil, io.EOF
		}
		if empty >= maxEmptyDecodes {
			return nil, fmt.Errorf("decoder stalled after %d empty reads", empty)
		}
	}
}

func (s *Source) Close() error {
	return s.file.Close()
}

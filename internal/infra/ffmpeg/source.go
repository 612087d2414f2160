package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const stderrTailSize = 2048

// Opener probes a file with ffprobe and streams its first video stream out of
// an ffmpeg child process as raw RGBA frames.
type Opener struct {
	probeTimeout time.Duration
	logger       *zap.Logger
}

func NewOpener(probeTimeout time.Duration, logger *zap.Logger) *Opener {
	return &Opener{probeTimeout: probeTimeout, logger: logger}
}

func (o *Opener) Open(ctx context.Context, path string) (port.VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := ffmpeg.ProbeWithTimeout(path, o.probeTimeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	info, err := parseProbe(raw)
	if err != nil {
		return nil, err
	}

	cmd := ffmpeg.
		Input(path, ffmpeg.KwArgs{"loglevel": "error"}).
		Output("pipe:", ffmpeg.KwArgs{
			"map":     "0:v:0",
			"format":  "rawvideo",
			"pix_fmt": "rgba",
			"vsync":   "passthrough",
		}).
		Compile()

	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	o.logger.Debug("ffmpeg decoder started",
		zap.String("path", path),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("frame_rate", info.FrameRate),
		zap.Int("frame_count", info.FrameCount),
	)

	return &Source{info: info, cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type Source struct {
	info   videoInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	ended   bool
	waited  bool
	waitErr error
}

func (s *Source) FrameCount() int    { return s.info.FrameCount }
func (s *Source) FrameRate() float64 { return s.info.FrameRate }

func (s *Source) ReadFrame(ctx context.Context) (image.Image, error) {
	if s.ended {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	_, err := io.ReadFull(s.stdout, img.Pix)
	switch {
	case err == nil:
		return img, nil
	case errors.Is(err, io.EOF):
		s.ended = true
		if err := s.wait(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.ended = true
		_ = s.wait()
		return nil, fmt.Errorf("truncated frame: %w%s", err, s.stderr.suffix())
	default:
		return nil, fmt.Errorf("read frame: %w", err)
	}
}

// Close stops ffmpeg if the stream was not read to the end and reaps it.
func (s *Source) Close() error {
	if s.waited {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.waited = true
	_ = s.cmd.Wait()
	return nil
}

func (s *Source) wait() error {
	if s.waited {
		return s.waitErr
	}
	s.waited = true
	if err := s.cmd.Wait(); err != nil {
		s.waitErr = fmt.Errorf("ffmpeg exited: %w%s", err, s.stderr.suffix())
	}
	return s.waitErr
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

func (b *tailBuffer) suffix() string {
	if s := b.String(); s != "" {
		return ": " + s
	}
	return ""
}

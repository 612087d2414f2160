package decoder

import (
	"fmt"
	"strings"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/mpeg"
	"go.uber.org/zap"
)

const (
	FFmpeg = "ffmpeg"
	MPEG   = "mpeg"
)

// Names lists the accepted backend names.
var Names = []string{FFmpeg, MPEG}

type Options struct {
	ProbeTimeout time.Duration
}

// NewOpener returns the SourceOpener registered under name.
func NewOpener(name string, opts Options, logger *zap.Logger) (port.SourceOpener, error) {
	log := logger.With(zap.String("decoder", name))
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FFmpeg:
		timeout := opts.ProbeTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return ffmpeg.NewOpener(timeout, log), nil
	case MPEG:
		return mpeg.NewOpener(log), nil
	}
	return nil, fmt.Errorf("unknown decoder %q (want one of %s)", name, strings.Join(Names, ", "))
}

func Valid(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == FFmpeg || n == MPEG
}

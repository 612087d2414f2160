package port

import (
	"context"
	"image"
	"io"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

// ProgressFunc receives the fraction of source frames read so far. It is called
// synchronously on the sampler's goroutine.
type ProgressFunc func(progress float64)

type FrameEncoder interface {
	Encode(w io.Writer, img image.Image, format entity.FrameFormat) error
}

type FrameSampler interface {
	Run(ctx context.Context, req entity.ProcessRequest, progress ProgressFunc) *entity.RunResult
}

package port

import (
	"context"
	"image"
)

// VideoSource is a decodable frame sequence owned by a single run.
// ReadFrame returns io.EOF once the stream is exhausted. FrameCount may be 0
// or inaccurate when the container does not record it. A returned image may
// share memory with the decoder and is only valid until the next ReadFrame.
type VideoSource interface {
	FrameCount() int
	FrameRate() float64
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

type SourceOpener interface {
	Open(ctx context.Context, path string) (VideoSource, error)
}

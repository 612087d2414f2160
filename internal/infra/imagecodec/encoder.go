package imagecodec

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

const DefaultJPEGQuality = 95

// Encoder writes frames as JPEG or PNG, optionally downscaling wide frames
// to MaxWidth while keeping the aspect ratio.
type Encoder struct {
	JPEGQuality    int
	PNGCompression png.CompressionLevel
	MaxWidth       int
}

func NewEncoder(jpegQuality, maxWidth int) *Encoder {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Encoder{
		JPEGQuality:    jpegQuality,
		PNGCompression: png.DefaultCompression,
		MaxWidth:       max(maxWidth, 0),
	}
}

func (e *Encoder) Encode(w io.Writer, img image.Image, format entity.FrameFormat) error {
	if e.MaxWidth > 0 && img.Bounds().Dx() > e.MaxWidth {
		img = imaging.Resize(img, e.MaxWidth, 0, imaging.Lanczos)
	}

	switch format {
	case entity.FrameFormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(e.JPEGQuality))
	case entity.FrameFormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(e.PNGCompression))
	}
	return fmt.Errorf("%w: %q", entity.ErrInvalidFormat, format)
}

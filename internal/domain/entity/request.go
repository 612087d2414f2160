package entity

import (
	"fmt"
	"path/filepath"
	"strings"
)

type FrameFormat string

const (
	FrameFormatJPEG FrameFormat = "jpg"
	FrameFormatPNG  FrameFormat = "png"
)

func ParseFrameFormat(s string) (FrameFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpg", "jpeg":
		return FrameFormatJPEG, nil
	case "png":
		return FrameFormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q (want jpg or png)", ErrInvalidFormat, s)
}

func (f FrameFormat) Valid() bool {
	return f == FrameFormatJPEG || f == FrameFormatPNG
}

func (f FrameFormat) Extension() string {
	return string(f)
}

func (f FrameFormat) ContentType() string {
	if f == FrameFormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// ProcessRequest describes one sampling run. OutputDir is optional; when empty
// the frames directory is created next to the source.
type ProcessRequest struct {
	SourcePath string
	OutputDir  string
	Rate       float64
	Format     FrameFormat
}

// OutputDirectory resolves <base>/<source stem>_frames, where base is
// OutputDir when set and the source's own directory otherwise.
func (r ProcessRequest) OutputDirectory() string {
	name := filepath.Base(r.SourcePath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	base := r.OutputDir
	if base == "" {
		base = filepath.Dir(r.SourcePath)
	}
	return filepath.Join(base, stem+"_frames")
}

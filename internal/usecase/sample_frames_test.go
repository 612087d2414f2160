package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/imagecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource yields `frames` 1x1 images whose gray value is the ordinal mod 256.
// It fails with readErr once `failAt` frames have been read (failAt < 0: never).
type fakeSource struct {
	frames   int
	declared int
	rate     float64
	failAt   int
	readErr  error
	read     int
	closed   bool
	onRead   func(n int)
}

func (s *fakeSource) FrameCount() int    { return s.declared }
func (s *fakeSource) FrameRate() float64 { return s.rate }
func (s *fakeSource) Close() error       { s.closed = true; return nil }

func (s *fakeSource) ReadFrame(context.Context) (image.Image, error) {
	if s.failAt >= 0 && s.read == s.failAt {
		return nil, s.readErr
	}
	if s.read >= s.frames {
		return nil, io.EOF
	}
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: uint8(s.read % 256)})
	s.read++
	if s.onRead != nil {
		s.onRead(s.read)
	}
	return img, nil
}

type fakeOpener struct {
	src    *fakeSource
	err    error
	opened int
}

func (o *fakeOpener) Open(context.Context, string) (port.VideoSource, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

// ordinalEncoder writes the frame's gray value as text so tests can tell which
// source ordinal ended up in which file.
type ordinalEncoder struct {
	err error
}

func (e ordinalEncoder) Encode(w io.Writer, img image.Image, _ entity.FrameFormat) error {
	if e.err != nil {
		return e.err
	}
	g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray)
	_, err := fmt.Fprintf(w, "%d", g.Y)
	return err
}

func newSource(frames int, rate float64) *fakeSource {
	return &fakeSource{frames: frames, declared: frames, rate: rate, failAt: -1}
}

func newRequest(t *testing.T, rate float64) entity.ProcessRequest {
	t.Helper()
	dir := t.TempDir()
	return entity.ProcessRequest{
		SourcePath: filepath.Join(dir, "clip.mp4"),
		Rate:       rate,
		Format:     entity.FrameFormatJPEG,
	}
}

func readFrameFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFrameSampler_SelectsEveryIntervalFrame(t *testing.T) {
	src := newSource(100, 30)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 10)

	res := sampler.Run(context.Background(), req, nil)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, 3, res.Interval)
	assert.Equal(t, 100, res.FramesRead)
	assert.Equal(t, 34, res.FramesWritten)
	assert.Equal(t, req.OutputDirectory(), res.OutputDir)
	assert.Equal(t, fmt.Sprintf("extracted 34 frames to %s", res.OutputDir), res.Message)
	assert.True(t, src.closed)

	entries, err := os.ReadDir(res.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 34)

	require.Len(t, res.FramePaths, 34)
	for i, p := range res.FramePaths {
		assert.Equal(t, fmt.Sprintf("frame_%04d.jpg", i), filepath.Base(p))
		assert.Equal(t, fmt.Sprint(i*3), readFrameFile(t, p), "file %d should hold ordinal %d", i, i*3)
	}
}

func TestFrameSampler_OutputDirNextToSource(t *testing.T) {
	src := newSource(5, 25)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 25)

	res := sampler.Run(context.Background(), req, nil)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, filepath.Join(filepath.Dir(req.SourcePath), "clip_frames"), res.OutputDir)
	assert.Equal(t, 1, res.Interval)
	assert.Equal(t, 5, res.FramesWritten)
}

func TestFrameSampler_ExplicitOutputDir(t *testing.T) {
	src := newSource(4, 24)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 12)
	req.OutputDir = filepath.Join(t.TempDir(), "nested", "out")
	req.Format = entity.FrameFormatPNG

	res := sampler.Run(context.Background(), req, nil)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, filepath.Join(req.OutputDir, "clip_frames"), res.OutputDir)
	require.Len(t, res.FramePaths, 2)
	assert.Equal(t, "frame_0001.png", filepath.Base(res.FramePaths[1]))
}

func TestFrameSampler_NonASCIIPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vidéo 視頻")
	require.NoError(t, os.MkdirAll(dir, 0755))
	sampler := NewFrameSampler(&fakeOpener{src: newSource(10, 10)}, imagecodec.NewEncoder(imagecodec.DefaultJPEGQuality, 0), zap.NewNop())
	req := entity.ProcessRequest{
		SourcePath: filepath.Join(dir, "片段.mp4"),
		Rate:       5,
		Format:     entity.FrameFormatPNG,
	}

	res := sampler.Run(context.Background(), req, nil)

	require.True(t, res.Success, res.Message)
	want := filepath.Join(dir, "片段_frames")
	assert.Equal(t, want, res.OutputDir)
	assert.Equal(t, 5, res.FramesWritten)
	assert.Contains(t, res.Message, want)
	assert.FileExists(t, filepath.Join(want, "frame_0000.png"))
	assert.FileExists(t, filepath.Join(want, "frame_0004.png"))
}

func TestFrameSampler_RateExceedsSource(t *testing.T) {
	src := newSource(50, 25)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 30)

	res := sampler.Run(context.Background(), req, nil)

	assert.False(t, res.Success)
	assert.Equal(t, entity.KindRateExceedsSource, res.Kind())
	assert.Contains(t, res.Message, "25")
	assert.Zero(t, res.FramesRead)
	assert.True(t, src.closed)
	assert.NoDirExists(t, req.OutputDirectory())
}

func TestFrameSampler_InfiniteRateExceedsSource(t *testing.T) {
	src := newSource(50, 25)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, math.Inf(1))

	res := sampler.Run(context.Background(), req, nil)

	assert.False(t, res.Success)
	assert.Equal(t, entity.KindRateExceedsSource, res.Kind())
	assert.Contains(t, res.Message, "25")
	assert.NoDirExists(t, req.OutputDirectory())
}

func TestFrameSampler_InvalidRate(t *testing.T) {
	for _, rate := range []float64{0, -1, math.NaN()} {
		t.Run(fmt.Sprint(rate), func(t *testing.T) {
			opener := &fakeOpener{src: newSource(10, 25)}
			sampler := NewFrameSampler(opener, ordinalEncoder{}, zap.NewNop())
			req := newRequest(t, rate)

			res := sampler.Run(context.Background(), req, nil)

			assert.False(t, res.Success)
			assert.Equal(t, entity.KindInvalidRate, res.Kind())
			assert.Contains(t, res.Message, "rate must be greater than zero")
			assert.Zero(t, opener.opened, "source must not be opened")
			assert.NoDirExists(t, req.OutputDirectory())
		})
	}
}

func TestFrameSampler_InvalidFormat(t *testing.T) {
	opener := &fakeOpener{src: newSource(10, 25)}
	sampler := NewFrameSampler(opener, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 1)
	req.Format = "gif"

	res := sampler.Run(context.Background(), req, nil)

	assert.Equal(t, entity.KindInvalidFormat, res.Kind())
	assert.Zero(t, opener.opened)
}

func TestFrameSampler_SourceUnreadable(t *testing.T) {
	opener := &fakeOpener{err: errors.New("no such file")}
	sampler := NewFrameSampler(opener, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 1)

	res := sampler.Run(context.Background(), req, nil)

	assert.False(t, res.Success)
	assert.Equal(t, entity.KindSourceUnreadable, res.Kind())
	assert.Contains(t, res.Message, "no such file")
	assert.NoDirExists(t, req.OutputDirectory())
}

func TestFrameSampler_DecodeErrorKeepsPartialOutput(t *testing.T) {
	src := newSource(100, 30)
	src.failAt = 10
	src.readErr = errors.New("corrupt packet")
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 10)

	res := sampler.Run(context.Background(), req, nil)

	assert.False(t, res.Success)
	assert.Equal(t, entity.KindDecode, res.Kind())
	assert.Equal(t, 10, res.FramesRead)
	assert.Equal(t, 4, res.FramesWritten) // ordinals 0, 3, 6, 9
	assert.Equal(t, req.OutputDirectory(), res.OutputDir)
	assert.Len(t, res.FramePaths, 4)
	assert.True(t, src.closed)
}

func TestFrameSampler_EncodeError(t *testing.T) {
	src := newSource(10, 10)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{err: errors.New("boom")}, zap.NewNop())

	res := sampler.Run(context.Background(), newRequest(t, 1), nil)

	assert.Equal(t, entity.KindEncode, res.Kind())
	assert.Zero(t, res.FramesWritten)
	assert.True(t, src.closed)
}

func TestFrameSampler_OutputDirectoryBlockedByFile(t *testing.T) {
	src := newSource(10, 10)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())
	req := newRequest(t, 1)
	require.NoError(t, os.WriteFile(req.OutputDirectory(), []byte("x"), 0644))

	res := sampler.Run(context.Background(), req, nil)

	assert.Equal(t, entity.KindOutputDirectory, res.Kind())
	assert.Zero(t, res.FramesRead)
	assert.True(t, src.closed)
}

func TestFrameSampler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newSource(100, 30)
	src.onRead = func(n int) {
		if n == 7 {
			cancel()
		}
	}
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())

	res := sampler.Run(ctx, newRequest(t, 10), nil)

	assert.False(t, res.Success)
	assert.Equal(t, entity.KindCancelled, res.Kind())
	assert.Equal(t, 7, res.FramesRead)
	assert.Equal(t, 3, res.FramesWritten)
	assert.True(t, src.closed)
}

func TestFrameSampler_ProgressIsMonotonicAndEndsAtOne(t *testing.T) {
	src := newSource(100, 30)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())

	var got []float64
	res := sampler.Run(context.Background(), newRequest(t, 10), func(p float64) {
		got = append(got, p)
	})

	require.True(t, res.Success)
	require.Len(t, got, 100)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
	assert.InDelta(t, 0.01, got[0], 1e-9)
	assert.Equal(t, 1.0, got[len(got)-1])
}

func TestFrameSampler_ProgressClampedWhenCountUnderestimated(t *testing.T) {
	src := newSource(12, 10)
	src.declared = 8
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())

	var got []float64
	res := sampler.Run(context.Background(), newRequest(t, 5), func(p float64) {
		got = append(got, p)
	})

	require.True(t, res.Success)
	require.Len(t, got, 12)
	for _, p := range got {
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Equal(t, 1.0, got[len(got)-1])
	assert.Equal(t, 6, res.FramesWritten)
}

func TestFrameSampler_ProgressSuppressedWhenCountUnknown(t *testing.T) {
	src := newSource(20, 10)
	src.declared = 0
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())

	calls := 0
	res := sampler.Run(context.Background(), newRequest(t, 10), func(float64) { calls++ })

	require.True(t, res.Success)
	assert.Zero(t, calls)
	assert.Equal(t, 20, res.FramesWritten)
}

func TestFrameSampler_RerunIsDeterministic(t *testing.T) {
	req := newRequest(t, 7)

	first := NewFrameSampler(&fakeOpener{src: newSource(60, 29.97)}, ordinalEncoder{}, zap.NewNop()).
		Run(context.Background(), req, nil)
	second := NewFrameSampler(&fakeOpener{src: newSource(60, 29.97)}, ordinalEncoder{}, zap.NewNop()).
		Run(context.Background(), req, nil)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, 4, first.Interval)
	assert.Equal(t, first.FramePaths, second.FramePaths)

	entries, err := os.ReadDir(req.OutputDirectory())
	require.NoError(t, err)
	assert.Len(t, entries, 15)
}

func TestFrameSampler_EmptySource(t *testing.T) {
	src := newSource(0, 25)
	sampler := NewFrameSampler(&fakeOpener{src: src}, ordinalEncoder{}, zap.NewNop())

	res := sampler.Run(context.Background(), newRequest(t, 1), nil)

	assert.True(t, res.Success)
	assert.Zero(t, res.FramesWritten)
	assert.DirExists(t, res.OutputDir)
}

func TestProgressReporter_NilCallback(t *testing.T) {
	report := newProgressReporter(10, nil)
	assert.NotPanics(t, func() { report(3) })
}

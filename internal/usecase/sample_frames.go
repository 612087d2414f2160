package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// FrameSampler reads a video source in decode order and writes every
// interval-th frame as an image file.
//
// Run is blocking and single-threaded. The progress callback is invoked on the
// caller's goroutine after every frame read; the context is polled once per
// frame so a run can be cancelled between frames.
type FrameSampler struct {
	opener  port.SourceOpener
	encoder port.FrameEncoder
	logger  *zap.Logger
}

func NewFrameSampler(opener port.SourceOpener, encoder port.FrameEncoder, logger *zap.Logger) *FrameSampler {
	return &FrameSampler{opener: opener, encoder: encoder, logger: logger}
}

// Run never returns an error value; every failure is folded into the result.
func (s *FrameSampler) Run(ctx context.Context, req entity.ProcessRequest, progress port.ProgressFunc) *entity.RunResult {
	ctx, span := otel.Tracer("usecase").Start(ctx, "FrameSampler.Run")
	defer span.End()

	start := time.Now()
	log := s.logger.With(
		zap.String("source", req.SourcePath),
		zap.Float64("rate", req.Rate),
		zap.String("format", string(req.Format)),
	)

	log.Debug("frame sampling started")

	res := &entity.RunResult{}
	if err := s.sample(ctx, req, progress, res, log); err != nil {
		res.Fail(err)
		kind := res.Kind()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		metrics.SamplingRunsTotal.WithLabelValues(string(kind)).Inc()
		log.Warn("frame sampling failed",
			zap.String("error_kind", string(kind)),
			zap.Int("frames_read", res.FramesRead),
			zap.Int("frames_written", res.FramesWritten),
			zap.Error(err),
		)
	} else {
		res.Succeed()
		metrics.SamplingRunsTotal.WithLabelValues("ok").Inc()
		log.Info("frame sampling completed",
			zap.String("output_dir", res.OutputDir),
			zap.Int("frames_read", res.FramesRead),
			zap.Int("frames_written", res.FramesWritten),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	span.SetAttributes(
		attribute.Float64("sampler.rate", req.Rate),
		attribute.Int("sampler.interval", res.Interval),
		attribute.Int("sampler.frames_read", res.FramesRead),
		attribute.Int("sampler.frames_written", res.FramesWritten),
	)
	metrics.FramesReadTotal.Add(float64(res.FramesRead))
	metrics.FramesWrittenTotal.Add(float64(res.FramesWritten))
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(start).Seconds())

	return res
}

func (s *FrameSampler) sample(
	ctx context.Context,
	req entity.ProcessRequest,
	progress port.ProgressFunc,
	res *entity.RunResult,
	log *zap.Logger,
) error {
	if !(req.Rate > 0) {
		return fmt.Errorf("%w: rate must be greater than zero", entity.ErrInvalidRate)
	}
	if !req.Format.Valid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidFormat, req.Format)
	}

	src, err := s.opener.Open(ctx, req.SourcePath)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrSourceUnreadable, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("failed to close video source", zap.Error(err))
		}
	}()

	res.NativeRate = src.FrameRate()
	res.TotalFrames = src.FrameCount()
	if req.Rate > res.NativeRate {
		return fmt.Errorf("%w: requested %g fps but the video runs at %g fps",
			entity.ErrRateExceedsSource, req.Rate, res.NativeRate)
	}

	res.Interval = entity.FrameInterval(res.NativeRate, req.Rate)
	log.Info("sampling interval computed",
		zap.Float64("native_rate", res.NativeRate),
		zap.Int("total_frames", res.TotalFrames),
		zap.Int("interval", res.Interval),
	)

	outputDir := req.OutputDirectory()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrOutputDirectory, err)
	}
	res.OutputDir = outputDir

	report := newProgressReporter(res.TotalFrames, progress)
	var buf bytes.Buffer

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d frames: %w", entity.ErrCancelled, res.FramesRead, err)
		}

		img, err := src.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w at frame %d: %w", entity.ErrDecode, res.FramesRead, err)
		}

		ordinal := res.FramesRead
		res.FramesRead++

		if entity.IsSelected(ordinal, res.Interval) {
			buf.Reset()
			if err := s.encoder.Encode(&buf, img, req.Format); err != nil {
				return fmt.Errorf("%w at frame %d: %w", entity.ErrEncode, ordinal, err)
			}
			path := filepath.Join(outputDir, entity.FrameFileName(res.FramesWritten, req.Format))
			if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("%w: write frame: %w", entity.ErrOutputDirectory, err)
			}
			res.FramePaths = append(res.FramePaths, path)
			res.FramesWritten++
		}

		report(res.FramesRead)
	}
}

// newProgressReporter returns a per-frame hook. With an unknown total (0) no
// progress is reported at all; an underestimated total is clamped at 1.
func newProgressReporter(total int, fn port.ProgressFunc) func(read int) {
	if fn == nil || total <= 0 {
		return func(int) {}
	}
	last := 0.0
	return func(read int) {
		p := math.Min(float64(read)/float64(total), 1)
		if p < last {
			p = last
		}
		last = p
		fn(p)
	}
}

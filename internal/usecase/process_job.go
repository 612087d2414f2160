package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessJobUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	sampler   port.FrameSampler
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       ProcessJobConfig
}

type ProcessJobConfig struct {
	TempDir       string
	MaxRetries    int
	DefaultRate   float64
	DefaultFormat entity.FrameFormat
	// ProgressStep is the minimum progress delta between two progress
	// messages. Zero disables progress messages.
	ProgressStep float64
}

func NewProcessJobUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	sampler port.FrameSampler,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessJobConfig,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:      repo,
		storage:   storage,
		sampler:   sampler,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// Execute handles one sampling queue delivery. A nil return means the message
// is done with (completed, dead-lettered or malformed); a non-nil error asks the
// consumer to retry it later.
func (uc *ProcessJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessJobUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.FrameSamplingMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("malformed").Inc()
		return nil
	}

	req := uc.resolveRequest(msg)

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Float64("job.sample_rate", req.rate),
		attribute.String("job.format", string(req.format)),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	switch {
	case errors.Is(err, port.ErrJobNotFound):
		job = entity.NewSamplingJob(msg.UserID, msg.VideoKey, msg.FileSize, req.rate, req.format, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	case err != nil:
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}

	if job.Status == entity.JobStatusCompleted {
		log.Info("job already completed, skipping redelivery")
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		kind := job.ErrorKind
		if kind == entity.KindNone {
			kind = entity.KindUnknown
		}
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, kind, "max retries exceeded", log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}
	uc.publishStatus(ctx, job, 0, log)

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if req.err != nil {
		log.Warn("rejecting job with invalid parameters", zap.Error(req.err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, entity.KindOf(req.err), req.err.Error(), log)
	}

	if err := uc.samplingPipeline(ctx, job, msg, rawMsg, req, log); err != nil {
		return err
	}

	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return nil
}

type jobRequest struct {
	rate   float64
	format entity.FrameFormat
	err    error
}

func (uc *ProcessJobUseCase) resolveRequest(msg entity.FrameSamplingMessage) jobRequest {
	req := jobRequest{rate: uc.cfg.DefaultRate, format: uc.cfg.DefaultFormat}
	if msg.SampleRate != nil {
		req.rate = *msg.SampleRate
	}
	if msg.Format != "" {
		f, err := entity.ParseFrameFormat(msg.Format)
		if err != nil {
			req.format = entity.FrameFormat(msg.Format)
			req.err = err
			return req
		}
		req.format = f
	}
	if !(req.rate > 0) {
		req.err = fmt.Errorf("%w: rate must be greater than zero", entity.ErrInvalidRate)
	}
	return req
}

func (uc *ProcessJobUseCase) samplingPipeline(
	ctx context.Context,
	job *entity.SamplingJob,
	msg entity.FrameSamplingMessage,
	rawMsg []byte,
	req jobRequest,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, videoFileName(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, entity.KindUnknown, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Sample frames into workDir/<stem>_frames
	result := uc.sampler.Run(ctx, entity.ProcessRequest{
		SourcePath: videoPath,
		OutputDir:  workDir,
		Rate:       req.rate,
		Format:     req.format,
	}, uc.progressPublisher(ctx, job, log))

	if !result.Success {
		kind := result.Kind()
		if kind.Permanent() {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, kind, result.Message, log)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, kind, result.Message, log)
	}
	if result.FramesWritten == 0 {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, entity.KindDecode, "no frames decoded from video", log)
	}

	// Archive the sampled frames
	zipStart := time.Now()
	ctxZip, spanZip := tracer.Start(ctx, "create_zip")
	zipPath := filepath.Join(workDir, "frames.zip")
	if err := uc.archiver.CreateZip(ctxZip, result.FramePaths, zipPath); err != nil {
		spanZip.End()
		log.Error("zip creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, entity.KindUnknown, "create_zip: "+err.Error(), log)
	}
	spanZip.End()
	metrics.StageDuration.WithLabelValues("zip").Observe(time.Since(zipStart).Seconds())

	// Upload the archive to MinIO
	upStart := time.Now()
	ctxUp, spanUp := tracer.Start(ctx, "upload_zip")
	zipKey := fmt.Sprintf("%s/frames_%s.zip", msg.UserID, job.ID.String())
	if err := uc.uploadArchive(ctxUp, zipKey, zipPath); err != nil {
		spanUp.End()
		log.Error("zip upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, entity.KindUnknown, "upload_zip: "+err.Error(), log)
	}
	spanUp.End()
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(zipKey, result)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, 1, log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()

	log.Info("job completed successfully",
		zap.Int("frame_count", result.FramesWritten),
		zap.Int("frames_read", result.FramesRead),
		zap.Int("interval", result.Interval),
		zap.Float64("native_rate", result.NativeRate),
		zap.String("zip_key", zipKey),
	)

	return nil
}

func (uc *ProcessJobUseCase) uploadArchive(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat zip: %w", err)
	}
	return uc.storage.UploadArchive(ctx, key, f, stat.Size())
}

func (uc *ProcessJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.SamplingJob,
	msg entity.FrameSamplingMessage,
	rawMsg []byte,
	kind entity.ErrorKind,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(kind, errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, kind, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	metrics.JobsProcessedTotal.WithLabelValues("retry").Inc()
	uc.publishStatus(ctx, job, 0, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.SamplingJob,
	msg entity.FrameSamplingMessage,
	rawMsg []byte,
	kind entity.ErrorKind,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(kind, errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, 0, log)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		if err := uc.notifier.NotifyFailure(ctx, msg.UserEmail, job); err != nil {
			log.Warn("failed to notify user", zap.Error(err))
		}
	}

	return nil
}

// progressPublisher throttles sampler progress to ProgressStep increments. The
// final 1.0 is always published.
func (uc *ProcessJobUseCase) progressPublisher(ctx context.Context, job *entity.SamplingJob, log *zap.Logger) port.ProgressFunc {
	step := uc.cfg.ProgressStep
	if step <= 0 {
		return nil
	}
	var last float64
	return func(p float64) {
		if p <= last {
			return
		}
		if p < 1 && p-last < step {
			return
		}
		last = p
		data, _ := json.Marshal(uc.statusMessage(job, p))
		if err := uc.publisher.PublishProgress(ctx, data); err != nil {
			log.Debug("failed to publish progress", zap.Error(err))
		}
	}
}

func (uc *ProcessJobUseCase) publishStatus(ctx context.Context, job *entity.SamplingJob, progress float64, log *zap.Logger) {
	data, _ := json.Marshal(uc.statusMessage(job, progress))
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func (uc *ProcessJobUseCase) statusMessage(job *entity.SamplingJob, progress float64) entity.JobStatusMessage {
	return entity.JobStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		VideoKey:      job.VideoKey,
		ZipKey:        job.ZipKey,
		Progress:      progress,
		FrameCount:    job.FrameCount,
		FrameInterval: job.FrameInterval,
		NativeRate:    job.NativeRate,
		ErrorKind:     job.ErrorKind,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
}

func videoFileName(key string) string {
	name := filepath.Base(filepath.FromSlash(key))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "input"
	}
	return name
}

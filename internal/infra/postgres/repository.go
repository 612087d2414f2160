package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFound = port.ErrJobNotFound

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `
	id, user_id, video_key, zip_key, status, sample_rate, frame_format,
	native_rate, frame_interval, frames_read, frame_count, file_size,
	attempt, max_attempts, error_kind, error_message,
	created_at, updated_at, completed_at`

func (r *JobRepository) Create(ctx context.Context, job *entity.SamplingJob) error {
	query := `INSERT INTO sampling_jobs (` + jobColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ZipKey, string(job.Status),
		job.SampleRate, string(job.Format), job.NativeRate, job.FrameInterval,
		job.FramesRead, job.FrameCount, job.FileSize,
		job.Attempt, job.MaxAttempts, string(job.ErrorKind), job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.SamplingJob) error {
	query := `
		UPDATE sampling_jobs SET
			status=$2, zip_key=$3, native_rate=$4, frame_interval=$5,
			frames_read=$6, frame_count=$7, attempt=$8, error_kind=$9,
			error_message=$10, updated_at=$11, completed_at=$12
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ZipKey, job.NativeRate, job.FrameInterval,
		job.FramesRead, job.FrameCount, job.Attempt, string(job.ErrorKind),
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SamplingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sampling_jobs WHERE id=$1`

	job := &entity.SamplingJob{}
	var status, format, kind string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ZipKey, &status,
		&job.SampleRate, &format, &job.NativeRate, &job.FrameInterval,
		&job.FramesRead, &job.FrameCount, &job.FileSize,
		&job.Attempt, &job.MaxAttempts, &kind, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	job.Format = entity.FrameFormat(format)
	job.ErrorKind = entity.ErrorKind(kind)
	return job, nil
}

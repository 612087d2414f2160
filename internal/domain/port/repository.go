package port

import (
	"context"
	"errors"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned by FindByID and Update for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(ctx context.Context, job *entity.SamplingJob) error
	Update(ctx context.Context, job *entity.SamplingJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SamplingJob, error)
}

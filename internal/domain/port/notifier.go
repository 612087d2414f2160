package port

import (
	"context"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, job *entity.SamplingJob) error
}

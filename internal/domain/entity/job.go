package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// SamplingJob is the persisted record of a queued sampling request.
type SamplingJob struct {
	ID            uuid.UUID
	UserID        string
	VideoKey      string
	ZipKey        string
	Status        JobStatus
	SampleRate    float64
	Format        FrameFormat
	NativeRate    float64
	FrameInterval int
	FramesRead    int
	FrameCount    int
	FileSize      int64
	Attempt       int
	MaxAttempts   int
	ErrorKind     ErrorKind
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewSamplingJob(userID, videoKey string, fileSize int64, rate float64, format FrameFormat, maxAttempts int) *SamplingJob {
	now := time.Now().UTC()
	return &SamplingJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		SampleRate:  rate,
		Format:      format,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *SamplingJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.ErrorKind = KindNone
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *SamplingJob) MarkCompleted(zipKey string, res *RunResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ZipKey = zipKey
	j.FrameCount = res.FramesWritten
	j.FramesRead = res.FramesRead
	j.FrameInterval = res.Interval
	j.NativeRate = res.NativeRate
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *SamplingJob) MarkFailed(kind ErrorKind, errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *SamplingJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}

package entity

import "github.com/google/uuid"

// FrameSamplingMessage is the inbound message from the sampling queue.
// SampleRate and Format fall back to the worker defaults when omitted.
type FrameSamplingMessage struct {
	JobID      uuid.UUID `json:"job_id"`
	UserID     string    `json:"user_id"`
	VideoKey   string    `json:"video_key"`
	FileSize   int64     `json:"file_size"`
	UserEmail  string    `json:"user_email"`
	SampleRate *float64  `json:"sample_rate,omitempty"`
	Format     string    `json:"format,omitempty"`
}

// JobStatusMessage is published to the status queue on every state change and,
// while a job is PROCESSING, on progress steps.
type JobStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`
	VideoKey      string    `json:"video_key"`
	ZipKey        string    `json:"zip_key,omitempty"`
	Progress      float64   `json:"progress"`
	FrameCount    int       `json:"frame_count,omitempty"`
	FrameInterval int       `json:"frame_interval,omitempty"`
	NativeRate    float64   `json:"native_rate,omitempty"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}

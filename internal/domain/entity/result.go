package entity

import "fmt"

// RunResult is the outcome of one sampling run. Counters and OutputDir are
// filled in as far as the run got, so a failed run still reports the frames it
// left on disk.
type RunResult struct {
	Success       bool
	Message       string
	OutputDir     string
	FramesWritten int
	FramesRead    int
	FramePaths    []string
	Interval      int
	NativeRate    float64
	TotalFrames   int
	Err           error
}

func (r *RunResult) Kind() ErrorKind {
	return KindOf(r.Err)
}

func (r *RunResult) Succeed() {
	r.Success = true
	r.Err = nil
	r.Message = fmt.Sprintf("extracted %d frames to %s", r.FramesWritten, r.OutputDir)
}

func (r *RunResult) Fail(err error) {
	r.Success = false
	r.Err = err
	r.Message = err.Error()
}

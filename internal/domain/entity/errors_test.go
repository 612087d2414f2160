package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindDecode, KindOf(fmt.Errorf("%w at frame 3: %w", ErrDecode, errors.New("eof"))))
	assert.Equal(t, KindSourceUnreadable, KindOf(fmt.Errorf("%w: %w", ErrSourceUnreadable, errors.New("no such file"))))
	assert.Equal(t, KindCancelled, KindOf(fmt.Errorf("run: %w", ErrCancelled)))
}

func TestErrorKind_Permanent(t *testing.T) {
	permanent := []ErrorKind{KindSourceUnreadable, KindInvalidRate, KindInvalidFormat, KindRateExceedsSource}
	transient := []ErrorKind{KindOutputDirectory, KindDecode, KindEncode, KindCancelled, KindUnknown}

	for _, k := range permanent {
		assert.True(t, k.Permanent(), k)
	}
	for _, k := range transient {
		assert.False(t, k.Permanent(), k)
	}
}

func TestRunResult_SucceedAndFail(t *testing.T) {
	r := &RunResult{OutputDir: "out/clip_frames", FramesWritten: 34}
	r.Succeed()
	assert.True(t, r.Success)
	assert.Equal(t, "extracted 34 frames to out/clip_frames", r.Message)
	assert.Equal(t, KindNone, r.Kind())

	r.Fail(fmt.Errorf("%w: rate must be greater than zero", ErrInvalidRate))
	assert.False(t, r.Success)
	assert.Equal(t, KindInvalidRate, r.Kind())
	assert.Equal(t, "invalid rate: rate must be greater than zero", r.Message)
}

package decoder

import (
	"testing"

	"github.com/fiapx/fiapx-frame-sampler/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frame-sampler/internal/infra/mpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewOpener(t *testing.T) {
	op, err := NewOpener("ffmpeg", Options{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &ffmpeg.Opener{}, op)

	op, err = NewOpener(" MPEG ", Options{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mpeg.Opener{}, op)
}

func TestNewOpener_Unknown(t *testing.T) {
	_, err := NewOpener("gstreamer", Options{}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown decoder "gstreamer"`)
	assert.False(t, Valid("gstreamer"))
	assert.True(t, Valid("ffmpeg"))
}

package entity

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		native, target float64
		want           int
	}{
		{30, 10, 3},
		{30, 30, 1},
		{30, 7, 4},
		{29.97, 10, 2},
		{25, 1, 25},
		{24, 0.5, 48},
		{30, 40, 1},
		{30, 0, 1},
		{0, 10, 1},
		{30, 1e-12, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g/%g", tt.native, tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, FrameInterval(tt.native, tt.target))
		})
	}
}

func TestIsSelected(t *testing.T) {
	var selected []int
	for i := 0; i < 10; i++ {
		if IsSelected(i, 3) {
			selected = append(selected, i)
		}
	}
	assert.Equal(t, []int{0, 3, 6, 9}, selected)

	assert.True(t, IsSelected(5, 1))
	assert.True(t, IsSelected(5, 0), "interval below 1 selects every frame")
}

func TestFrameFileName(t *testing.T) {
	assert.Equal(t, "frame_0000.jpg", FrameFileName(0, FrameFormatJPEG))
	assert.Equal(t, "frame_0033.png", FrameFileName(33, FrameFormatPNG))
	assert.Equal(t, "frame_9999.jpg", FrameFileName(9999, FrameFormatJPEG))
	assert.Equal(t, "frame_10000.jpg", FrameFileName(10000, FrameFormatJPEG))
}

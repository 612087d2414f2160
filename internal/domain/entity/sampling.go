package entity

import (
	"fmt"
	"math"
)

// FrameInterval approximates a target sampling rate with an integer stride over
// the source frames. The emitted rate is nativeRate/interval, not targetRate.
func FrameInterval(nativeRate, targetRate float64) int {
	if targetRate <= 0 || nativeRate <= 0 {
		return 1
	}
	stride := math.Floor(nativeRate / targetRate)
	if stride >= math.MaxInt32 {
		return math.MaxInt32
	}
	return max(1, int(stride))
}

func IsSelected(ordinal, interval int) bool {
	if interval < 1 {
		interval = 1
	}
	return ordinal%interval == 0
}

// FrameFileName pads to four digits; larger indices simply grow wider.
func FrameFileName(index int, format FrameFormat) string {
	return fmt.Sprintf("frame_%04d.%s", index, format.Extension())
}

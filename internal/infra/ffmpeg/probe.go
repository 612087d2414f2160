package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

// videoInfo describes the first video stream of a container.
type videoInfo struct {
	Width      int
	Height     int
	FrameRate  float64
	FrameCount int
}

func parseProbe(data string) (videoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return videoInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info := videoInfo{Width: s.Width, Height: s.Height}
		if info.Width <= 0 || info.Height <= 0 {
			return videoInfo{}, fmt.Errorf("video stream has invalid size %dx%d", s.Width, s.Height)
		}

		info.FrameRate = parseRate(s.RFrameRate)
		if info.FrameRate <= 0 {
			info.FrameRate = parseRate(s.AvgFrameRate)
		}
		if info.FrameRate <= 0 {
			return videoInfo{}, fmt.Errorf("video stream has no usable frame rate")
		}

		if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
			info.FrameCount = n
		} else {
			duration := parseSeconds(s.Duration)
			if duration <= 0 {
				duration = parseSeconds(out.Format.Duration)
			}
			info.FrameCount = int(math.Round(duration * info.FrameRate))
		}
		return info, nil
	}
	return videoInfo{}, fmt.Errorf("no video stream found")
}

// parseRate reads ffprobe rationals such as "30000/1001" as well as plain
// decimals. Anything unparsable or with a zero denominator yields 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || !(n > 0) || math.IsInf(n, 0) {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || !(d > 0) {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

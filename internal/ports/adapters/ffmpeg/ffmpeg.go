package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/asciify/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

type sideData struct {
	Rotation float64 `json:"rotation"`
}

type probeOutput struct {
	Streams []struct {
		Width        int        `json:"width"`
		Height       int        `json:"height"`
		NbFrames     string     `json:"nb_frames"`
		RFrameRate   string     `json:"r_frame_rate"`
		AvgFrameRate string     `json:"avg_frame_rate"`
		Duration     string     `json:"duration"`
		SideData     []sideData `json:"side_data_list"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first video stream's geometry, rate and frame count.
func (a *Adapter) Probe(ctx context.Context, path string) (types.SourceInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,nb_frames,r_frame_rate,avg_frame_rate,duration"+
			":stream_side_data=rotation:stream_tags=rotate:format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		var stderr []byte
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = ee.Stderr
		}
		return types.SourceInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(stderr))
	}
	return parseProbe(b)
}

func parseProbe(b []byte) (types.SourceInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.SourceInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return types.SourceInfo{}, fmt.Errorf("no video stream")
	}
	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return types.SourceInfo{}, fmt.Errorf("invalid video size %dx%d", s.Width, s.Height)
	}

	info := types.SourceInfo{Width: s.Width, Height: s.Height}
	info.Rotation = rotation(s.SideData, s.Tags.Rotate)
	// ffmpeg autorotates on decode, so quarter turns arrive transposed.
	if info.Rotation%180 != 0 {
		info.Width, info.Height = info.Height, info.Width
	}
	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS <= 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	dur := parseSeconds(s.Duration)
	if dur <= 0 {
		dur = parseSeconds(out.Format.Duration)
	}
	if dur > 0 {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	if n, err := strconv.Atoi(strings.TrimSpace(s.NbFrames)); err == nil && n > 0 {
		info.TotalFrames = n
	} else if dur > 0 && info.FPS > 0 {
		// Matroska and WebM rarely carry nb_frames; estimate from duration.
		info.TotalFrames = int(math.Round(dur * info.FPS))
	}
	return info, nil
}

// rotation returns the display rotation normalised to 0, 90, 180 or 270.
// The display matrix wins over the legacy rotate tag.
func rotation(side []sideData, tag string) int {
	deg := 0.0
	found := false
	for _, sd := range side {
		if sd.Rotation != 0 {
			deg, found = sd.Rotation, true
			break
		}
	}
	if !found {
		deg = parseSeconds(tag)
	}
	r := int(math.Round(deg/90)) * 90 % 360
	if r < 0 {
		r += 360
	}
	return r
}

// parseRate parses ffprobe rationals such as "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Package probe reads container metadata from media files via ffprobe.
package probe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaReadError indicates a file that cannot be probed or lacks a video
// stream. It is fatal; retrying the same file is pointless.
type MediaReadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MediaReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *MediaReadError) Unwrap() error { return e.Err }

// Info contains the stream metadata the pipeline needs.
type Info struct {
	Width      int
	Height     int
	StartTime  float64
	Duration   float64
	FrameRate  float64
	VideoCodec string
	// AudioCodec is empty when the container has no audio stream.
	AudioCodec string
}

// HasAudio reports whether an audio stream is present.
func (i *Info) HasAudio() bool { return i.AudioCodec != "" }

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration  string `json:"duration"`
	StartTime string `json:"start_time"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
	RFrameRate string `json:"r_frame_rate"`
}

// Probe reads metadata for path. It is side-effect free and returns consistent
// results for an unmodified file.
func Probe(path string) (*Info, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, &MediaReadError{Path: path, Reason: "ffprobe failed", Err: errors.WithStack(err)}
	}
	return parse(path, []byte(raw))
}

func parse(path string, raw []byte) (*Info, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &MediaReadError{Path: path, Reason: "unparseable ffprobe output", Err: errors.WithStack(err)}
	}

	var video, audio *ffprobeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}

	if video == nil {
		return nil, &MediaReadError{Path: path, Reason: "no video stream"}
	}

	info := &Info{
		Width:      video.Width,
		Height:     video.Height,
		VideoCodec: video.CodecName,
		StartTime:  parseFloat(video.StartTime),
		FrameRate:  parseFrameRate(video.RFrameRate),
	}

	if audio != nil {
		info.AudioCodec = audio.CodecName
	}

	// Prefer the stream duration, fall back to the container.
	info.Duration = parseFloat(video.Duration)
	if info.Duration == 0 {
		info.Duration = parseFloat(out.Format.Duration)
	}

	return info, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

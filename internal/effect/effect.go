// Package effect defines the composable video transformations the pipeline
// schedules: a closed set of variants that either contribute a filter-graph
// node to a shared encode pass or own a standalone pass of their own.
package effect

import (
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/clipworks/chorusclip/internal/probe"
)

const (
	// TargetVideoCodec is used whenever a filter graph forces a re-encode.
	TargetVideoCodec = "libx264"
	// TargetAudioCodec is the audio codec every pass converges on.
	TargetAudioCodec = "aac"
)

// EncodeArgs are the fixed global arguments for every encode pass.
var EncodeArgs = []string{"-hide_banner", "-loglevel", "error", "-stats"}

// Effect is one unit of transformation. Every variant also implements exactly
// one of Chainer or Standalone.
type Effect interface {
	Kind() string
	Validate() error
}

// Chainer contributes a node to a shared filter graph. Chained effects are
// fused into a single encode pass.
type Chainer interface {
	Effect
	Chain(v *ffmpeg.Stream, media *probe.Info) (*ffmpeg.Stream, error)
}

// Standalone builds a complete encode of its own; it is never fused with
// neighboring effects.
type Standalone interface {
	Effect
	Compile(inPath, outPath string, media *probe.Info) *ffmpeg.Stream
}

// AudioCodecArg implements the uniform audio policy: copy when the stream is
// already the target codec, transcode otherwise.
func AudioCodecArg(current string) string {
	if current == TargetAudioCodec {
		return "copy"
	}
	return TargetAudioCodec
}

// Segment is a half-open time window in seconds.
type Segment struct {
	Start float64
	End   float64
}

// Trim keeps only the segment of the media. It stream-copies video and
// applies the audio policy, so it runs standalone and lossless.
type Trim struct {
	Segment
}

func (Trim) Kind() string { return "trim" }

func (t Trim) Validate() error {
	if t.Start < 0 {
		return configErrorf("trim start %.3f must not be negative", t.Start)
	}
	if t.End <= t.Start {
		return &InvalidRangeError{Start: t.Start, End: t.End}
	}
	return nil
}

func (t Trim) Compile(inPath, outPath string, media *probe.Info) *ffmpeg.Stream {
	out := ffmpeg.KwArgs{"c:v": "copy"}
	if media.HasAudio() {
		out["c:a"] = AudioCodecArg(media.AudioCodec)
	}
	return ffmpeg.Input(inPath, ffmpeg.KwArgs{"ss": t.Start, "to": t.End}).
		Output(outPath, out)
}

// Blur applies a Gaussian blur across the frame. Radius 0 is a valid
// passthrough.
type Blur struct {
	Radius float64
}

func (Blur) Kind() string { return "blur" }

func (b Blur) Validate() error {
	if b.Radius < 0 {
		return configErrorf("blur radius %.2f must not be negative", b.Radius)
	}
	return nil
}

func (b Blur) Chain(v *ffmpeg.Stream, media *probe.Info) (*ffmpeg.Stream, error) {
	if b.Radius == 0 {
		return v, nil
	}
	return v.Filter("gblur", ffmpeg.Args{}, ffmpeg.KwArgs{"sigma": b.Radius}), nil
}

// FillOverlay composites a translucent solid rectangle over the full frame
// for the entire duration.
type FillOverlay struct {
	Color   string
	Opacity float64
}

func (FillOverlay) Kind() string { return "fill_overlay" }

func (f FillOverlay) Validate() error {
	if f.Color == "" {
		return configErrorf("fill overlay requires a color")
	}
	if f.Opacity < 0 || f.Opacity > 1 {
		return configErrorf("fill overlay opacity %.2f must be within [0, 1]", f.Opacity)
	}
	return nil
}

func (f FillOverlay) Chain(v *ffmpeg.Stream, media *probe.Info) (*ffmpeg.Stream, error) {
	return v.Filter("drawbox", ffmpeg.Args{}, ffmpeg.KwArgs{
		"x":     0,
		"y":     0,
		"w":     media.Width,
		"h":     media.Height,
		"color": fmt.Sprintf("%s@%g", f.Color, f.Opacity),
		"t":     "fill",
	}), nil
}

// TextMeasurer supplies rendered text dimensions and the font file used for
// drawing. Satisfied by fontkit.Resolver.
type TextMeasurer interface {
	Measure(fontSize int, text string) (int, int, error)
	FontPath() string
}

// TextProperties describes one timed, positioned text drawing.
type TextProperties struct {
	Text            string
	Placement       Placement
	FontSize        int
	Color           string
	BackgroundColor string
	// StartTime in seconds; nil means the media's stream start time.
	StartTime *float64
	// Duration in seconds; the text is visible during
	// [start, start+Duration). A window that ends at or before zero is
	// never drawn.
	Duration float64
	OffsetX  int
	OffsetY  int
}

// TextOverlay draws a list of text entries, each gated to its own time
// window. All entries compose into the same node chain.
type TextOverlay struct {
	Entries []TextProperties
	Metrics TextMeasurer
}

func (TextOverlay) Kind() string { return "text_overlay" }

func (o TextOverlay) Validate() error {
	if len(o.Entries) == 0 {
		return configErrorf("text overlay requires at least one entry")
	}
	if o.Metrics == nil {
		return configErrorf("text overlay requires a text measurer")
	}
	for i, e := range o.Entries {
		if e.Text == "" {
			return configErrorf("text overlay entry %d has empty text", i)
		}
		if e.FontSize <= 0 {
			return configErrorf("text overlay entry %d font size %d must be positive", i, e.FontSize)
		}
		if e.Duration < 0 {
			return configErrorf("text overlay entry %d duration %.3f must not be negative", i, e.Duration)
		}
		if err := e.Placement.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (o TextOverlay) Chain(v *ffmpeg.Stream, media *probe.Info) (*ffmpeg.Stream, error) {
	for _, e := range o.Entries {
		start := media.StartTime
		if e.StartTime != nil {
			start = *e.StartTime
		}
		end := start + e.Duration
		if end <= 0 {
			continue
		}

		textW, textH, err := o.Metrics.Measure(e.FontSize, e.Text)
		if err != nil {
			return nil, err
		}
		x, y := e.Placement.Resolve(media.Width, media.Height, textW, textH, e.OffsetX, e.OffsetY)

		kwargs := ffmpeg.KwArgs{
			"text":      e.Text,
			"x":         x,
			"y":         y,
			"fontsize":  e.FontSize,
			"fontcolor": e.Color,
			"enable":    fmt.Sprintf("between(t,%g,%g)", start, end),
		}
		if path := o.Metrics.FontPath(); path != "" {
			kwargs["fontfile"] = path
		}
		if e.BackgroundColor != "" && e.BackgroundColor != "transparent" {
			kwargs["box"] = 1
			kwargs["boxcolor"] = e.BackgroundColor
		}

		v = v.Filter("drawtext", ffmpeg.Args{}, kwargs)
	}
	return v, nil
}

package effect

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/clipworks/chorusclip/internal/probe"
)

type fakeMeasurer struct {
	w, h int
	path string
}

func (f fakeMeasurer) Measure(fontSize int, text string) (int, int, error) {
	return f.w, f.h, nil
}

func (f fakeMeasurer) FontPath() string { return f.path }

func testMedia() *probe.Info {
	return &probe.Info{
		Width:      1280,
		Height:     720,
		StartTime:  0,
		Duration:   60,
		VideoCodec: "h264",
		AudioCodec: "aac",
	}
}

// compile renders a chained stream to its ffmpeg argument list.
func compile(t *testing.T, v *ffmpeg.Stream) string {
	t.Helper()
	return strings.Join(v.Output("out.mp4").GetArgs(), " ")
}

func TestTrimValidate(t *testing.T) {
	assert.NoError(t, Trim{Segment{Start: 25, End: 45}}.Validate())

	err := Trim{Segment{Start: 45, End: 45}}.Validate()
	var rangeErr *InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 45.0, rangeErr.Start)

	err = Trim{Segment{Start: -1, End: 10}}.Validate()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestTrimCompileCopiesStreams(t *testing.T) {
	media := testMedia()
	args := strings.Join(Trim{Segment{Start: 25, End: 45}}.Compile("in.mp4", "out.mp4", media).GetArgs(), " ")

	assert.Contains(t, args, "-ss 25")
	assert.Contains(t, args, "-to 45")
	assert.Contains(t, args, "-c:v copy")
	// Audio already AAC, no transcode.
	assert.Contains(t, args, "-c:a copy")
}

func TestTrimCompileTranscodesNonAACAudio(t *testing.T) {
	media := testMedia()
	media.AudioCodec = "opus"
	args := strings.Join(Trim{Segment{Start: 0, End: 5}}.Compile("in.mp4", "out.mp4", media).GetArgs(), " ")

	assert.Contains(t, args, "-c:a aac")
}

func TestTrimCompileNoAudioStream(t *testing.T) {
	media := testMedia()
	media.AudioCodec = ""
	args := strings.Join(Trim{Segment{Start: 0, End: 5}}.Compile("in.mp4", "out.mp4", media).GetArgs(), " ")

	assert.NotContains(t, args, "-c:a")
}

func TestBlurZeroRadiusIsPassthrough(t *testing.T) {
	in := ffmpeg.Input("in.mp4")

	out, err := Blur{Radius: 0}.Chain(in, testMedia())
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestBlurChain(t *testing.T) {
	require.NoError(t, Blur{Radius: 5}.Validate())

	out, err := Blur{Radius: 5}.Chain(ffmpeg.Input("in.mp4"), testMedia())
	require.NoError(t, err)

	args := compile(t, out)
	assert.Contains(t, args, "gblur")
	assert.Contains(t, args, "sigma=5")
}

func TestBlurNegativeRadius(t *testing.T) {
	var cfgErr *ConfigError
	assert.True(t, errors.As(Blur{Radius: -1}.Validate(), &cfgErr))
}

func TestFillOverlayValidate(t *testing.T) {
	assert.NoError(t, FillOverlay{Color: "black", Opacity: 0.6}.Validate())
	assert.NoError(t, FillOverlay{Color: "black", Opacity: 0}.Validate())
	assert.NoError(t, FillOverlay{Color: "black", Opacity: 1}.Validate())

	var cfgErr *ConfigError
	assert.True(t, errors.As(FillOverlay{Color: "black", Opacity: 1.1}.Validate(), &cfgErr))
	assert.True(t, errors.As(FillOverlay{Color: "black", Opacity: -0.1}.Validate(), &cfgErr))
	assert.True(t, errors.As(FillOverlay{Opacity: 0.5}.Validate(), &cfgErr))
}

func TestFillOverlayChainCoversFrame(t *testing.T) {
	out, err := FillOverlay{Color: "black", Opacity: 0.6}.Chain(ffmpeg.Input("in.mp4"), testMedia())
	require.NoError(t, err)

	args := compile(t, out)
	assert.Contains(t, args, "drawbox")
	assert.Contains(t, args, "black@0.6")
	assert.Contains(t, args, "w=1280")
	assert.Contains(t, args, "h=720")
	assert.Contains(t, args, "t=fill")
}

func TestTextOverlayChain(t *testing.T) {
	overlay := TextOverlay{
		Metrics: fakeMeasurer{w: 200, h: 40, path: "/fonts/test.ttf"},
		Entries: []TextProperties{{
			Text:      "Never Gonna Give You Up",
			Placement: AtAlign(Top, Center),
			FontSize:  48,
			Color:     "white",
			Duration:  20,
		}},
	}
	require.NoError(t, overlay.Validate())

	out, err := overlay.Chain(ffmpeg.Input("in.mp4"), testMedia())
	require.NoError(t, err)

	args := compile(t, out)
	assert.Contains(t, args, "drawtext")
	// Horizontal center of a 200px box on a 1280px frame.
	assert.Contains(t, args, "x=540")
	assert.Contains(t, args, "y=0")
	assert.Contains(t, args, "fontsize=48")
	assert.Contains(t, args, "between(t")
	assert.Contains(t, args, "fontfile=/fonts/test.ttf")
}

func TestTextOverlayDefaultsStartToStreamStart(t *testing.T) {
	media := testMedia()
	media.StartTime = 1.5

	overlay := TextOverlay{
		Metrics: fakeMeasurer{w: 10, h: 10},
		Entries: []TextProperties{{
			Text:      "hello",
			Placement: AtPixels(0, 0),
			FontSize:  12,
			Color:     "white",
			Duration:  5,
		}},
	}

	out, err := overlay.Chain(ffmpeg.Input("in.mp4"), media)
	require.NoError(t, err)
	assert.Contains(t, compile(t, out), "between(t")
}

func TestTextOverlaySkipsNeverVisibleEntry(t *testing.T) {
	start := -30.0
	in := ffmpeg.Input("in.mp4")
	overlay := TextOverlay{
		Metrics: fakeMeasurer{w: 10, h: 10},
		Entries: []TextProperties{{
			Text:      "gone",
			Placement: AtPixels(0, 0),
			FontSize:  12,
			Color:     "white",
			StartTime: &start,
			Duration:  10,
		}},
	}

	out, err := overlay.Chain(in, testMedia())
	require.NoError(t, err)
	// Window ends before zero, nothing is drawn.
	assert.Same(t, in, out)
}

func TestTextOverlayValidate(t *testing.T) {
	var cfgErr *ConfigError

	err := TextOverlay{Metrics: fakeMeasurer{}}.Validate()
	assert.True(t, errors.As(err, &cfgErr))

	err = TextOverlay{Entries: []TextProperties{{Text: "x", FontSize: 12, Placement: AtPixels(0, 0), Color: "white"}}}.Validate()
	assert.True(t, errors.As(err, &cfgErr))

	err = TextOverlay{
		Metrics: fakeMeasurer{},
		Entries: []TextProperties{{Text: "x", FontSize: 0, Placement: AtPixels(0, 0)}},
	}.Validate()
	assert.True(t, errors.As(err, &cfgErr))

	err = TextOverlay{
		Metrics: fakeMeasurer{},
		Entries: []TextProperties{{Text: "x", FontSize: 12, Placement: AtPixels(0, 0), Duration: -1}},
	}.Validate()
	assert.True(t, errors.As(err, &cfgErr))
}

func TestPlacementResolve(t *testing.T) {
	tests := []struct {
		name     string
		p        Placement
		dx, dy   int
		wantX    int
		wantY    int
	}{
		{"top left", AtAlign(Top, Left), 0, 0, 0, 0},
		{"center", AtAlign(Middle, Center), 0, 0, 540, 340},
		{"bottom right", AtAlign(Bottom, Right), 0, 0, 1080, 680},
		{"center with offset", AtAlign(Middle, Center), 10, -20, 550, 320},
		{"explicit pixels", AtPixels(100, 50), 5, 5, 105, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.p.Resolve(1280, 720, 200, 40, tt.dx, tt.dy)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestPlacementValidate(t *testing.T) {
	assert.NoError(t, AtAlign(Top, Left).validate())
	assert.NoError(t, AtPixels(3, 4).validate())

	var cfgErr *ConfigError
	assert.True(t, errors.As(Placement{v: "sideways", h: Center}.validate(), &cfgErr))
	assert.True(t, errors.As(Placement{v: Top, h: "diagonal"}.validate(), &cfgErr))
}

func TestAudioCodecArg(t *testing.T) {
	assert.Equal(t, "copy", AudioCodecArg("aac"))
	assert.Equal(t, "aac", AudioCodecArg("opus"))
	assert.Equal(t, "aac", AudioCodecArg("mp3"))
}

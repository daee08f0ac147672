// Package highlighter wires the collaborators together: it searches and
// ranks YouTube candidates, downloads the winner, finds the chorus window,
// and runs the effect pipeline to produce a branded highlight clip.
package highlighter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clipworks/chorusclip/internal/analyze"
	"github.com/clipworks/chorusclip/internal/config"
	"github.com/clipworks/chorusclip/internal/effect"
	"github.com/clipworks/chorusclip/internal/fontkit"
	"github.com/clipworks/chorusclip/internal/pipeline"
	"github.com/clipworks/chorusclip/internal/probe"
	"github.com/clipworks/chorusclip/internal/subtitle"
	"github.com/clipworks/chorusclip/internal/youtube"
)

const (
	searchLimit = 5

	brandingOffset = 40
	subtitleOffset = 200
	subtitleRowGap = 10
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Highlighter produces a highlight clip for one song.
type Highlighter struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *openai.Client
	fonts  *fontkit.Resolver
}

// New builds a Highlighter. The OpenAI key must be present in the
// environment since both ranking and chorus detection call the API.
func New(cfg *config.Config, logger zerolog.Logger) (*Highlighter, error) {
	key := config.APIKey()
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &Highlighter{
		cfg:    cfg,
		logger: logger,
		client: openai.NewClient(key),
		fonts:  fontkit.NewResolver(cfg.FontFamily),
	}, nil
}

// Run executes the full flow and returns the output clip path.
func (h *Highlighter) Run(ctx context.Context) (string, error) {
	best, err := h.locate(ctx)
	if err != nil {
		return "", err
	}

	dl, err := youtube.NewDownloader(h.cfg.WorkDir, h.logger).Fetch(ctx, best, h.cfg.Language)
	if err != nil {
		return "", err
	}

	outPath, err := h.stageOutput(dl.VideoPath)
	if err != nil {
		return "", err
	}

	media, err := probe.Probe(outPath)
	if err != nil {
		return "", err
	}

	cues := h.loadCues(dl.SubtitlePath)

	seg := h.window(ctx, dl.VideoPath, cues, media)
	h.logger.Info().
		Float64("start", seg.Start).
		Float64("end", seg.End).
		Msg("trim window selected")

	effects, err := h.composeEffects(seg, cues, media)
	if err != nil {
		return "", err
	}

	if err := pipeline.New(outPath, h.logger).Apply(effects); err != nil {
		return "", err
	}
	return outPath, nil
}

// locate searches YouTube and ranks the candidates against the query.
func (h *Highlighter) locate(ctx context.Context) (*youtube.Candidate, error) {
	query := fmt.Sprintf("%s %s", h.cfg.Title, h.cfg.Author)
	candidates, err := youtube.Search(ctx, h.logger, query, searchLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.Errorf("no results for %q", query)
	}

	ranker := youtube.NewRanker(h.client, h.cfg.OpenAI.EmbeddingModel, h.logger)
	return ranker.Best(ctx, h.cfg.Title, h.cfg.Author, candidates)
}

// window picks the trim segment: the detected chorus when enabled, else the
// configured defaults. Chorus failures degrade to the defaults.
func (h *Highlighter) window(ctx context.Context, videoPath string, cues []subtitle.Cue, media *probe.Info) effect.Segment {
	fallback := effect.Segment{
		Start: h.cfg.TrimStart,
		End:   h.cfg.TrimStart + h.cfg.TrimDuration,
	}

	if !h.cfg.Chorus {
		return clampSegment(fallback, media.Duration)
	}

	features, err := analyze.ExtractFeatures(videoPath)
	if err != nil {
		h.logger.Warn().Err(err).Msg("audio analysis failed, using default window")
		return clampSegment(fallback, media.Duration)
	}

	picker := analyze.NewChorusPicker(h.client, h.cfg.OpenAI.ChatModel, h.logger)
	chorus, err := picker.Pick(ctx, features, timedLyrics(cues))
	if err != nil {
		h.logger.Warn().Err(err).Msg("chorus detection failed, using default window")
		return clampSegment(fallback, media.Duration)
	}

	return clampSegment(effect.Segment{Start: chorus.StartTime, End: chorus.EndTime}, media.Duration)
}

// composeEffects builds the ordered effect list: trim first, then the dim
// layer, branding text, and subtitles on the trimmed timeline.
func (h *Highlighter) composeEffects(seg effect.Segment, cues []subtitle.Cue, media *probe.Info) ([]effect.Effect, error) {
	clipDuration := seg.End - seg.Start
	start := 0.0

	lineHeight, err := h.fonts.LineHeight(h.cfg.TitleSize)
	if err != nil {
		return nil, err
	}

	branding := effect.TextOverlay{
		Metrics: h.fonts,
		Entries: []effect.TextProperties{
			{
				Text:      h.cfg.Title,
				Placement: effect.AtAlign(effect.Top, effect.Center),
				FontSize:  h.cfg.TitleSize,
				Color:     "white",
				StartTime: &start,
				Duration:  clipDuration,
				OffsetY:   brandingOffset,
			},
			{
				Text:      h.cfg.Author,
				Placement: effect.AtAlign(effect.Top, effect.Center),
				FontSize:  h.cfg.SubtitleSize,
				Color:     "white",
				StartTime: &start,
				Duration:  clipDuration,
				OffsetY:   brandingOffset + lineHeight,
			},
		},
	}

	effects := []effect.Effect{
		effect.Trim{Segment: seg},
		effect.FillOverlay{Color: "black", Opacity: h.cfg.DimOpacity},
		branding,
	}

	if len(cues) > 0 {
		subLineHeight, err := h.fonts.LineHeight(h.cfg.SubtitleSize)
		if err != nil {
			return nil, err
		}
		effects = append(effects, subtitle.Layout(cues, seg.Start, clipDuration, h.fonts, subtitle.LayoutOptions{
			FontSize:   h.cfg.SubtitleSize,
			LineHeight: subLineHeight,
			BaseOffset: subtitleOffset,
			RowGap:     subtitleRowGap,
			Color:      "white",
			Background: "black@0.5",
		}))
	}

	return effects, nil
}

// loadCues reads the subtitle track; a missing track is expected and only
// logged.
func (h *Highlighter) loadCues(path string) []subtitle.Cue {
	cues, err := subtitle.LoadCues(path)
	if err != nil {
		var missing *subtitle.MissingResourceError
		if errors.As(err, &missing) {
			h.logger.Info().Str("path", path).Msg("no subtitle track, skipping lyrics")
		} else {
			h.logger.Warn().Err(err).Msg("subtitle parsing failed, skipping lyrics")
		}
		return nil
	}
	return cues
}

// stageOutput copies the downloaded video to its final name; the pipeline
// then rewrites it in place.
func (h *Highlighter) stageOutput(videoPath string) (string, error) {
	if err := os.MkdirAll(h.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	name := unsafeChars.ReplaceAllString(fmt.Sprintf("%s_%s", h.cfg.Title, h.cfg.Author), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	}
	outPath := filepath.Join(h.cfg.OutputDir, name+".mp4")

	if err := copyFile(videoPath, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "failed to copy %s to %s", src, dst)
	}
	return out.Close()
}

// timedLyrics renders cues as time-coded lines for the chorus prompt.
func timedLyrics(cues []subtitle.Cue) string {
	var sb strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&sb, "[%.1f-%.1f] %s\n", c.Start, c.End, c.Text)
	}
	return sb.String()
}

// clampSegment keeps the window inside the media and non-empty.
func clampSegment(seg effect.Segment, mediaDuration float64) effect.Segment {
	if mediaDuration > 0 {
		if seg.End > mediaDuration {
			seg.End = mediaDuration
		}
		if seg.Start >= seg.End {
			seg.Start = 0
		}
	}
	if seg.Start < 0 {
		seg.Start = 0
	}
	return seg
}

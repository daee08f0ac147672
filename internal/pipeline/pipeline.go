// Package pipeline schedules effects over a single media file: it fuses
// node-contributing effects into shared encode passes, runs standalone
// effects on their own, and swaps results in atomically.
package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/clipworks/chorusclip/internal/effect"
	"github.com/clipworks/chorusclip/internal/probe"
)

// Pipeline mutates one media file in place. The file must not be targeted by
// two pipelines at once; no locking is provided.
type Pipeline struct {
	path   string
	logger zerolog.Logger
}

// New creates a pipeline over the media file at path.
func New(path string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		path:   path,
		logger: logger.With().Str("component", "pipeline").Str("file", path).Logger(),
	}
}

// Apply runs the ordered effect list. Effects around a trim are fused into at
// most two encode passes (before and after); the trim itself always runs
// standalone. Validation happens up front, so configuration errors surface
// before any encode work and leave the file untouched. Any failure aborts the
// remaining effects.
func (p *Pipeline) Apply(effects []effect.Effect) error {
	if len(effects) == 0 {
		return nil
	}

	for _, e := range effects {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	pre, trim, post, err := splitAtTrim(effects)
	if err != nil {
		return err
	}

	if len(pre) > 0 {
		if err := p.runBatch(pre); err != nil {
			return err
		}
	}
	if trim != nil {
		if err := p.runStandalone(trim); err != nil {
			return err
		}
	}
	if len(post) > 0 {
		return p.runBatch(post)
	}
	return nil
}

// splitAtTrim partitions the effect list around its standalone effect. More
// than one standalone effect is a configuration error.
func splitAtTrim(effects []effect.Effect) (pre []effect.Chainer, trim effect.Standalone, post []effect.Chainer, err error) {
	for _, e := range effects {
		switch v := e.(type) {
		case effect.Standalone:
			if trim != nil {
				return nil, nil, nil, effect.NewConfigError("pipeline accepts at most one %s effect", v.Kind())
			}
			trim = v
		case effect.Chainer:
			if trim == nil {
				pre = append(pre, v)
			} else {
				post = append(post, v)
			}
		default:
			return nil, nil, nil, effect.NewConfigError("effect %s is neither chainable nor standalone", e.Kind())
		}
	}
	return pre, trim, post, nil
}

// BuildGraph threads the probed video stream through every chain effect in
// order and returns the output node encoding to outPath.
func BuildGraph(inPath, outPath string, media *probe.Info, chain []effect.Chainer) (*ffmpeg.Stream, error) {
	in := ffmpeg.Input(inPath)
	v := in.Video()

	var err error
	for _, e := range chain {
		if v, err = e.Chain(v, media); err != nil {
			return nil, err
		}
	}

	streams := []*ffmpeg.Stream{v}
	out := ffmpeg.KwArgs{"c:v": effect.TargetVideoCodec}
	if media.HasAudio() {
		streams = append(streams, in.Audio())
		out["c:a"] = effect.AudioCodecArg(media.AudioCodec)
	}

	return ffmpeg.Output(streams, outPath, out), nil
}

func (p *Pipeline) runBatch(chain []effect.Chainer) error {
	media, err := probe.Probe(p.path)
	if err != nil {
		return err
	}

	return p.encode(batchName(chain), func(outPath string) (*ffmpeg.Stream, error) {
		return BuildGraph(p.path, outPath, media, chain)
	})
}

func (p *Pipeline) runStandalone(s effect.Standalone) error {
	media, err := probe.Probe(p.path)
	if err != nil {
		return err
	}

	return p.encode(s.Kind(), func(outPath string) (*ffmpeg.Stream, error) {
		return s.Compile(p.path, outPath, media), nil
	})
}

// encode runs one pass into a fresh temp file in the media's directory and
// replaces the original only on success. A failed encode therefore never
// corrupts the working file.
func (p *Pipeline) encode(name string, build func(outPath string) (*ffmpeg.Stream, error)) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".chorusclip-*.mp4")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary output")
	}
	tmpPath := tmp.Name()
	tmp.Close()

	stream, err := build(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	p.logger.Info().Str("effect", name).Msg("applying effect")

	var diag bytes.Buffer
	runErr := stream.
		GlobalArgs(effect.EncodeArgs...).
		OverWriteOutput().
		WithErrorOutput(&diag).
		Run()
	if runErr != nil {
		_ = os.Remove(tmpPath)
		encErr := &effect.EncodeError{Effect: name, Diagnostic: diag.String(), Err: runErr}
		p.logger.Error().Err(encErr).Str("effect", name).Msg("effect failed")
		return encErr
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace media file")
	}

	p.logger.Info().Str("effect", name).Msg("effect applied")
	return nil
}

func batchName(chain []effect.Chainer) string {
	kinds := make([]string, len(chain))
	for i, e := range chain {
		kinds[i] = e.Kind()
	}
	return strings.Join(kinds, "+")
}

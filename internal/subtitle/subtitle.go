// Package subtitle loads timed-text tracks and lays their cues out as
// positioned text overlays, stacking temporally overlapping cues into
// separate rows.
package subtitle

import (
	"os"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/pkg/errors"

	"github.com/clipworks/chorusclip/internal/effect"
)

// MissingResourceError indicates an absent subtitle file. Callers may treat
// it as non-fatal and skip the subtitle pass.
type MissingResourceError struct {
	Path string
}

func (e *MissingResourceError) Error() string {
	return "missing resource: " + e.Path
}

// Cue is one timed subtitle entry on the source timeline, in seconds.
type Cue struct {
	Index int
	Text  string
	Start float64
	End   float64
}

// LoadCues parses a subtitle file into time-ordered cues.
func LoadCues(path string) ([]Cue, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &MissingResourceError{Path: path}
	}

	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse subtitle file %s", path)
	}

	cues := make([]Cue, 0, len(subs.Items))
	for i, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, l := range item.Lines {
			lines = append(lines, l.String())
		}
		cues = append(cues, Cue{
			Index: i + 1,
			Text:  strings.Join(lines, " "),
			Start: item.StartAt.Seconds(),
			End:   item.EndAt.Seconds(),
		})
	}
	return cues, nil
}

// LayoutOptions tunes cue styling and row stacking.
type LayoutOptions struct {
	FontSize   int
	LineHeight int
	BaseOffset int
	// RowGap adds extra spacing per row index on top of the line height.
	RowGap     int
	Color      string
	Background string
}

// Layout translates cues onto the post-trim timeline starting at startTime
// and spanning duration seconds, drops cues outside the window, and assigns
// each surviving cue a vertical row so overlapping cues never collide. The
// result is a single TextOverlay effect applied in one pass.
func Layout(cues []Cue, startTime, duration float64, metrics effect.TextMeasurer, opts LayoutOptions) effect.TextOverlay {
	// slot offset -> end time of the cue most recently placed there
	slots := make(map[int]float64)
	var entries []effect.TextProperties

	for _, c := range cues {
		start := c.Start - startTime
		end := c.End - startTime

		if end < 0 {
			continue
		}
		// Cues are time-ordered; once one starts past the window nothing
		// later can qualify.
		if start > duration {
			break
		}

		offset := opts.BaseOffset
		row := 0
		for {
			last, used := slots[offset]
			if !used || last <= start {
				break
			}
			offset += opts.LineHeight
			row++
		}
		slots[offset] = end

		entryStart := start
		entries = append(entries, effect.TextProperties{
			Text:            strings.ReplaceAll(c.Text, "\n", " "),
			Placement:       effect.AtAlign(effect.Middle, effect.Center),
			FontSize:        opts.FontSize,
			Color:           opts.Color,
			BackgroundColor: opts.Background,
			StartTime:       &entryStart,
			Duration:        end - start,
			OffsetY:         offset + row*opts.RowGap,
		})
	}

	return effect.TextOverlay{Entries: entries, Metrics: metrics}
}

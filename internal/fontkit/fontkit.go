// Package fontkit resolves a display font and measures rendered text, which
// the text overlay effects need to position themselves on the frame.
package fontkit

import (
	"os"
	"strings"
	"sync"

	"github.com/adrg/sysfont"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Resolver picks a font once and reuses it for every measurement. Resolution
// order: a system font whose name contains the preferred family
// (case-insensitive), then any system font, then the embedded Go Regular.
// Not safe for concurrent use.
type Resolver struct {
	Preferred string

	once sync.Once
	fnt  *sfnt.Font
	path string
}

// NewResolver returns a Resolver preferring the given font family. An empty
// preference skips straight to the fallback search.
func NewResolver(preferred string) *Resolver {
	return &Resolver{Preferred: preferred}
}

// FontPath reports the file the resolver settled on, or "" for the embedded
// fallback. Useful for handing the same font to drawtext.
func (r *Resolver) FontPath() string {
	r.resolve()
	return r.path
}

// Measure returns the pixel width and height of the tightest bounding box of
// text rendered at fontSize.
func (r *Resolver) Measure(fontSize int, text string) (int, int, error) {
	r.resolve()

	face, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(fontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to build font face")
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	return w, h, nil
}

// LineHeight returns the recommended vertical distance between baselines at
// fontSize.
func (r *Resolver) LineHeight(fontSize int) (int, error) {
	r.resolve()

	face, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(fontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to build font face")
	}
	defer face.Close()

	return face.Metrics().Height.Ceil(), nil
}

func (r *Resolver) resolve() {
	r.once.Do(func() {
		for _, candidate := range candidatePaths(sysfont.NewFinder(nil).List(), r.Preferred) {
			data, err := os.ReadFile(candidate)
			if err != nil {
				continue
			}
			fnt, err := opentype.Parse(data)
			if err != nil {
				continue
			}
			r.fnt = fnt
			r.path = candidate
			return
		}

		// The embedded face always parses.
		fnt, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(err)
		}
		r.fnt = fnt
	})
}

// candidatePaths orders available font files by preference: preferred-family
// matches first, then everything else. Pure, so tests can inject font lists.
func candidatePaths(fonts []*sysfont.Font, preferred string) []string {
	var matched, rest []string
	needle := strings.ToLower(preferred)

	for _, f := range fonts {
		if f.Filename == "" {
			continue
		}
		name := strings.ToLower(f.Name + " " + f.Family)
		if needle != "" && strings.Contains(name, needle) {
			matched = append(matched, f.Filename)
		} else {
			rest = append(rest, f.Filename)
		}
	}

	return append(matched, rest...)
}

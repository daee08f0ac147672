package effect

// VAlign is a symbolic vertical position on the frame.
type VAlign string

// HAlign is a symbolic horizontal position on the frame.
type HAlign string

const (
	Top    VAlign = "top"
	Middle VAlign = "center"
	Bottom VAlign = "bottom"
	Left   HAlign = "left"
	Center HAlign = "center"
	Right  HAlign = "right"
)

// Placement locates text on a frame, either by symbolic alignment or by an
// explicit pixel coordinate. The two forms are mutually exclusive; a Placement
// is always exactly one of them.
type Placement struct {
	explicit bool
	x, y     int
	v        VAlign
	h        HAlign
}

// AtPixels places text at an exact pixel coordinate.
func AtPixels(x, y int) Placement {
	return Placement{explicit: true, x: x, y: y}
}

// AtAlign places text symbolically; the pixel position is computed at
// apply-time from the frame and text dimensions.
func AtAlign(v VAlign, h HAlign) Placement {
	return Placement{v: v, h: h}
}

func (p Placement) validate() error {
	if p.explicit {
		return nil
	}
	switch p.v {
	case Top, Middle, Bottom:
	default:
		return configErrorf("invalid vertical alignment %q", p.v)
	}
	switch p.h {
	case Left, Center, Right:
	default:
		return configErrorf("invalid horizontal alignment %q", p.h)
	}
	return nil
}

// Resolve computes the pixel position of a text box of (textW, textH) on a
// frame of (frameW, frameH), shifted by (dx, dy).
func (p Placement) Resolve(frameW, frameH, textW, textH, dx, dy int) (int, int) {
	if p.explicit {
		return p.x + dx, p.y + dy
	}

	var x, y int
	switch p.h {
	case Left:
		x = 0
	case Right:
		x = frameW - textW
	default:
		x = (frameW - textW) / 2
	}
	switch p.v {
	case Top:
		y = 0
	case Bottom:
		y = frameH - textH
	default:
		y = (frameH - textH) / 2
	}

	return x + dx, y + dy
}

package tooltip

// Rect is an element's box in viewport coordinates, as reported by the host.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Size is the rendered tooltip's box.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the visible window and its scroll offset.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Point is a position in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const (
	anchorGap  = 5
	edgeMargin = 10
)

// Place puts the tooltip just below anchor, pulls it left if it would run
// past the right edge and flips it above anchor if it would run past the
// bottom.
func Place(anchor Rect, size Size, vp Viewport) Point {
	p := Point{
		X: anchor.Left + vp.ScrollX,
		Y: anchor.Bottom() + vp.ScrollY + anchorGap,
	}
	if p.X+size.Width > vp.Width {
		p.X = vp.Width - size.Width - edgeMargin
	}
	if p.Y+size.Height > vp.Height+vp.ScrollY {
		p.Y = anchor.Top + vp.ScrollY - size.Height - anchorGap
	}
	return p
}

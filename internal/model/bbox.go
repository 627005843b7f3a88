package model

// BBox is an axis-aligned rectangle in normalized page coordinates:
// every component lives in [0,1], resolution-independent.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp returns the bbox with every component forced into [0,1] and the
// extent trimmed so the rectangle stays inside the unit square.
func (b BBox) Clamp() BBox {
	b.X = clamp01(b.X)
	b.Y = clamp01(b.Y)
	b.Width = clamp01(b.Width)
	b.Height = clamp01(b.Height)
	if b.X+b.Width > 1 {
		b.Width = 1 - b.X
	}
	if b.Y+b.Height > 1 {
		b.Height = 1 - b.Y
	}
	return b
}

// Area returns width*height, 0 for degenerate rectangles.
func (b BBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Intersect returns the overlapping rectangle of b and o. The boolean is
// false when they do not overlap.
func (b BBox) Intersect(o BBox) (BBox, bool) {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.Width, o.X+o.Width)
	y2 := min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return BBox{}, false
	}
	return BBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

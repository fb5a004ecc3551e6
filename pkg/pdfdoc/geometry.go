package pdfdoc

import "math"

// Rect is a placement on a page in points, origin top-left.
type Rect struct {
	X, Y, W, H float64
}

// FitRect scales a src sized page uniformly into dst and centres it. The
// result never exceeds dst, so nothing is cropped.
func FitRect(src, dst Size) Rect {
	if src.Width <= 0 || src.Height <= 0 {
		return Rect{W: dst.Width, H: dst.Height}
	}
	scale := math.Min(dst.Width/src.Width, dst.Height/src.Height)
	w, h := src.Width*scale, src.Height*scale
	return Rect{
		X: (dst.Width - w) / 2,
		Y: (dst.Height - h) / 2,
		W: w,
		H: h,
	}
}

// Size returns the target page size.
func (o Options) Size() Size {
	return Size{Width: o.PageWidth, Height: o.PageHeight}
}

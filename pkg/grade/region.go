package grade

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gardar/gradeflow/pkg/config"
)

// Crop copies the part of img described by fractions of its width and
// height.
func Crop(img image.Image, r config.Region) *image.RGBA {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rect := image.Rect(
		b.Min.X+int(math.Round(r.X*w)),
		b.Min.Y+int(math.Round(r.Y*h)),
		b.Min.X+int(math.Round((r.X+r.Width)*w)),
		b.Min.Y+int(math.Round((r.Y+r.Height)*h)),
	).Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst
}

// IsolateInk renders the marks of img as black on white. Red ink is kept
// when at least MinRedPixels pixels qualify; otherwise every pixel darker
// than GrayThreshold is kept. The second result reports which mode ran.
func IsolateInk(img image.Image, cfg config.InkConfig) (*image.Gray, bool) {
	b := img.Bounds()
	red := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	dark := image.NewGray(red.Rect)
	redCount := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r, g, bl := int(c.R), int(c.G), int(c.B)
			lum := (299*r + 587*g + 114*bl) / 1000

			px, py := x-b.Min.X, y-b.Min.Y
			if r-g > cfg.RedMargin && r-bl > cfg.RedMargin && lum < cfg.MaxLuminance {
				red.SetGray(px, py, color.Gray{Y: 0})
				redCount++
			} else {
				red.SetGray(px, py, color.Gray{Y: 255})
			}
			if lum < cfg.GrayThreshold {
				dark.SetGray(px, py, color.Gray{Y: 0})
			} else {
				dark.SetGray(px, py, color.Gray{Y: 255})
			}
		}
	}
	if redCount >= cfg.MinRedPixels {
		return red, true
	}
	return dark, false
}

// Upscale enlarges img by factor with Catmull-Rom resampling. Factors below
// two return img unchanged.
func Upscale(img *image.Gray, factor int) *image.Gray {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

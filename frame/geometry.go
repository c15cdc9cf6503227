package frame

import (
	"image"
	"math"
)

const (
	// ZoomStep is the per-tick zoom sensitivity, ±10%.
	ZoomStep = 0.1
	// MinScale keeps the photo from collapsing into an invisible render.
	MinScale = 0.1
	// ClipRatio is the clip radius as a fraction of the shorter canvas side.
	ClipRatio = 0.42
)

type Point struct {
	X, Y float64
}

type Rect struct {
	X, Y, W, H float64
}

// View is the pan offset (canvas pixels) and uniform zoom applied to the photo.
type View struct {
	Offset Point
	Scale  float64
}

func DefaultView() View {
	return View{Scale: 1}
}

type Direction int

const (
	ZoomIn Direction = iota + 1
	ZoomOut
)

func Center(canvas image.Point) Point {
	return Point{X: float64(canvas.X) / 2, Y: float64(canvas.Y) / 2}
}

func ClipRadius(canvas image.Point) float64 {
	return math.Min(float64(canvas.X), float64(canvas.Y)) * ClipRatio
}

// Placement returns where a source of the given size is drawn: scaled by
// v.Scale with its center at canvas center + v.Offset.
func Placement(canvas, src image.Point, v View) Rect {
	w := float64(src.X) * v.Scale
	h := float64(src.Y) * v.Scale
	c := Center(canvas)
	return Rect{
		X: c.X - w/2 + v.Offset.X,
		Y: c.Y - h/2 + v.Offset.Y,
		W: w,
		H: h,
	}
}

func clampScale(scale, maxScale float64) float64 {
	if scale < MinScale {
		scale = MinScale
	}
	if maxScale > 0 && scale > maxScale {
		scale = maxScale
	}
	return scale
}

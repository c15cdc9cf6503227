package frame

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Raster is an in-memory Surface backed by *image.RGBA.
type Raster struct {
	canvas *image.RGBA
	interp draw.Interpolator

	clip    *image.Alpha
	clipKey [3]float64
	clipOn  bool
}

func NewRaster(width, height int) *Raster {
	return &Raster{
		canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
		interp: draw.CatmullRom,
	}
}

func (r *Raster) Size() image.Point {
	return r.canvas.Bounds().Size()
}

func (r *Raster) Clear() {
	clear(r.canvas.Pix)
}

func (r *Raster) DrawImage(img image.Image, dst Rect) {
	sb := img.Bounds()
	if sb.Empty() || dst.W <= 0 || dst.H <= 0 {
		return
	}

	var mask image.Image
	if r.clipOn {
		mask = r.clip
	}

	// 1:1 at an integer position needs no resampling.
	if dst.W == float64(sb.Dx()) && dst.H == float64(sb.Dy()) && isInt(dst.X) && isInt(dst.Y) {
		dr := image.Rect(int(dst.X), int(dst.Y), int(dst.X)+sb.Dx(), int(dst.Y)+sb.Dy())
		draw.DrawMask(r.canvas, dr, img, sb.Min, mask, dr.Min, draw.Over)
		return
	}

	sx := dst.W / float64(sb.Dx())
	sy := dst.H / float64(sb.Dy())
	s2d := f64.Aff3{
		sx, 0, dst.X - float64(sb.Min.X)*sx,
		0, sy, dst.Y - float64(sb.Min.Y)*sy,
	}

	var opts *draw.Options
	if mask != nil {
		opts = &draw.Options{DstMask: mask}
	}
	r.interp.Transform(r.canvas, s2d, img, sb, draw.Over, opts)
}

func (r *Raster) ClipCircle(center Point, radius float64) {
	key := [3]float64{center.X, center.Y, radius}
	if r.clip == nil || r.clipKey != key {
		r.clip = circleMask(r.canvas.Bounds(), center, radius)
		r.clipKey = key
	}
	r.clipOn = true
}

func (r *Raster) ResetClip() {
	r.clipOn = false
}

func (r *Raster) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Image exposes the canvas for callers that want pixels rather than PNG.
func (r *Raster) Image() *image.RGBA {
	return r.canvas
}

// circleMask covers pixel centers inside the circle, with a one-pixel
// anti-aliased rim.
func circleMask(bounds image.Rectangle, c Point, radius float64) *image.Alpha {
	mask := image.NewAlpha(bounds)
	if radius <= 0 {
		return mask
	}

	box := image.Rect(
		int(math.Floor(c.X-radius-1)), int(math.Floor(c.Y-radius-1)),
		int(math.Ceil(c.X+radius+1)), int(math.Ceil(c.Y+radius+1)),
	).Intersect(bounds)

	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := float64(y) + 0.5 - c.Y
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x) + 0.5 - c.X
			cover := radius - math.Hypot(dx, dy) + 0.5
			switch {
			case cover >= 1:
				mask.Pix[mask.PixOffset(x, y)] = 0xff
			case cover > 0:
				mask.Pix[mask.PixOffset(x, y)] = uint8(cover*255 + 0.5)
			}
		}
	}
	return mask
}

func isInt(f float64) bool {
	return f == math.Trunc(f)
}

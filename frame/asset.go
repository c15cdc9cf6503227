package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/chaos-io/photoframe/util"
	"golang.org/x/image/draw"
)

var (
	DefaultRingColor       = color.NRGBA{R: 0xd4, G: 0xaf, B: 0x37, A: 0xff}
	DefaultBackgroundColor = color.NRGBA{R: 0x1f, G: 0x2a, B: 0x44, A: 0xff}
)

// LoadAsset reads the frame graphic from disk.
func LoadAsset(path string) (image.Image, error) {
	img, err := util.OpenImage(path)
	if err != nil {
		return nil, fmt.Errorf("open frame asset: %w", err)
	}
	return img, nil
}

// RingAsset draws a square badge: solid background outside the ring, a ring
// straddling the clip rim, and a transparent well where the photo shows.
func RingAsset(size int, background, ring color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	canvas := image.Pt(size, size)
	c := Center(canvas)
	r := ClipRadius(canvas)
	inner := r - float64(size)*0.01
	outer := r + float64(size)*0.03

	bg := color.NRGBAModel.Convert(background).(color.NRGBA)
	rc := color.NRGBAModel.Convert(ring).(color.NRGBA)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-c.X, float64(y)+0.5-c.Y)
			switch {
			case d < inner:
			case d <= outer:
				img.SetNRGBA(x, y, rc)
			default:
				img.SetNRGBA(x, y, bg)
			}
		}
	}
	return img
}

// FitAsset scales the frame to the canvas once so each render copies it 1:1.
func FitAsset(frame image.Image, canvas image.Point) image.Image {
	if frame == nil || frame.Bounds().Size() == canvas {
		return frame
	}
	dst := image.NewNRGBA(image.Rectangle{Max: canvas})
	draw.CatmullRom.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return dst
}

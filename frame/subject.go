package frame

import (
	"errors"
	"image"

	"github.com/chaos-io/photoframe/util"
	"golang.org/x/image/draw"
)

// SubjectAlpha is the alpha share above which a pixel counts as subject.
const SubjectAlpha = 0.8

var ErrNoSubject = errors.New("no opaque subject found")

// SubjectBounds returns the box around pixels whose alpha exceeds threshold·255.
func SubjectBounds(img image.Image, threshold float64) (image.Rectangle, error) {
	src := util.ToNRGBA(img)
	b := src.Bounds()
	th := uint8(threshold * 255)

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.Pix[row+(x-b.Min.X)*4+3] <= th {
				continue
			}
			found = true
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoSubject
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// CenterSubject crops a cut-out to a square around its subject so the
// subject sits at the center of the clip.
func CenterSubject(img image.Image) (image.Image, error) {
	box, err := SubjectBounds(img, SubjectAlpha)
	if err != nil {
		return nil, err
	}

	size := max(box.Dx(), box.Dy())
	c := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)
	sq := image.Rect(c.X-size/2, c.Y-size/2, c.X-size/2+size, c.Y-size/2+size)

	// the square may reach past the image; the overhang stays transparent
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	r := sq.Intersect(img.Bounds())
	draw.Draw(dst, r.Sub(sq.Min), img, r.Min, draw.Src)
	return dst, nil
}

package frame

import (
	"image"

	"github.com/chaos-io/photoframe/util"
	"github.com/nfnt/resize"
)

// DecodeSource decodes photo bytes and bounds the longest edge by maxEdge
// (0 disables the bound).
func DecodeSource(data []byte, maxEdge int) (image.Image, error) {
	img, err := util.DecodeImageBytes(data)
	if err != nil {
		return nil, err
	}
	return resizeWithinMax(img, maxEdge), nil
}

// resizeWithinMax 缩放（最长边 <= maxSize）
func resizeWithinMax(img image.Image, maxSize int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	return resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
}

package frame

import "image"

// Surface is the drawing capability the compositor renders through.
type Surface interface {
	Size() image.Point
	// Clear resets every pixel to fully transparent.
	Clear()
	// DrawImage draws img scaled into dst, honoring the active clip.
	DrawImage(img image.Image, dst Rect)
	ClipCircle(center Point, radius float64)
	ResetClip()
	// Encode returns the canvas as PNG.
	Encode() ([]byte, error)
}

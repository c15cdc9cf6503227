package frame

import "image"

// State is the whole mutable side of a compositing session. Operations take a
// State and return the next one; nothing else feeds a render.
type State struct {
	Source   image.Image
	View     View
	Dragging bool
}

func (s State) HasSource() bool {
	return s.Source != nil
}

// WithSource replaces the photo and resets the view.
func (s State) WithSource(img image.Image) State {
	return State{Source: img, View: DefaultView()}
}

func (s State) WithView(v View, maxScale float64) State {
	v.Scale = clampScale(v.Scale, maxScale)
	s.View = v
	return s
}

func (s State) BeginDrag() State {
	if !s.HasSource() {
		return s
	}
	s.Dragging = true
	return s
}

func (s State) EndDrag() State {
	s.Dragging = false
	return s
}

// Pan is unbounded: the photo may leave the frame entirely.
func (s State) Pan(dx, dy float64) State {
	if !s.HasSource() || !s.Dragging {
		return s
	}
	s.View.Offset.X += dx
	s.View.Offset.Y += dy
	return s
}

// Zoom never goes below MinScale. maxScale <= 0 means no ceiling.
func (s State) Zoom(dir Direction, maxScale float64) State {
	if !s.HasSource() {
		return s
	}
	switch dir {
	case ZoomIn:
		s.View.Scale *= 1 + ZoomStep
	case ZoomOut:
		s.View.Scale *= 1 - ZoomStep
	default:
		return s
	}
	s.View.Scale = clampScale(s.View.Scale, maxScale)
	return s
}

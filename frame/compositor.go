package frame

import (
	"bytes"
	"errors"
	"image"

	"github.com/chaos-io/photoframe/util"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoSource   = errors.New("no source image loaded")
	ErrNoArtifact = errors.New("nothing rendered yet")
)

// Render draws frame, clipped photo and frame again onto s and returns the
// PNG. The output depends only on frame, st.Source and st.View.
func Render(s Surface, frame image.Image, st State) ([]byte, error) {
	if !st.HasSource() {
		return nil, ErrNoSource
	}

	size := s.Size()
	full := Rect{W: float64(size.X), H: float64(size.Y)}

	s.Clear()
	if frame != nil {
		s.DrawImage(frame, full)
	}

	s.ClipCircle(Center(size), ClipRadius(size))
	s.DrawImage(st.Source, Placement(size, st.Source.Bounds().Size(), st.View))
	s.ResetClip()

	// second pass lets ring art cover the photo's clipped edge
	if frame != nil {
		s.DrawImage(frame, full)
	}

	return s.Encode()
}

type Option func(*Compositor)

// WithMaxScale caps zoom-in. Zero leaves zoom unbounded.
func WithMaxScale(scale float64) Option {
	return func(c *Compositor) {
		c.maxScale = scale
	}
}

func WithMaxSourceEdge(edge int) Option {
	return func(c *Compositor) {
		c.maxSourceEdge = edge
	}
}

// WithCenterSubject crops transparent sources to a square around their
// subject on load.
func WithCenterSubject(on bool) Option {
	return func(c *Compositor) {
		c.centerSubject = on
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(c *Compositor) {
		c.log = log
	}
}

// Compositor keeps a State and re-renders it after every change. Not safe
// for concurrent use; callers serialize input events.
type Compositor struct {
	surface Surface
	frame   image.Image
	state   State

	artifact []byte

	maxScale      float64
	maxSourceEdge int
	centerSubject bool
	log           *logrus.Logger
}

func NewCompositor(surface Surface, frame image.Image, opts ...Option) *Compositor {
	c := &Compositor{
		surface: surface,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.frame = FitAsset(frame, surface.Size())
	c.Reset()
	return c
}

func (c *Compositor) State() State {
	return c.state
}

func (c *Compositor) Frame() image.Image {
	return c.frame
}

// LoadSourceImage decodes data and makes it the photo. Empty or undecodable
// input leaves everything as it was.
func (c *Compositor) LoadSourceImage(data []byte) {
	if len(data) == 0 {
		return
	}
	img, err := DecodeSource(data, c.maxSourceEdge)
	if err != nil {
		c.log.WithField("error", err.Error()).Debug("skip undecodable source image")
		return
	}
	c.LoadImage(img)
}

func (c *Compositor) LoadImage(img image.Image) {
	if img == nil {
		return
	}
	if c.centerSubject && util.HasUsefulAlpha(img) {
		if cropped, err := CenterSubject(img); err == nil {
			img = cropped
		}
	}
	c.state = c.state.WithSource(resizeWithinMax(img, c.maxSourceEdge))
	c.rerender()
}

func (c *Compositor) SetView(v View) {
	if !c.state.HasSource() {
		return
	}
	c.state = c.state.WithView(v, c.maxScale)
	c.rerender()
}

func (c *Compositor) BeginDrag() {
	c.state = c.state.BeginDrag()
}

func (c *Compositor) EndDrag() {
	c.state = c.state.EndDrag()
}

func (c *Compositor) Pan(dx, dy float64) {
	if !c.state.HasSource() || !c.state.Dragging {
		return
	}
	c.state = c.state.Pan(dx, dy)
	c.rerender()
}

func (c *Compositor) Zoom(dir Direction) {
	if !c.state.HasSource() {
		return
	}
	c.state = c.state.Zoom(dir, c.maxScale)
	c.rerender()
}

// Render recomputes the composite and caches it for Export.
func (c *Compositor) Render() ([]byte, error) {
	defer util.Trace("render composite")()

	out, err := Render(c.surface, c.frame, c.state)
	if err != nil {
		return nil, err
	}
	c.artifact = out
	return out, nil
}

func (c *Compositor) Reset() {
	c.state = State{}
	c.artifact = nil
	c.surface.Clear()
	if c.frame != nil {
		size := c.surface.Size()
		c.surface.DrawImage(c.frame, Rect{W: float64(size.X), H: float64(size.Y)})
	}
}

func (c *Compositor) Export() ([]byte, error) {
	if c.artifact == nil {
		return nil, ErrNoArtifact
	}
	return bytes.Clone(c.artifact), nil
}

func (c *Compositor) rerender() {
	if _, err := c.Render(); err != nil {
		c.log.WithField("error", err.Error()).Warn("render failed")
	}
}

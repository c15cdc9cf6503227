// Package editor drives a Compositor from pointer input and runs the
// remove-background round trip for the loaded photo.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chaos-io/photoframe/frame"
	"github.com/chaos-io/photoframe/util"
)

const DownloadName = "framed.png"

var (
	ErrBusy    = errors.New("background removal already in progress")
	ErrNoPhoto = errors.New("no photo chosen")
)

// Result is the outcome of an asynchronous removal.
type Result struct {
	Err error
}

type Remover interface {
	RemoveBackground(ctx context.Context, photo []byte) ([]byte, error)
}

type Session struct {
	remover Remover

	mu    sync.Mutex
	comp  *frame.Compositor
	photo []byte
	last  frame.Point

	// busy is held while a removal is in flight; a second request is
	// refused rather than queued.
	busy atomic.Bool
}

func NewSession(comp *frame.Compositor, remover Remover) *Session {
	return &Session{comp: comp, remover: remover}
}

// Open loads the chosen file. An undecodable file leaves the session as it was.
func (s *Session) Open(photo []byte) error {
	img, err := util.DecodeImageBytes(photo)
	if err != nil {
		return fmt.Errorf("decode photo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = photo
	s.comp.LoadImage(img)
	return nil
}

func (s *Session) State() frame.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comp.State()
}

func (s *Session) MouseDown(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp.BeginDrag()
	s.last = frame.Point{X: x, Y: y}
}

func (s *Session) MouseMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.comp.State().Dragging {
		return
	}
	s.comp.Pan(x-s.last.X, y-s.last.Y)
	s.last = frame.Point{X: x, Y: y}
}

func (s *Session) MouseUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp.EndDrag()
}

func (s *Session) MouseLeave() {
	s.MouseUp()
}

// Wheel zooms in on a negative delta (scroll up) and out on a positive one.
func (s *Session) Wheel(deltaY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case deltaY < 0:
		s.comp.Zoom(frame.ZoomIn)
	case deltaY > 0:
		s.comp.Zoom(frame.ZoomOut)
	}
}

// Busy reports whether the remove-background control should be disabled.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// RemoveBackground sends the chosen photo to the remover and, on success,
// replaces the source with the result.
func (s *Session) RemoveBackground(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return s.removeBackground(ctx)
}

// RemoveBackgroundAsync claims the latch immediately and delivers the
// outcome on the returned channel.
func (s *Session) RemoveBackgroundAsync(ctx context.Context) <-chan Result {
	done := make(chan Result, 1)
	if !s.busy.CompareAndSwap(false, true) {
		done <- Result{Err: ErrBusy}
		close(done)
		return done
	}
	go func() {
		done <- Result{Err: s.removeBackground(ctx)}
		close(done)
	}()
	return done
}

func (s *Session) removeBackground(ctx context.Context) error {
	defer s.busy.Store(false)

	s.mu.Lock()
	photo := s.photo
	s.mu.Unlock()
	if len(photo) == 0 {
		return ErrNoPhoto
	}

	out, err := s.remover.RemoveBackground(ctx, photo)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}

	img, err := util.DecodeImageBytes(out)
	if err != nil {
		return fmt.Errorf("decode processed image: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp.LoadImage(img)
	return nil
}

// Download returns the file name and bytes of the current composite.
func (s *Session) Download() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.comp.Export()
	if err != nil {
		return "", nil, err
	}
	return DownloadName, data, nil
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = nil
	s.comp.Reset()
}

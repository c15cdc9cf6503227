package rembg

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrMissingCredential = errors.New("REMOVE_BG_API_KEY is not configured")

// Remover removes the background of one image and returns the processed bytes.
type Remover interface {
	// Validate reports whether the remover can be called at all.
	Validate() error
	Remove(ctx context.Context, filename string, image io.Reader) ([]byte, error)
}

// RemoteError is a non-2xx answer from the remote service.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError covers failures talking to the remote service or reading
// its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Noop hands the image back unchanged.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Validate() error {
	return nil
}

func (n *Noop) Remove(ctx context.Context, filename string, image io.Reader) ([]byte, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, &TransportError{Op: "read image", Err: err}
	}
	return data, nil
}

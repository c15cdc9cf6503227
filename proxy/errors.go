package proxy

import (
	"errors"

	"github.com/chaos-io/photoframe/rembg"
)

var (
	ErrNoFileUploaded    = errors.New("no file uploaded")
	ErrMissingCredential = rembg.ErrMissingCredential
)

type (
	RemoteServiceError = rembg.RemoteError
	TransportError     = rembg.TransportError
)

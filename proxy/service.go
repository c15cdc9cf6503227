package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/chaos-io/photoframe/rembg"
	"github.com/chaos-io/photoframe/upload"
	"github.com/chaos-io/photoframe/util"
	"github.com/chaos-io/photoframe/util/log"
	"github.com/sirupsen/logrus"
)

const dataURLPrefix = "data:image/png;base64,"

// Upload is one received file. Size < 0 means unknown.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type Result struct {
	Data []byte
	// Skipped is set when the original already had transparency and was
	// returned without calling the remote service.
	Skipped bool
}

func (r *Result) DataURL() string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(r.Data)
}

type Option func(*Service)

func WithSkipTransparent(skip bool) Option {
	return func(s *Service) {
		s.skipTransparent = skip
	}
}

type Service struct {
	remover rembg.Remover
	store   upload.Store
	log     *logrus.Logger

	skipTransparent bool
}

func New(remover rembg.Remover, store upload.Store, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		remover: remover,
		store:   store,
		log:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoveBackground forwards one upload to the remover. The spooled copy of
// the upload is released before returning, whatever the outcome.
func (s *Service) RemoveBackground(ctx context.Context, u Upload) (*Result, error) {
	if u.Body == nil || u.Size == 0 {
		return nil, ErrNoFileUploaded
	}

	if err := s.remover.Validate(); err != nil {
		s.log.WithField("error", err.Error()).Error("background removal is not configured")
		return nil, err
	}

	h, err := s.store.Put(ctx, u.Filename, u.Body)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}
	defer func() {
		if err := h.Release(); err != nil {
			s.log.WithFields(log.Fields{"file": h.Path(), "error": err.Error()}).Error("release upload")
		}
	}()

	if h.Size == 0 {
		return nil, ErrNoFileUploaded
	}

	if s.skipTransparent {
		if res, ok := s.passthrough(h); ok {
			return res, nil
		}
	}

	rc, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()

	out, err := s.remover.Remove(ctx, u.Filename, rc)
	if err != nil {
		s.logFailure(u, err)
		return nil, err
	}

	s.log.WithFields(log.Fields{
		"file_name": u.Filename,
		"in_bytes":  h.Size,
		"out_bytes": len(out),
	}).Info("background removed")
	return &Result{Data: out}, nil
}

func (s *Service) RemoveBackgroundBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	return s.RemoveBackground(ctx, Upload{
		Filename: filename,
		Size:     int64(len(data)),
		Body:     bytes.NewReader(data),
	})
}

// passthrough returns the upload as PNG when it already carries alpha.
func (s *Service) passthrough(h *upload.Handle) (*Result, bool) {
	data, err := h.Bytes()
	if err != nil {
		return nil, false
	}
	img, err := util.DecodeImageBytes(data)
	if err != nil || !util.HasUsefulAlpha(img) {
		return nil, false
	}
	png, err := util.EncodePNG(img)
	if err != nil {
		return nil, false
	}
	s.log.WithField("file_name", h.Name).Debug("upload already transparent, skip remote call")
	return &Result{Data: png, Skipped: true}, true
}

func (s *Service) logFailure(u Upload, err error) {
	fields := log.Fields{"file_name": u.Filename, "error": err.Error()}

	var remote *RemoteServiceError
	var transport *TransportError
	switch {
	case errors.As(err, &remote):
		fields["status"] = remote.StatusCode
		fields["body"] = remote.Body
		s.log.WithFields(fields).Error("remote service rejected image")
	case errors.As(err, &transport):
		fields["op"] = transport.Op
		s.log.WithFields(fields).Error("remote service unreachable")
	default:
		s.log.WithFields(fields).Error("background removal failed")
	}
}

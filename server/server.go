// Package server exposes the background-removal proxy and server-side
// compositing over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/chaos-io/photoframe/frame"
	"github.com/chaos-io/photoframe/proxy"
	"github.com/chaos-io/photoframe/util"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Addr           string
	MaxUploadBytes int64
	StaticDir      string
	CanvasSize     int
	MaxSourceEdge  int
	MaxScale       float64
	CenterSubject  bool
}

type Server struct {
	opts Options
	svc  *proxy.Service
	log  *logrus.Logger

	frame    image.Image
	framePNG []byte

	engine *gin.Engine
	http   *http.Server
}

func New(svc *proxy.Service, art image.Image, logger *logrus.Logger, opts Options) (*Server, error) {
	if opts.CanvasSize <= 0 {
		return nil, errors.New("canvas size must be positive")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	art = frame.FitAsset(art, image.Pt(opts.CanvasSize, opts.CanvasSize))
	var framePNG []byte
	if art != nil {
		var err error
		if framePNG, err = util.EncodePNG(art); err != nil {
			return nil, fmt.Errorf("encode frame asset: %w", err)
		}
	}

	s := &Server{
		opts:     opts,
		svc:      svc,
		log:      logger,
		frame:    art,
		framePNG: framePNG,
	}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.WithField("addr", s.opts.Addr).Info("server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

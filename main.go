package main

import (
	"context"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaos-io/photoframe/config"
	"github.com/chaos-io/photoframe/frame"
	"github.com/chaos-io/photoframe/proxy"
	"github.com/chaos-io/photoframe/rembg"
	"github.com/chaos-io/photoframe/server"
	"github.com/chaos-io/photoframe/upload"
	"github.com/chaos-io/photoframe/util/log"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	logger := log.New(log.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	art := loadFrame(cfg.Frame, logger)
	remover := newRemover(cfg.RemoveBG, logger)

	store, sweeper, err := newStore(cfg.Upload, logger)
	if err != nil {
		logger.Fatalf("Error preparing upload storage: %v", err)
	}
	if sweeper != nil {
		if err := sweeper.Start(cfg.Upload.Sweep); err != nil {
			logger.Fatalf("Error scheduling upload sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	svc := proxy.New(remover, store, logger, proxy.WithSkipTransparent(cfg.RemoveBG.SkipTransparent))
	srv, err := server.New(svc, art, logger, server.Options{
		Addr:           cfg.Addr(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		StaticDir:      cfg.StaticDir,
		CanvasSize:     cfg.Frame.CanvasSize,
		MaxSourceEdge:  cfg.Frame.MaxSourceEdge,
		MaxScale:       cfg.Frame.MaxScale,
		CenterSubject:  cfg.Frame.CenterSubject,
	})
	if err != nil {
		logger.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Error shutting down server: %v", err)
	}
}

func loadFrame(cfg config.Frame, logger *logrus.Logger) image.Image {
	if cfg.Path != "" {
		art, err := frame.LoadAsset(cfg.Path)
		if err == nil {
			return art
		}
		logger.WithFields(log.Fields{"path": cfg.Path, "error": err.Error()}).Warn("frame asset unavailable, using built-in ring")
	}
	return frame.RingAsset(cfg.CanvasSize, frame.DefaultBackgroundColor, frame.DefaultRingColor)
}

func newRemover(cfg config.RemoveBG, logger *logrus.Logger) rembg.Remover {
	if cfg.Provider == config.ProviderNone {
		logger.Warn("background removal disabled, uploads are returned unchanged")
		return rembg.NewNoop()
	}
	if cfg.APIKey == "" {
		logger.Warn("REMOVE_BG_API_KEY is not set, background removal requests will fail")
	}
	return rembg.NewClient(rembg.Config{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Size:     cfg.Size,
		Encoding: rembg.Encoding(cfg.Encoding),
		Timeout:  cfg.Timeout,
	}, nil)
}

func newStore(cfg config.Upload, logger *logrus.Logger) (upload.Store, *upload.Sweeper, error) {
	if cfg.Storage == config.StorageMemory {
		return upload.NewMemory(cfg.MaxBytes), nil, nil
	}
	disk, err := upload.NewDisk(cfg.Dir, cfg.MaxBytes)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Sweep == "" {
		return disk, nil, nil
	}
	return disk, upload.NewSweeper(disk.Dir(), cfg.MaxAge, logger), nil
}

package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/chaos-io/photoframe/editor"
	"github.com/chaos-io/photoframe/frame"
	"github.com/chaos-io/photoframe/proxy"
	"github.com/chaos-io/photoframe/upload"
	"github.com/gin-gonic/gin"
)

const photoField = "photo"

type composeForm struct {
	OffsetX  float64 `form:"offset_x"`
	OffsetY  float64 `form:"offset_y"`
	Scale    float64 `form:"scale" binding:"omitempty,gt=0"`
	Zoom     int     `form:"zoom" binding:"min=-50,max=50"`
	RemoveBG bool    `form:"remove_bg"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
}

func (s *Server) frameAsset(c *gin.Context) {
	if s.framePNG == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/png", s.framePNG)
}

func (s *Server) removeBackground(c *gin.Context) {
	fh, err := s.formPhoto(c)
	if err != nil {
		s.writeError(c, "remove_background", err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.writeError(c, "remove_background", fmt.Errorf("open form file: %w", err))
		return
	}
	defer f.Close()

	res, err := s.svc.RemoveBackground(c.Request.Context(), proxy.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		s.writeError(c, "remove_background", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": res.DataURL()})
}

// compose renders one framed photo server-side from the posted view.
func (s *Server) compose(c *gin.Context) {
	var form composeForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: %s", errInvalidForm, err.Error())
		}
		s.writeError(c, "compose", err)
		return
	}
	if form.Scale == 0 {
		form.Scale = 1
	}

	fh, err := s.formPhoto(c)
	if err != nil {
		s.writeError(c, "compose", err)
		return
	}
	data, err := readFormFile(fh)
	if err != nil {
		s.writeError(c, "compose", err)
		return
	}

	if form.RemoveBG {
		res, err := s.svc.RemoveBackgroundBytes(c.Request.Context(), fh.Filename, data)
		if err != nil {
			s.writeError(c, "compose", err)
			return
		}
		data = res.Data
	}

	src, err := frame.DecodeSource(data, s.opts.MaxSourceEdge)
	if err != nil {
		s.writeError(c, "compose", fmt.Errorf("%w: %s", errInvalidImage, err.Error()))
		return
	}

	comp := frame.NewCompositor(
		frame.NewRaster(s.opts.CanvasSize, s.opts.CanvasSize),
		s.frame,
		frame.WithMaxScale(s.opts.MaxScale),
		frame.WithCenterSubject(s.opts.CenterSubject),
		frame.WithLogger(s.log),
	)
	comp.LoadImage(src)
	comp.SetView(frame.View{
		Offset: frame.Point{X: form.OffsetX, Y: form.OffsetY},
		Scale:  form.Scale,
	})
	for i := 0; i < abs(form.Zoom); i++ {
		if form.Zoom > 0 {
			comp.Zoom(frame.ZoomIn)
		} else {
			comp.Zoom(frame.ZoomOut)
		}
	}

	out, err := comp.Export()
	if err != nil {
		s.writeError(c, "compose", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", editor.DownloadName))
	c.Data(http.StatusOK, "image/png", out)
}

func (s *Server) formPhoto(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(photoField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, proxy.ErrNoFileUploaded
	}
	if fh.Size > s.opts.MaxUploadBytes {
		return nil, upload.ErrTooLarge
	}
	return fh, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	if len(data) == 0 {
		return nil, proxy.ErrNoFileUploaded
	}
	return data, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package server

import (
	"errors"
	"net/http"

	"github.com/chaos-io/photoframe/proxy"
	"github.com/chaos-io/photoframe/upload"
	"github.com/chaos-io/photoframe/util/log"
	"github.com/gin-gonic/gin"
)

var (
	errInvalidImage = errors.New("uploaded file is not a supported image")
	errInvalidForm  = errors.New("invalid form")
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status,omitempty"`
}

// writeError maps a failure onto the response. It is the only place that
// decides status codes for the api routes.
func (s *Server) writeError(c *gin.Context, op string, err error) {
	fields := log.Fields{
		"request_id": requestIDFrom(c),
		"path":       c.Request.URL.Path,
		"operation":  op,
		"error":      err.Error(),
	}

	var remote *proxy.RemoteServiceError
	var transport *proxy.TransportError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, proxy.ErrNoFileUploaded):
		s.log.WithFields(fields).Warn("No file uploaded")
		c.JSON(http.StatusBadRequest, errorBody{Error: "No file uploaded", Code: "NO_FILE_UPLOADED"})

	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &tooLarge):
		s.log.WithFields(fields).Warn("Upload too large")
		c.JSON(http.StatusRequestEntityTooLarge, errorBody{Error: "File too large", Code: "FILE_TOO_LARGE"})

	case errors.Is(err, errInvalidImage):
		s.log.WithFields(fields).Warn("Invalid image")
		c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidImage.Error(), Code: "INVALID_IMAGE"})

	case errors.Is(err, errInvalidForm):
		s.log.WithFields(fields).Warn("Invalid form")
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "INVALID_FORM"})

	case errors.Is(err, proxy.ErrMissingCredential):
		s.log.WithFields(fields).Error("Missing API credential")
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "MISSING_CREDENTIAL"})

	case errors.As(err, &remote):
		fields["remote_status"] = remote.StatusCode
		s.log.WithFields(fields).Error("Remote service error")
		c.JSON(http.StatusBadGateway, errorBody{Error: remote.Body, Code: "REMOTE_SERVICE_ERROR", Status: remote.StatusCode})

	case errors.As(err, &transport):
		s.log.WithFields(fields).Error("Remote service unreachable")
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Something went wrong", Code: "TRANSPORT_ERROR"})

	default:
		s.log.WithFields(fields).Error("Internal server error")
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Something went wrong", Code: "INTERNAL"})
	}
}

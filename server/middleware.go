package server

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/chaos-io/photoframe/util/log"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const RequestIDKey = "X-Request-ID"

// multipartSlack covers boundaries and form fields around the file itself.
const multipartSlack = 64 << 10

func newRequestID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDKey)
		if id == "" {
			id, _ = newRequestID(time.Now())
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDKey, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	id := c.GetString(RequestIDKey)
	if id == "" {
		return "unknown"
	}
	return id
}

func accessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(log.Fields{
			"request_id":    requestIDFrom(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		})

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Server error")
		case status >= http.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Success")
		}
	}
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartSlack)
		c.Next()
	}
}

func (s *Server) recovery(c *gin.Context, err any) {
	s.log.WithFields(log.Fields{
		"request_id": requestIDFrom(c),
		"path":       c.Request.URL.Path,
		"panic":      err,
	}).Error("handler panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Something went wrong", Code: "INTERNAL"})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	r.Use(gin.CustomRecovery(s.recovery))
	r.Use(requestID())
	r.Use(accessLog(s.log))

	r.GET("/", s.health)
	r.GET("/frame.png", s.frameAsset)

	api := r.Group("/api")
	api.Use(limitBody(s.opts.MaxUploadBytes))
	api.POST("/remove-bg", s.removeBackground)
	api.POST("/compose", s.compose)

	if s.opts.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.opts.StaticDir))))
	}
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	return r
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), CorsMiddleware())

	router.GET("/health", s.HealthCheck)
	router.POST("/api/verify-password", s.VerifyPassword)
	router.GET("/ws", s.UpgradeHandler)

	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.publicDir))))

	return router
}

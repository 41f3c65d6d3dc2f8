package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

func (s *HTTPServer) VerifyPassword(c *gin.Context) {
	var req verifyPasswordRequest
	_ = c.ShouldBindJSON(&req)

	if !s.gate.CheckPassword(req.Password) {
		s.logger.Info(c.Request.Context(), "password rejected", "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Wrong password"})
		return
	}

	token, err := s.gate.Issue()
	if err != nil {
		s.logger.Error(c.Request.Context(), "issue session token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (s *HTTPServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"connections": s.hub.Count(),
	})
}

// UpgradeHandler turns the request into a session channel and serves it
// until the client goes away.
func (s *HTTPServer) UpgradeHandler(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}

	if err := s.hub.Serve(c.Request.Context(), conn); err != nil {
		s.logger.Debug(c.Request.Context(), "session ended", "error", err)
	}
}

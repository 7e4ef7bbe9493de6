package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bakerychat/internal/session"
)

// ChatRequest is one visitor message
type ChatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleHistory(c *gin.Context) {
	sess := session.FromContext(c)
	c.JSON(http.StatusOK, gin.H{"messages": sess.Transcript()})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	turn, err := s.orchestrator.Handle(c.Request.Context(), session.FromContext(c), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"bakerychat/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func (s *Server) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{
		"title":    "Bakery Customer Service Chatbot",
		"active":   "home",
		"messages": session.FromContext(c).Transcript(),
	})
}

func (s *Server) handleInformationPage(c *gin.Context) {
	sess := session.FromContext(c)
	c.HTML(http.StatusOK, "information.html", gin.H{
		"title":   "Manage Bakery Information",
		"active":  "information",
		"profile": sess.Profile(),
		"warning": sess.Warning(),
	})
}

func (s *Server) handleProfilePage(c *gin.Context) {
	c.HTML(http.StatusOK, "profile.html", gin.H{
		"title":  "Profile",
		"active": "profile",
	})
}

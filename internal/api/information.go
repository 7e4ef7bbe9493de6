package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bakerychat/internal/catalog"
	"bakerychat/internal/models"
	"bakerychat/internal/session"
)

// ItemRequest adds or edits one menu line
type ItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func informationBody(sess *session.Session, message string) gin.H {
	profile := sess.Profile()
	body := gin.H{"items": profile.Items, "header": profile.Header}
	if w := sess.Warning(); w != "" {
		body["warning"] = w
	}
	if message != "" {
		body["message"] = message
	}
	return body
}

func (s *Server) handleGetInformation(c *gin.Context) {
	c.JSON(http.StatusOK, informationBody(session.FromContext(c), ""))
}

func (s *Server) handleAddItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := session.FromContext(c)
	err := sess.EditProfile(func(p *models.BakeryProfile) error {
		return catalog.AddItem(p, req.Name, req.Price)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, informationBody(sess, fmt.Sprintf("Added %s at $%.2f", req.Name, req.Price)))
}

func (s *Server) handleEditItem(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := session.FromContext(c)
	err := sess.EditProfile(func(p *models.BakeryProfile) error {
		return catalog.EditItem(p, index, req.Name, req.Price)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, informationBody(sess, fmt.Sprintf("Updated %s at $%.2f", req.Name, req.Price)))
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	sess := session.FromContext(c)
	var removed models.MenuItem
	err := sess.EditProfile(func(p *models.BakeryProfile) error {
		var err error
		removed, err = catalog.DeleteItem(p, index)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, informationBody(sess, fmt.Sprintf("Deleted %s", removed.Name)))
}

func (s *Server) handleUpdateGeneral(c *gin.Context) {
	var header models.ProfileHeader
	if err := c.ShouldBindJSON(&header); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := session.FromContext(c)
	sess.SetHeader(header)
	c.JSON(http.StatusOK, informationBody(sess, "General information updated!"))
}

func (s *Server) handleSave(c *gin.Context) {
	sess := session.FromContext(c)
	err := s.catalog.Save(sess.Profile())
	s.metrics.RecordMenuSave(err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, informationBody(sess, "Bakery information saved to CSV."))
}

// indexParam parses the :index path segment, writing a 400 when it is not a number
func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item index " + c.Param("index")})
		return 0, false
	}
	return index, true
}

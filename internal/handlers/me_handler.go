package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/httpresp"
	"github.com/opencare/care-scheduler/internal/middleware"
	"github.com/opencare/care-scheduler/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	p := middleware.Principal(c)

	var user models.User
	if err := h.db.First(&user, p.UserID).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "User not found.")
		return
	}

	httpresp.OK(c, user)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accountdesk/internal/middleware"
	"accountdesk/internal/models"
)

type profileRequest struct {
	ProfileImage *string `json:"profile_image"`
	Twitter      *string `json:"twitter"`
	Instagram    *string `json:"instagram"`
	LinkedIn     *string `json:"linkedin"`
	GitHub       *string `json:"github"`
	Bio          *string `json:"bio"`
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	uid, _ := middleware.SubjectID(c)

	profile, err := h.profiles.Get(c.Request.Context(), uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	uid, _ := middleware.SubjectID(c)

	var req profileRequest
	if !bind(c, &req) {
		return
	}

	err := h.profiles.Update(c.Request.Context(), uid, models.ProfileInput{
		ProfileImage: req.ProfileImage,
		Twitter:      req.Twitter,
		Instagram:    req.Instagram,
		LinkedIn:     req.LinkedIn,
		GitHub:       req.GitHub,
		Bio:          req.Bio,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

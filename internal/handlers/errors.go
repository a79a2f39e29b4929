package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accountdesk/internal/database"
	"accountdesk/internal/models"
	"accountdesk/internal/service"
)

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrMissingFields, http.StatusBadRequest, "Missing fields"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "Invalid email"},
	{service.ErrPasswordTooShort, http.StatusBadRequest, "Password too short"},
	{service.ErrPasswordTooLong, http.StatusBadRequest, "Password too long"},
	{service.ErrEmailTaken, http.StatusConflict, "Email already in use"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{service.ErrInvalidAvatar, http.StatusBadRequest, "Invalid profile image"},
	{models.ErrHandleTooLong, http.StatusBadRequest, "Social handle too long"},
	{database.ErrPoolSaturated, http.StatusServiceUnavailable, "Service unavailable"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "Service unavailable"},
}

// fail answers err with its fixed client message. Anything unrecognised is
// logged and hidden behind a generic 500.
func (h HandlerSet) fail(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.message})
			return
		}
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// bind decodes the JSON body. An empty body decodes to the zero request so
// field validation reports what is missing.
func bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}

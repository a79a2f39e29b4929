package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accountdesk/internal/middleware"
	"accountdesk/internal/service"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if !bind(c, &req) {
		return
	}

	if _, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	}); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully"})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Signin(c *gin.Context) {
	var req signinRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.auth.Signin(c.Request.Context(), service.SigninInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.carrier.Set(c.Writer, result.Token)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in"})
}

func (h HandlerSet) Me(c *gin.Context) {
	uid, _ := middleware.SubjectID(c)

	me, err := h.auth.Me(c.Request.Context(), uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

// Logout always succeeds. The cookie is cleared whether or not it held a
// valid token.
func (h HandlerSet) Logout(c *gin.Context) {
	var uid int64
	if raw := h.carrier.Token(c.Request); raw != "" {
		uid, _ = h.tokens.Verify(raw)
	}

	h.carrier.Clear(c.Writer)
	h.auth.Logout(c.Request.Context(), uid, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

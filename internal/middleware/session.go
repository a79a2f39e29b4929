package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accountdesk/internal/security"
)

const subjectKey = "subject_id"

type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Session guards a route group. A request without the session cookie gets
// 401, one whose token fails verification gets 403. Otherwise the subject id
// is stored on the context for handlers.
func Session(carrier security.CookieCarrier, tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := carrier.Token(c.Request)
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		uid, err := tokens.Verify(raw)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("session rejected")
			abortJSON(c, http.StatusForbidden, "Invalid token")
			return
		}

		c.Set(subjectKey, uid)
		reqLog := zerolog.Ctx(c.Request.Context()).With().Int64("user_id", uid).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()
	}
}

// SubjectID returns the user id the session guard verified for this request.
func SubjectID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(subjectKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accountdesk/internal/database"
)

// Admission lets a request through only if the store gate has room, waiting
// for a running slot up to the gate's limit.
func Admission(gate *database.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		release, err := gate.Enter(c.Request.Context())
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Int64("capacity", gate.Capacity()).Msg("store saturated")
			abortJSON(c, http.StatusServiceUnavailable, "Service unavailable")
			return
		}
		defer release()

		c.Next()
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Database:    h.probe(ctx, "database", h.dbPing),
		Cache:       h.probe(ctx, "redis", h.cache),
		Storage:     h.probe(ctx, "object storage", h.storage),
		Environment: h.cfg.Environment,
	})
}

func (h HandlerSet) probe(ctx context.Context, name string, ping func(context.Context) error) string {
	if ping == nil {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health ping failed")
		return "error"
	}
	return "ok"
}

// Ready reports 503 once shutdown has started so load balancers drain the
// instance before the listener closes.
func (h HandlerSet) Ready(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

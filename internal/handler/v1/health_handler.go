package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/psyscribe/psyscribe/internal/transcription"
)

type HealthHandler struct {
	db            *gorm.DB
	transcription *transcription.Client
	version       string
}

func NewHealthHandler(db *gorm.DB, tc *transcription.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, transcription: tc, version: version}
}

// Live reports process liveness only.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready checks the dependencies a request actually needs: the database and
// the transcription service. The completion API is intentionally excluded;
// its circuit breaker degrades per-request instead of failing readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unreachable"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.transcription.Health(ctx); err != nil {
		checks["transcription"] = "unreachable"
		// Degraded, not down: typed notes still work without audio.
		checks["degraded"] = true
	} else {
		checks["transcription"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": checks, "version": h.version})
}

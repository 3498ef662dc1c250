package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/service"
)

// CatalogSyncer runs one catalog sync.
type CatalogSyncer interface {
	Run(ctx context.Context, trigger models.SyncTrigger) (*service.SyncReport, error)
}

// Revalidator drops cached storefront pages.
type Revalidator interface {
	Revalidate(ctx context.Context) (int, error)
}

// CronHandler serves the scheduler endpoints. Authentication is done by
// middleware.CronMiddleware.
type CronHandler struct {
	syncer      CatalogSyncer
	revalidator Revalidator
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(syncer CatalogSyncer, revalidator Revalidator) *CronHandler {
	return &CronHandler{syncer: syncer, revalidator: revalidator}
}

// SyncProducts handles GET /api/cron/sync-products
func (h *CronHandler) SyncProducts(c *gin.Context) {
	report, err := h.syncer.Run(c.Request.Context(), models.TriggerScheduled)
	writeSyncResult(c, report, err)
}

// Revalidate handles GET /api/cron/revalidate
func (h *CronHandler) Revalidate(c *gin.Context) {
	n, err := h.revalidator.Revalidate(c.Request.Context())
	now := time.Now().UnixMilli()
	if err != nil {
		log.Error().Err(err).Msg("Cache revalidation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"revalidated": false, "now": now, "error": err.Error()})
		return
	}
	log.Info().Int("keys", n).Msg("Product cache revalidated")
	c.JSON(http.StatusOK, gin.H{"revalidated": true, "now": now})
}

// writeSyncResult renders the flat {success, count, error} trigger payload.
func writeSyncResult(c *gin.Context, report *service.SyncReport, err error) {
	body := gin.H{}
	if report != nil {
		body["runId"] = report.RunID
	}
	if err != nil {
		body["success"] = false
		body["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	body["success"] = true
	body["count"] = report.Written
	body["fetched"] = report.Fetched
	body["skipped"] = report.Skipped + report.Rejected
	body["deactivated"] = report.Deactivated
	body["message"] = "Catalog synced"
	c.JSON(http.StatusOK, body)
}

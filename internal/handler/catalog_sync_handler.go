package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/utils"
)

// SyncRunLister lists recorded sync runs.
type SyncRunLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// CatalogSyncHandler exposes manual sync to operators.
type CatalogSyncHandler struct {
	syncer CatalogSyncer
	runs   SyncRunLister
}

// NewCatalogSyncHandler creates a new CatalogSyncHandler.
func NewCatalogSyncHandler(syncer CatalogSyncer, runs SyncRunLister) *CatalogSyncHandler {
	return &CatalogSyncHandler{syncer: syncer, runs: runs}
}

// TriggerSync handles POST /v1/admin/catalog/sync
func (h *CatalogSyncHandler) TriggerSync(c *gin.Context) {
	log.Info().Int("user_id", c.GetInt("user_id")).Msg("Manual catalog sync requested")
	report, err := h.syncer.Run(c.Request.Context(), models.TriggerManual)
	writeSyncResult(c, report, err)
}

// ListRuns handles GET /v1/admin/sync-runs
func (h *CatalogSyncHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve sync runs")
		return
	}
	utils.Success(c, 200, "Sync runs retrieved", runs)
}

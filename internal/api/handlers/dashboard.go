package handlers

import (
	"net/http"

	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type DashboardSummary struct {
	TotalCompanies     int64            `json:"total_companies"`
	TotalDeals         int64            `json:"total_deals"`
	OpenDeals          int64            `json:"open_deals"`
	WonDeals           int64            `json:"won_deals"`
	PipelineValueCents int64            `json:"pipeline_value_cents"`
	DealsByStage       map[string]int64 `json:"deals_by_stage"`
}

// Summary handles GET /api/v1/dashboard/summary. Aggregates for the
// charts on the landing view; everything is a plain count or sum over
// the caller's organization.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	summary := DashboardSummary{DealsByStage: make(map[string]int64)}

	h.db.Model(&models.Company{}).Where("organization_id = ?", orgID).Count(&summary.TotalCompanies)
	h.db.Model(&models.Deal{}).Where("organization_id = ?", orgID).Count(&summary.TotalDeals)
	h.db.Model(&models.Deal{}).
		Where("organization_id = ? AND stage NOT IN ?", orgID, []models.DealStage{models.DealStageWon, models.DealStageLost}).
		Count(&summary.OpenDeals)
	h.db.Model(&models.Deal{}).
		Where("organization_id = ? AND stage = ?", orgID, models.DealStageWon).
		Count(&summary.WonDeals)

	h.db.Model(&models.Deal{}).
		Where("organization_id = ? AND stage NOT IN ?", orgID, []models.DealStage{models.DealStageWon, models.DealStageLost}).
		Select("COALESCE(SUM(value_cents), 0)").
		Scan(&summary.PipelineValueCents)

	var rows []struct {
		Stage string
		Count int64
	}
	h.db.Model(&models.Deal{}).
		Where("organization_id = ?", orgID).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Scan(&rows)
	for _, row := range rows {
		summary.DealsByStage[row.Stage] = row.Count
	}

	writeJSON(w, http.StatusOK, summary)
}

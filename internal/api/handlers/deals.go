package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/api/dto"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

type DealHandler struct {
	db *gorm.DB
}

func NewDealHandler(db *gorm.DB) *DealHandler {
	return &DealHandler{db: db}
}

type DealRequest struct {
	CompanyID  string `json:"company_id"`
	Title      string `json:"title"`
	Stage      string `json:"stage,omitempty"`
	ValueCents int64  `json:"value_cents,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

var dealStages = map[models.DealStage]bool{
	models.DealStageProspect:    true,
	models.DealStageQualified:   true,
	models.DealStageProposal:    true,
	models.DealStageNegotiation: true,
	models.DealStageWon:         true,
	models.DealStageLost:        true,
}

// List handles GET /api/v1/deals
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Deal{}).Where("organization_id = ?", orgID)
	if stage := r.URL.Query().Get("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		if id, err := uuid.Parse(companyID); err == nil {
			query = query.Where("company_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count deals"})
		return
	}

	var deals []models.Deal
	if err := query.
		Preload("Company").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&deals).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list deals"})
		return
	}

	totalPages := int((total + int64(pagination.PerPage) - 1) / int64(pagination.PerPage))
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       deals,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Create handles POST /api/v1/deals
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Title is required"})
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company id"})
		return
	}

	orgID := middleware.GetOrganizationID(r.Context())

	// The company must belong to the caller's organization.
	var count int64
	h.db.Model(&models.Company{}).Where("id = ? AND organization_id = ?", companyID, orgID).Count(&count)
	if count == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Company not found"})
		return
	}

	stage := models.DealStageProspect
	if req.Stage != "" {
		stage = models.DealStage(req.Stage)
		if !dealStages[stage] {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid stage"})
			return
		}
	}

	ownerID := middleware.GetUserID(r.Context())
	deal := models.Deal{
		OrganizationID: orgID,
		CompanyID:      companyID,
		OwnerID:        &ownerID,
		Title:          req.Title,
		Stage:          stage,
		ValueCents:     req.ValueCents,
	}
	if req.Currency != "" {
		deal.Currency = req.Currency
	}
	if err := h.db.Create(&deal).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create deal"})
		return
	}

	writeJSON(w, http.StatusCreated, deal)
}

// Get handles GET /api/v1/deals/{id}
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	deal, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// UpdateStage handles PUT /api/v1/deals/{id}/stage
func (h *DealHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	deal, ok := h.find(w, r)
	if !ok {
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	stage := models.DealStage(req.Stage)
	if !dealStages[stage] {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid stage"})
		return
	}

	deal.Stage = stage
	if err := h.db.Save(deal).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update deal"})
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// Delete handles DELETE /api/v1/deals/{id}
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deal, ok := h.find(w, r)
	if !ok {
		return
	}

	if err := h.db.Delete(deal).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete deal"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Deal deleted"})
}

func (h *DealHandler) find(w http.ResponseWriter, r *http.Request) (*models.Deal, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid deal id"})
		return nil, false
	}

	var deal models.Deal
	err = h.db.
		Preload("Company").
		Where("id = ? AND organization_id = ?", id, middleware.GetOrganizationID(r.Context())).
		First(&deal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Deal not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load deal"})
		return nil, false
	}
	return &deal, true
}

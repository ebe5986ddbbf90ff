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

type CompanyHandler struct {
	db *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

type CompanyRequest struct {
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	Industry string `json:"industry,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// List handles GET /api/v1/companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.Model(&models.Company{}).Where("organization_id = ?", orgID)
	if search := r.URL.Query().Get("q"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count companies"})
		return
	}

	var companies []models.Company
	if err := query.
		Order("name").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&companies).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list companies"})
		return
	}

	totalPages := int((total + int64(pagination.PerPage) - 1) / int64(pagination.PerPage))
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       companies,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Create handles POST /api/v1/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Name is required"})
		return
	}

	company := models.Company{
		OrganizationID: middleware.GetOrganizationID(r.Context()),
		Name:           req.Name,
		Domain:         req.Domain,
		Industry:       req.Industry,
		Notes:          req.Notes,
	}
	if err := h.db.Create(&company).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create company"})
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

// Get handles GET /api/v1/companies/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Update handles PUT /api/v1/companies/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	company, ok := h.find(w, r)
	if !ok {
		return
	}

	var req CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Name != "" {
		company.Name = req.Name
	}
	company.Domain = req.Domain
	company.Industry = req.Industry
	company.Notes = req.Notes

	if err := h.db.Save(company).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update company"})
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Delete handles DELETE /api/v1/companies/{id}
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	company, ok := h.find(w, r)
	if !ok {
		return
	}

	if err := h.db.Delete(company).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete company"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Company deleted"})
}

func (h *CompanyHandler) find(w http.ResponseWriter, r *http.Request) (*models.Company, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company id"})
		return nil, false
	}

	var company models.Company
	err = h.db.
		Where("id = ? AND organization_id = ?", id, middleware.GetOrganizationID(r.Context())).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Company not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load company"})
		return nil, false
	}
	return &company, true
}

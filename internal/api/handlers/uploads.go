package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/api/dto"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/uploads"
)

// Uploads above this size get rejected before presigning.
const maxUploadBytes = 100 << 20

type UploadHandler struct {
	store *uploads.Store
}

func NewUploadHandler(store *uploads.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

type CreateUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type CreateUploadResponse struct {
	Upload *models.Upload `json:"upload"`
	URL    string         `json:"url"`
}

// Create handles POST /api/v1/uploads
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())

	var req CreateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.FileName == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "file_name is required"})
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "size_bytes out of range"})
		return
	}

	presigned, err := h.store.CreateUpload(r.Context(), orgID, userID, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create upload"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateUploadResponse{
		Upload: presigned.Upload,
		URL:    presigned.URL,
	})
}

// List handles GET /api/v1/uploads
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	items, err := h.store.List(r.Context(), orgID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list uploads"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Download handles GET /api/v1/uploads/{id}/download
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	uploadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid upload ID"})
		return
	}

	url, err := h.store.DownloadURL(r.Context(), orgID, uploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Upload not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to presign download"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Delete handles DELETE /api/v1/uploads/{id}
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	uploadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid upload ID"})
		return
	}

	if err := h.store.Delete(r.Context(), orgID, uploadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Upload not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete upload"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Upload deleted"})
}

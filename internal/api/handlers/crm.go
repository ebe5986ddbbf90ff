package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/api/dto"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/crm"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/tasks"
	"github.com/harper/dealdesk/pkg/util"
)

type CRMHandler struct {
	service *crm.Service
	queue   *asynq.Client
}

func NewCRMHandler(service *crm.Service, queue *asynq.Client) *CRMHandler {
	return &CRMHandler{service: service, queue: queue}
}

type CreateConnectionRequest struct {
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccountID    string `json:"account_id,omitempty"`
	SyncSchedule string `json:"sync_schedule,omitempty"` // cron expression
}

var crmProviders = map[models.CRMProvider]bool{
	models.CRMProviderHubspot:    true,
	models.CRMProviderSalesforce: true,
	models.CRMProviderPipedrive:  true,
}

// Create handles POST /api/v1/crm/connections
func (h *CRMHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	var req CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Name == "" || req.ClientID == "" || req.ClientSecret == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "name, client_id and client_secret are required"})
		return
	}

	provider := models.CRMProvider(req.Provider)
	if !crmProviders[provider] {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown CRM provider"})
		return
	}

	if req.SyncSchedule != "" {
		if err := util.ValidateCronExpr(req.SyncSchedule); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cron expression"})
			return
		}
	}

	conn, err := h.service.CreateConnection(r.Context(), orgID, req.Name, provider, crm.Credential{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		AccountID:    req.AccountID,
	}, req.SyncSchedule)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create connection"})
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// List handles GET /api/v1/crm/connections
func (h *CRMHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	conns, err := h.service.ListConnections(r.Context(), orgID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list connections"})
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

// Delete handles DELETE /api/v1/crm/connections/{id}
func (h *CRMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	connID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid connection ID"})
		return
	}

	if err := h.service.DeleteConnection(r.Context(), orgID, connID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Connection not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete connection"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Connection deleted"})
}

// Sync handles POST /api/v1/crm/connections/{id}/sync. The sync itself
// runs on the worker; this only enqueues it.
func (h *CRMHandler) Sync(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	connID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid connection ID"})
		return
	}

	// Confirm ownership before enqueueing.
	if _, err := h.service.GetConnection(r.Context(), orgID, connID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Connection not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load connection"})
		return
	}

	task, err := tasks.NewCRMSyncTask(tasks.CRMSyncPayload{
		ConnectionID:   connID,
		OrganizationID: orgID,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build sync task"})
		return
	}
	if _, err := h.queue.EnqueueContext(r.Context(), task, asynq.MaxRetry(3)); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue sync"})
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SuccessResponse{Message: "Sync queued"})
}

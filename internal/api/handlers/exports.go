package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/harper/dealdesk/internal/api/dto"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/tasks"
)

type ExportHandler struct {
	queue *asynq.Client
}

func NewExportHandler(queue *asynq.Client) *ExportHandler {
	return &ExportHandler{queue: queue}
}

type DeckExportRequest struct {
	Stage string `json:"stage,omitempty"`
}

// Deck handles POST /api/v1/exports/deck. The export lands in the
// organization's uploads once the worker finishes.
func (h *ExportHandler) Deck(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())

	var req DeckExportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}
	if req.Stage != "" && !dealStages[models.DealStage(req.Stage)] {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown deal stage"})
		return
	}

	task, err := tasks.NewDeckExportTask(tasks.DeckExportPayload{
		OrganizationID: orgID,
		RequestedByID:  userID,
		Stage:          req.Stage,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build export task"})
		return
	}
	if _, err := h.queue.EnqueueContext(r.Context(), task, asynq.MaxRetry(3)); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue export"})
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SuccessResponse{Message: "Export queued"})
}

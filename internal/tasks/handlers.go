package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/crm"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/uploads"
	"github.com/harper/dealdesk/pkg/util"
)

// Mailer delivers invite notifications. The worker binary wires in an
// implementation; tests use a recording fake.
type Mailer interface {
	SendInvite(ctx context.Context, to, inviteURL, orgName string) error
}

// LogMailer writes invite mail to the log instead of sending it. Used
// in development and as the default until an ESP account exists.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendInvite(ctx context.Context, to, inviteURL, orgName string) error {
	m.Logger.Info("invite mail",
		"to", to,
		"org", orgName,
		"url", inviteURL,
	)
	return nil
}

type Handler struct {
	db         *gorm.DB
	logger     *slog.Logger
	crmService *crm.Service
	store      *uploads.Store
	mailer     Mailer
	queue      *asynq.Client
	baseURL    string
}

func NewHandler(db *gorm.DB, logger *slog.Logger, crmService *crm.Service, store *uploads.Store, mailer Mailer, queue *asynq.Client, baseURL string) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		crmService: crmService,
		store:      store,
		mailer:     mailer,
		queue:      queue,
		baseURL:    baseURL,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInviteNotify, h.HandleInviteNotify)
	mux.HandleFunc(TypeCRMSync, h.HandleCRMSync)
	mux.HandleFunc(TypeDeckExport, h.HandleDeckExport)
	mux.HandleFunc(TypeSchedulerTick, h.HandleSchedulerTick)
}

func (h *Handler) HandleInviteNotify(ctx context.Context, t *asynq.Task) error {
	var payload InviteNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var invite models.Invite
	err := h.db.WithContext(ctx).
		Preload("Organization").
		First(&invite, "id = ?", payload.InviteID).Error
	if err != nil {
		return fmt.Errorf("loading invite: %w", err)
	}

	// The invite may have been redeemed between enqueue and delivery.
	if invite.Status != models.InviteStatusPending {
		h.logger.Debug("skipping notification for settled invite", "invite_id", invite.ID)
		return nil
	}

	orgName := ""
	if invite.Organization != nil {
		orgName = invite.Organization.Name
	}
	inviteURL := fmt.Sprintf("%s/invites/%s", h.baseURL, invite.Token)

	if err := h.mailer.SendInvite(ctx, invite.Email, inviteURL, orgName); err != nil {
		return fmt.Errorf("sending invite mail: %w", err)
	}

	h.logger.Info("invite notification sent",
		"invite_id", invite.ID,
		"email", invite.Email,
	)
	return nil
}

func (h *Handler) HandleCRMSync(ctx context.Context, t *asynq.Task) error {
	var payload CRMSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting CRM sync",
		"connection", payload.ConnectionID,
		"org_id", payload.OrganizationID,
	)

	if err := h.crmService.Sync(ctx, payload.ConnectionID); err != nil {
		h.logger.Error("CRM sync failed", "connection", payload.ConnectionID, "error", err)
		return err
	}
	return nil
}

// HandleSchedulerTick fans out a sync task for every scheduled
// connection that has come due, then advances next_sync_at so the next
// tick does not enqueue the same run twice.
func (h *Handler) HandleSchedulerTick(ctx context.Context, t *asynq.Task) error {
	now := time.Now()
	conns, err := h.crmService.DueConnections(ctx, now)
	if err != nil {
		return fmt.Errorf("loading due connections: %w", err)
	}

	for _, conn := range conns {
		task, err := NewCRMSyncTask(CRMSyncPayload{
			ConnectionID:   conn.ID,
			OrganizationID: conn.OrganizationID,
		})
		if err != nil {
			return fmt.Errorf("building sync task: %w", err)
		}
		if _, err := h.queue.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
			h.logger.Error("enqueueing scheduled sync", "connection", conn.ID, "error", err)
			continue
		}

		next, err := util.NextCronTime(conn.SyncSchedule, now)
		if err != nil {
			h.logger.Error("computing next sync time", "connection", conn.ID, "error", err)
			continue
		}
		err = h.db.WithContext(ctx).Model(&conn).Update("next_sync_at", &next).Error
		if err != nil {
			h.logger.Error("advancing sync schedule", "connection", conn.ID, "error", err)
		}
		h.logger.Info("scheduled sync enqueued", "connection", conn.ID, "next", next)
	}
	return nil
}

func (h *Handler) HandleDeckExport(ctx context.Context, t *asynq.Task) error {
	var payload DeckExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting deck export",
		"org_id", payload.OrganizationID,
		"stage", payload.Stage,
	)

	query := h.db.WithContext(ctx).
		Preload("Company").
		Where("organization_id = ?", payload.OrganizationID)
	if payload.Stage != "" {
		query = query.Where("stage = ?", payload.Stage)
	}

	var deals []models.Deal
	if err := query.Order("created_at").Find(&deals).Error; err != nil {
		return fmt.Errorf("loading deals: %w", err)
	}

	data, err := renderDeck(deals)
	if err != nil {
		return fmt.Errorf("rendering deck: %w", err)
	}

	upload, err := h.store.PutObject(ctx, payload.OrganizationID, payload.RequestedByID,
		deckFileName(payload.Stage), "text/csv", data)
	if err != nil {
		return fmt.Errorf("storing deck: %w", err)
	}

	h.logger.Info("deck export complete",
		"org_id", payload.OrganizationID,
		"upload_id", upload.ID,
		"deals", len(deals),
	)
	return nil
}

package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInviteNotify  = "notify:invite"
	TypeCRMSync       = "crm:sync"
	TypeDeckExport    = "export:deck"
	TypeSchedulerTick = "scheduler:tick"
)

// NewSchedulerTickTask builds the periodic tick that fans out due
// scheduled syncs. It carries no payload.
func NewSchedulerTickTask() *asynq.Task {
	return asynq.NewTask(TypeSchedulerTick, nil)
}

// InviteNotifyPayload contains the data for an invite notification task
type InviteNotifyPayload struct {
	InviteID       uuid.UUID `json:"invite_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
}

func NewInviteNotifyTask(payload InviteNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInviteNotify, data), nil
}

// CRMSyncPayload contains the data for a CRM sync task
type CRMSyncPayload struct {
	ConnectionID   uuid.UUID `json:"connection_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

func NewCRMSyncTask(payload CRMSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCRMSync, data), nil
}

// DeckExportPayload contains the data for a deal deck export task
type DeckExportPayload struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	RequestedByID  uuid.UUID `json:"requested_by"`
	Stage          string    `json:"stage,omitempty"` // empty exports all stages
}

func NewDeckExportTask(payload DeckExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeckExport, data), nil
}

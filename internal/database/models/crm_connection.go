package models

import (
	"time"

	"github.com/google/uuid"
)

type CRMProvider string

const (
	CRMProviderHubspot    CRMProvider = "hubspot"
	CRMProviderSalesforce CRMProvider = "salesforce"
	CRMProviderPipedrive  CRMProvider = "pipedrive"
)

// CRMConnection stores an organization's CRM credentials. The
// credential payload is encrypted at rest; only the sync worker
// decrypts it.
type CRMConnection struct {
	Base
	OrganizationID uuid.UUID   `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string      `gorm:"not null" json:"name"`
	Provider       CRMProvider `gorm:"not null" json:"provider"`
	EncryptedData  []byte      `gorm:"not null" json:"-"`
	IsActive       bool        `gorm:"default:true" json:"is_active"`
	SyncSchedule   string      `json:"sync_schedule,omitempty"` // cron expression, empty means manual only
	NextSyncAt     *time.Time  `json:"next_sync_at,omitempty"`
	LastSyncedAt   *time.Time  `json:"last_synced_at,omitempty"`
	LastSyncError  string      `json:"last_sync_error,omitempty"`
}

func (CRMConnection) TableName() string {
	return "crm_connections"
}

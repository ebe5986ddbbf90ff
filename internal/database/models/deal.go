package models

import "github.com/google/uuid"

type DealStage string

const (
	DealStageProspect    DealStage = "prospect"
	DealStageQualified   DealStage = "qualified"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageWon         DealStage = "won"
	DealStageLost        DealStage = "lost"
)

type Deal struct {
	Base
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	OwnerID        *uuid.UUID `gorm:"type:uuid" json:"owner_id,omitempty"`
	Title          string     `gorm:"not null" json:"title"`
	Stage          DealStage  `gorm:"not null;default:'prospect'" json:"stage"`
	ValueCents     int64      `json:"value_cents"`
	Currency       string     `gorm:"default:'USD'" json:"currency"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (Deal) TableName() string {
	return "deals"
}

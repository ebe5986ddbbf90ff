package models

import "github.com/google/uuid"

type Company struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Domain         string    `json:"domain,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	Notes          string    `json:"notes,omitempty"`

	// Relationships
	Deals []Deal `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

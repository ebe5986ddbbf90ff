package models

import "github.com/google/uuid"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

// Invite is a token-bearing offer of one seat to an email address.
// At most one row exists per (organization, email); re-issuing rotates
// the token in place. The email is matched case-insensitively against
// the authenticated identity at redemption time, not by foreign key.
type Invite struct {
	Base
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_invites_org_email" json:"organization_id"`
	Email          string       `gorm:"not null;uniqueIndex:idx_invites_org_email" json:"email"`
	Token          string       `gorm:"uniqueIndex;not null" json:"-"`
	Status         InviteStatus `gorm:"not null;default:'pending'" json:"status"`
	InvitedByID    *uuid.UUID   `gorm:"type:uuid" json:"invited_by,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Invite) TableName() string {
	return "invites"
}

package seats

import (
	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Capacity is a point-in-time seat count for one organization. It is
// recomputed from live rows immediately before every seat-consuming
// write, never cached: concurrent requests can change seat state
// between a read and a write, so only a recount inside the writing
// transaction is trustworthy.
type Capacity struct {
	SeatLimit int `json:"seat_limit"`
	Used      int `json:"used"`
	Pending   int `json:"pending"`
}

// Available reports seats left for new invites or grants. Zero or
// negative is a valid saturated state, not an error.
func (c Capacity) Available() int {
	return c.SeatLimit - c.Used - c.Pending
}

// lockOrganization loads the organization row under a row-level write
// lock so the capacity recount stays fresh until commit. SQLite (used
// in tests) serializes writers on its own and rejects FOR UPDATE, so
// the clause is applied only on postgres.
func lockOrganization(tx *gorm.DB, orgID uuid.UUID) (*models.Organization, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var org models.Organization
	if err := q.First(&org, "id = ?", orgID).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// computeCapacity recounts used and pending seats for the organization
// inside the caller's transaction.
func computeCapacity(tx *gorm.DB, org *models.Organization) (Capacity, error) {
	cap := Capacity{SeatLimit: org.SeatLimit}

	var used int64
	if err := tx.Model(&models.User{}).
		Where("organization_id = ? AND is_active = ?", org.ID, true).
		Count(&used).Error; err != nil {
		return cap, err
	}

	var pending int64
	if err := tx.Model(&models.Invite{}).
		Where("organization_id = ? AND status = ?", org.ID, models.InviteStatusPending).
		Count(&pending).Error; err != nil {
		return cap, err
	}

	cap.Used = int(used)
	cap.Pending = int(pending)
	return cap, nil
}

// activeSeatsOnly recounts only active members. Redemption uses this
// variant: a redeeming invite already reserved its seat as a pending
// row, so it must not compete with other pending invites.
func activeSeatsOnly(tx *gorm.DB, org *models.Organization) (int, error) {
	var used int64
	err := tx.Model(&models.User{}).
		Where("organization_id = ? AND is_active = ?", org.ID, true).
		Count(&used).Error
	return int(used), err
}

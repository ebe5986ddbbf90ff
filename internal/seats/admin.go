package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

// CapacityWarning is attached to an admin grant that pushed active
// seats past the organization's ceiling. The grant still stands; admins
// are trusted to manage their own capacity, but the overshoot is
// surfaced instead of passing silently.
type CapacityWarning struct {
	Used      int `json:"used"`
	SeatLimit int `json:"seat_limit"`
}

func (w *CapacityWarning) String() string {
	return fmt.Sprintf("organization is over capacity: %d active seats of %d", w.Used, w.SeatLimit)
}

// ListUsers returns the organization's members for the admin view.
// Read-only; no seat logic.
func (s *Service) ListUsers(ctx context.Context, orgID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserActive is the direct administrative override. It bypasses
// admission control on purpose: the capacity check that guards invites
// and redemptions is not consulted, so this is the one path that can
// leave an organization over its seat ceiling. A grant that does so
// returns a CapacityWarning alongside the updated user. Grants stamp
// AccessGrantedAt; revokes clear it.
func (s *Service) SetUserActive(ctx context.Context, orgID, userID uuid.UUID, active bool, tier string) (*models.User, *CapacityWarning, error) {
	var (
		user    models.User
		warning *CapacityWarning
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := lockOrganization(tx, orgID)
		if err != nil {
			return err
		}

		err = tx.Where("id = ? AND organization_id = ?", userID, orgID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		user.IsActive = active
		if tier != "" {
			user.SubscriptionTier = tier
		}
		if active {
			now := time.Now()
			user.AccessGrantedAt = &now
		} else {
			user.AccessGrantedAt = nil
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		if active {
			used, err := activeSeatsOnly(tx, org)
			if err != nil {
				return err
			}
			if used > org.SeatLimit {
				warning = &CapacityWarning{Used: used, SeatLimit: org.SeatLimit}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if warning != nil {
		s.logger.Warn("admin grant exceeded seat limit",
			"organization_id", orgID,
			"used", warning.Used,
			"seat_limit", warning.SeatLimit,
		)
	}
	return &user, warning, nil
}

// SeatUsage reports the organization's current capacity for the admin
// seats view. The snapshot is advisory; writers always recount under
// the row lock.
func (s *Service) SeatUsage(ctx context.Context, orgID uuid.UUID) (Capacity, error) {
	var usage Capacity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.First(&org, "id = ?", orgID).Error; err != nil {
			return err
		}
		var err error
		usage, err = computeCapacity(tx, &org)
		return err
	})
	return usage, err
}

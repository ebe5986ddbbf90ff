package seats

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

// RequestAccess is the self-service path for a known but inactive
// identity: the requester invites themself into their existing
// organization and enters the same pending-seat accounting as an
// admin-issued invite. Already-active callers get an idempotent no-op;
// callers without an organization must go through payment provisioning.
func (s *Service) RequestAccess(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if user.IsActive {
		return nil
	}
	if user.OrganizationID == nil {
		return ErrNoOrganization
	}

	invitedBy := s.findOrgAdmin(ctx, *user.OrganizationID)

	_, err = s.Issue(ctx, *user.OrganizationID, user.Email, invitedBy)
	switch {
	case errors.Is(err, ErrAlreadyMember):
		// Raced with an activation; the requester has a seat.
		return nil
	case errors.Is(err, ErrInviteAccepted):
		// The requester redeemed once and was revoked since. Their own
		// spent invite reopens for another round; an admin re-issue to
		// a spent invite stays forbidden.
		return s.reopenOwnInvite(ctx, &user, invitedBy)
	}
	return err
}

// reopenOwnInvite resets the requester's accepted invite back to
// pending with a fresh token, re-reserving a seat under the same
// locked capacity recount as a new invite.
func (s *Service) reopenOwnInvite(ctx context.Context, user *models.User, invitedBy *uuid.UUID) error {
	var (
		invite   models.Invite
		reopened bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := lockOrganization(tx, *user.OrganizationID)
		if err != nil {
			return err
		}

		err = tx.Where("organization_id = ? AND email = ?", org.ID, normalizeEmail(user.Email)).
			First(&invite).Error
		if err != nil {
			return err
		}
		if invite.Status == models.InviteStatusPending {
			// Raced with another request; the seat is already reserved.
			return nil
		}

		usage, err := computeCapacity(tx, org)
		if err != nil {
			return err
		}
		if usage.Available() < 1 {
			return ErrCapacityExceeded
		}

		token, err := newInviteToken()
		if err != nil {
			return err
		}
		invite.Token = token
		invite.Status = models.InviteStatusPending
		invite.InvitedByID = invitedBy
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}
		reopened = true
		return nil
	})
	if err != nil {
		return err
	}

	if reopened {
		s.notifyInviteIssued(ctx, &invite)
	}
	return nil
}

// findOrgAdmin picks an administrator to attribute the self-invite to,
// or nil when the organization has none.
func (s *Service) findOrgAdmin(ctx context.Context, orgID uuid.UUID) *uuid.UUID {
	var admin models.User
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND is_admin = ?", orgID, true).
		Order("created_at").
		First(&admin).Error
	if err != nil {
		return nil
	}
	return &admin.ID
}

package seats

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

// Issue offers one seat to an email address. It requires a free seat at
// call time, recounted under the organization row lock. Re-issuing to
// an address with a live pending invite rotates the token in place
// without consuming another seat; re-issuing after acceptance is
// forbidden.
func (s *Service) Issue(ctx context.Context, orgID uuid.UUID, email string, invitedBy *uuid.UUID) (*models.Invite, error) {
	var invite *models.Invite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := lockOrganization(tx, orgID)
		if err != nil {
			return err
		}
		invite, err = issueLocked(tx, org, email, invitedBy)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyInviteIssued(ctx, invite)
	return invite, nil
}

// issueLocked upserts the (organization, email) invite row. Caller
// holds the organization row lock.
func issueLocked(tx *gorm.DB, org *models.Organization, email string, invitedBy *uuid.UUID) (*models.Invite, error) {
	email = normalizeEmail(email)

	// A seat holder needs no invite.
	var activeCount int64
	if err := tx.Model(&models.User{}).
		Where("organization_id = ? AND is_active = ? AND LOWER(email) = ?", org.ID, true, email).
		Count(&activeCount).Error; err != nil {
		return nil, err
	}
	if activeCount > 0 {
		return nil, ErrAlreadyMember
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	var existing models.Invite
	err = tx.Where("organization_id = ? AND email = ?", org.ID, email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.InviteStatusAccepted {
			return nil, ErrInviteAccepted
		}
		// The pending row already reserved its seat; rotating the
		// token invalidates the prior one and consumes nothing.
		existing.Token = token
		existing.InvitedByID = invitedBy
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to create
	default:
		return nil, err
	}

	usage, err := computeCapacity(tx, org)
	if err != nil {
		return nil, err
	}
	if usage.Available() < 1 {
		return nil, ErrCapacityExceeded
	}

	invite := models.Invite{
		OrganizationID: org.ID,
		Email:          email,
		Token:          token,
		Status:         models.InviteStatusPending,
		InvitedByID:    invitedBy,
	}
	if err := tx.Create(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// IssueBulk invites a batch of addresses first come, first served: the
// list is truncated to the seats available at call time and entries
// beyond capacity are dropped, not individually rejected. Addresses of
// active members and already-accepted invites are skipped without
// consuming a seat. Returns the created invites and the seats left
// afterwards.
func (s *Service) IssueBulk(ctx context.Context, orgID uuid.UUID, emails []string, invitedBy *uuid.UUID) ([]models.Invite, int, error) {
	var (
		issued    []models.Invite
		remaining int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := lockOrganization(tx, orgID)
		if err != nil {
			return err
		}

		usage, err := computeCapacity(tx, org)
		if err != nil {
			return err
		}
		avail := usage.Available()
		if avail < 0 {
			avail = 0
		}
		if len(emails) > avail {
			emails = emails[:avail]
		}

		for _, email := range emails {
			invite, err := issueLocked(tx, org, email, invitedBy)
			if errors.Is(err, ErrAlreadyMember) || errors.Is(err, ErrInviteAccepted) {
				continue
			}
			if errors.Is(err, ErrCapacityExceeded) {
				break
			}
			if err != nil {
				return err
			}
			issued = append(issued, *invite)
		}

		after, err := computeCapacity(tx, org)
		if err != nil {
			return err
		}
		if remaining = after.Available(); remaining < 0 {
			remaining = 0
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	for i := range issued {
		s.notifyInviteIssued(ctx, &issued[i])
	}
	return issued, remaining, nil
}

// Redeem exchanges a pending invite token for an active seat. The
// requester's activation and the invite's acceptance commit together
// or not at all: a failure anywhere leaves the invite pending and the
// user inactive, so the same token can simply be retried.
//
// Capacity here counts active members only. The redeeming invite
// reserved its seat when it was issued, so it does not compete with
// other pending invites.
func (s *Service) Redeem(ctx context.Context, token, requesterEmail string) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.Invite
		err := tx.Where("token = ?", token).First(&invite).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if invite.Status != models.InviteStatusPending {
			return ErrInvalidToken
		}
		if !strings.EqualFold(invite.Email, normalizeEmail(requesterEmail)) {
			return ErrEmailMismatch
		}

		org, err := lockOrganization(tx, invite.OrganizationID)
		if err != nil {
			return err
		}
		used, err := activeSeatsOnly(tx, org)
		if err != nil {
			return err
		}
		if used >= org.SeatLimit {
			return ErrCapacityExceeded
		}

		user, err = findUserByEmail(tx, requesterEmail)
		if err != nil {
			return err
		}

		user.OrganizationID = &org.ID
		user.IsActive = true
		user.IsAdmin = false
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		invite.Status = models.InviteStatusAccepted
		return tx.Save(&invite).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

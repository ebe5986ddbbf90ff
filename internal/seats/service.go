package seats

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/pkg/config"
	"gorm.io/gorm"
)

// Notifier is told about invite issuance for out-of-band delivery.
// Delivery is best effort: a notification failure never fails the
// issuance that triggered it.
type Notifier interface {
	InviteIssued(ctx context.Context, invite *models.Invite) error
}

// Service is the seat and invite admission controller. It is the only
// writer of seat-affecting state: organization provisioning, invite
// issuance and redemption, self-service access requests, and admin
// grant/revoke all go through here.
type Service struct {
	db       *gorm.DB
	billing  config.BillingConfig
	notifier Notifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, billing config.BillingConfig, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		billing:  billing,
		notifier: notifier,
		logger:   logger,
	}
}

// normalizeEmail lowers an address for storage and comparison. Invite
// matching is case-insensitive throughout.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findUserByEmail(tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := tx.Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) notifyInviteIssued(ctx context.Context, invite *models.Invite) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.InviteIssued(ctx, invite); err != nil {
		s.logger.Warn("invite notification failed",
			"organization_id", invite.OrganizationID,
			"email", invite.Email,
			"error", err,
		)
	}
}

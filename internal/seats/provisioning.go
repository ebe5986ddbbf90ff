package seats

import (
	"context"
	"time"

	"github.com/harper/dealdesk/internal/database/models"
	"gorm.io/gorm"
)

// subscriptionPeriod is how long a confirmed payment keeps a
// subscription current before the next confirmation is due.
const subscriptionPeriod = 32 * 24 * time.Hour

// ConfirmPayment turns a verified payment event into seat capacity.
// The payer must already exist as an identity; this service activates
// identities, it never creates them. For a payer with no organization a
// new one is provisioned with the plan's seat ceiling and the payer
// becomes its first administrator. For a payer who already has an
// organization the call is idempotent with respect to creation: it only
// refreshes the subscription and grows the seat ceiling on upgrade.
// Seat ceilings never shrink.
func (s *Service) ConfirmPayment(ctx context.Context, payerEmail, plan string) (*models.User, error) {
	seatLimit, ok := s.billing.SeatsForPlan(plan)
	if !ok {
		return nil, ErrUnknownPlan
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = findUserByEmail(tx, payerEmail)
		if err != nil {
			return err
		}

		now := time.Now()
		expires := now.Add(subscriptionPeriod)

		if user.OrganizationID != nil {
			org, err := lockOrganization(tx, *user.OrganizationID)
			if err != nil {
				return err
			}
			if seatLimit > org.SeatLimit {
				org.Tier = plan
				org.SeatLimit = seatLimit
				if err := tx.Save(org).Error; err != nil {
					return err
				}
			}

			user.SubscriptionTier = plan
			user.IsActive = true
			user.SubscriptionExpiresAt = &expires
			return tx.Save(user).Error
		}

		orgName := user.Name + "'s Team"
		if user.Name == "" {
			orgName = user.Email
		}
		org := models.Organization{
			Name:      orgName,
			Tier:      plan,
			SeatLimit: seatLimit,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		user.OrganizationID = &org.ID
		user.IsActive = true
		user.IsAdmin = true
		user.SubscriptionTier = plan
		user.SubscriptionExpiresAt = &expires
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment confirmed",
		"email", user.Email,
		"plan", plan,
		"organization_id", user.OrganizationID,
	)
	return user, nil
}

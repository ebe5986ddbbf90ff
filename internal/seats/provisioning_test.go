package seats_test

import (
	"context"
	"testing"

	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/seats"
	"github.com/harper/dealdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions an organization for a fresh payer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		testutil.CreateTestIdentity(t, db, "payer@example.com")

		user, err := svc.ConfirmPayment(ctx, "payer@example.com", "team")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.True(t, user.IsAdmin)
		assert.Equal(t, "team", user.SubscriptionTier)
		require.NotNil(t, user.OrganizationID)
		require.NotNil(t, user.SubscriptionExpiresAt)

		var org models.Organization
		require.NoError(t, db.First(&org, "id = ?", *user.OrganizationID).Error)
		assert.Equal(t, "team", org.Tier)
		assert.Equal(t, 15, org.SeatLimit)
	})

	t.Run("is idempotent with respect to organization creation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		testutil.CreateTestIdentity(t, db, "payer@example.com")

		first, err := svc.ConfirmPayment(ctx, "payer@example.com", "starter")
		require.NoError(t, err)
		second, err := svc.ConfirmPayment(ctx, "payer@example.com", "starter")
		require.NoError(t, err)

		assert.Equal(t, *first.OrganizationID, *second.OrganizationID)

		var orgs int64
		db.Model(&models.Organization{}).Count(&orgs)
		assert.Equal(t, int64(1), orgs)
	})

	t.Run("grows the seat ceiling on upgrade, never shrinks it", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		testutil.CreateTestIdentity(t, db, "payer@example.com")

		user, err := svc.ConfirmPayment(ctx, "payer@example.com", "starter")
		require.NoError(t, err)

		_, err = svc.ConfirmPayment(ctx, "payer@example.com", "business")
		require.NoError(t, err)

		var org models.Organization
		require.NoError(t, db.First(&org, "id = ?", *user.OrganizationID).Error)
		assert.Equal(t, "business", org.Tier)
		assert.Equal(t, 50, org.SeatLimit)

		// A smaller plan refreshes the subscription but keeps the
		// larger ceiling.
		_, err = svc.ConfirmPayment(ctx, "payer@example.com", "starter")
		require.NoError(t, err)
		require.NoError(t, db.First(&org, "id = ?", *user.OrganizationID).Error)
		assert.Equal(t, 50, org.SeatLimit)
	})

	t.Run("reactivates a lapsed member without touching their role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 15)
		testutil.CreateTestMember(t, db, org, "lapsed@example.com", false)

		user, err := svc.ConfirmPayment(ctx, "lapsed@example.com", "team")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.False(t, user.IsAdmin)
		assert.Equal(t, org.ID, *user.OrganizationID)
	})

	t.Run("unknown identity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		_, err := svc.ConfirmPayment(ctx, "stranger@example.com", "team")
		assert.ErrorIs(t, err, seats.ErrUserNotFound)
	})

	t.Run("unknown plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		testutil.CreateTestIdentity(t, db, "payer@example.com")

		_, err := svc.ConfirmPayment(ctx, "payer@example.com", "platinum")
		assert.ErrorIs(t, err, seats.ErrUnknownPlan)
	})
}

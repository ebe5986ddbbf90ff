package seats_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/seats"
	"github.com/harper/dealdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	invites []models.Invite
	err     error
}

func (n *recordingNotifier) InviteIssued(_ context.Context, invite *models.Invite) error {
	n.invites = append(n.invites, *invite)
	return n.err
}

func TestService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending invite with a token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		admin := testutil.CreateTestAdmin(t, db, org)

		invite, err := svc.Issue(ctx, org.ID, "new@example.com", &admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InviteStatusPending, invite.Status)
		assert.Equal(t, "new@example.com", invite.Email)
		assert.NotEmpty(t, invite.Token)
		require.NotNil(t, invite.InvitedByID)
		assert.Equal(t, admin.ID, *invite.InvitedByID)

		usage, err := svc.SeatUsage(ctx, org.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, usage.Used)
		assert.Equal(t, 1, usage.Pending)
		assert.Equal(t, 3, usage.Available())
	})

	t.Run("fails when no seats remain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 1)
		testutil.CreateTestAdmin(t, db, org)

		_, err := svc.Issue(ctx, org.ID, "overflow@example.com", nil)
		assert.ErrorIs(t, err, seats.ErrCapacityExceeded)
	})

	t.Run("re-issue rotates the token without consuming a seat", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 2)
		testutil.CreateTestAdmin(t, db, org)

		first, err := svc.Issue(ctx, org.ID, "again@example.com", nil)
		require.NoError(t, err)

		// The org is now saturated, but re-inviting the same address
		// reuses its reserved seat.
		second, err := svc.Issue(ctx, org.ID, "again@example.com", nil)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.NotEqual(t, first.Token, second.Token)

		var count int64
		db.Model(&models.Invite{}).Where("organization_id = ?", org.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("forbids re-issue after acceptance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestAdmin(t, db, org)
		testutil.CreateTestIdentity(t, db, "joiner@example.com")

		invite, err := svc.Issue(ctx, org.ID, "joiner@example.com", nil)
		require.NoError(t, err)
		_, err = svc.Redeem(ctx, invite.Token, "joiner@example.com")
		require.NoError(t, err)

		_, err = svc.Issue(ctx, org.ID, "joiner@example.com", nil)
		assert.ErrorIs(t, err, seats.ErrAlreadyMember)

		// Even after a revoke the accepted row blocks re-issuance.
		require.NoError(t, db.Model(&models.User{}).
			Where("email = ?", "joiner@example.com").
			Update("is_active", false).Error)

		_, err = svc.Issue(ctx, org.ID, "joiner@example.com", nil)
		assert.ErrorIs(t, err, seats.ErrInviteAccepted)
	})

	t.Run("rejects active members", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestMember(t, db, org, "member@example.com", true)

		_, err := svc.Issue(ctx, org.ID, "Member@Example.com", nil)
		assert.ErrorIs(t, err, seats.ErrAlreadyMember)
	})

	t.Run("notifies on issuance and survives notifier failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)

		notifier := &recordingNotifier{err: errors.New("smtp down")}
		svc := seats.NewService(db, testutil.TestBilling(), notifier, testutil.DiscardLogger())

		org := testutil.CreateTestOrg(t, db, 5)

		invite, err := svc.Issue(ctx, org.ID, "notified@example.com", nil)
		require.NoError(t, err)
		require.Len(t, notifier.invites, 1)
		assert.Equal(t, invite.Email, notifier.invites[0].Email)
	})
}

func TestService_IssueBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("truncates to available seats in input order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		// 4 seats, 1 taken by the admin: 3 available.
		org := testutil.CreateTestOrg(t, db, 4)
		admin := testutil.CreateTestAdmin(t, db, org)

		emails := make([]string, 10)
		for i := range emails {
			emails[i] = fmt.Sprintf("e%d@example.com", i+1)
		}

		issued, remaining, err := svc.IssueBulk(ctx, org.ID, emails, &admin.ID)
		require.NoError(t, err)
		require.Len(t, issued, 3)
		assert.Equal(t, "e1@example.com", issued[0].Email)
		assert.Equal(t, "e2@example.com", issued[1].Email)
		assert.Equal(t, "e3@example.com", issued[2].Email)
		assert.Equal(t, 0, remaining)
	})

	t.Run("saturated organization issues nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		// seat_limit 5 with 4 active users and 1 pending invite.
		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestAdmin(t, db, org)
		for i := 0; i < 3; i++ {
			testutil.CreateTestMember(t, db, org, fmt.Sprintf("m%d@example.com", i), true)
		}
		testutil.CreateTestInvite(t, db, org, "pending@example.com")

		usage, err := svc.SeatUsage(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, 0, usage.Available())

		issued, remaining, err := svc.IssueBulk(ctx, org.ID, []string{"anyone@example.com"}, nil)
		require.NoError(t, err)
		assert.Empty(t, issued)
		assert.Equal(t, 0, remaining)
	})

	t.Run("skips seat holders without consuming capacity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 4)
		testutil.CreateTestAdmin(t, db, org)
		testutil.CreateTestMember(t, db, org, "taken@example.com", true)

		issued, remaining, err := svc.IssueBulk(ctx, org.ID,
			[]string{"taken@example.com", "fresh@example.com"}, nil)
		require.NoError(t, err)
		require.Len(t, issued, 1)
		assert.Equal(t, "fresh@example.com", issued[0].Email)
		assert.Equal(t, 1, remaining)
	})
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("activates the user and accepts the invite together", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestAdmin(t, db, org)
		testutil.CreateTestIdentity(t, db, "joiner@example.com")

		invite, err := svc.Issue(ctx, org.ID, "joiner@example.com", nil)
		require.NoError(t, err)

		user, err := svc.Redeem(ctx, invite.Token, "joiner@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.False(t, user.IsAdmin)
		require.NotNil(t, user.OrganizationID)
		assert.Equal(t, org.ID, *user.OrganizationID)

		var stored models.Invite
		require.NoError(t, db.First(&stored, "id = ?", invite.ID).Error)
		assert.Equal(t, models.InviteStatusAccepted, stored.Status)
	})

	t.Run("matches the invited address case-insensitively", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestIdentity(t, db, "user@example.com")

		invite, err := svc.Issue(ctx, org.ID, "User@Example.com", nil)
		require.NoError(t, err)

		user, err := svc.Redeem(ctx, invite.Token, "user@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
	})

	t.Run("unknown token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		_, err := svc.Redeem(ctx, "no-such-token", "a@example.com")
		assert.ErrorIs(t, err, seats.ErrInvalidToken)
	})

	t.Run("accepted token cannot be redeemed twice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		testutil.CreateTestIdentity(t, db, "once@example.com")

		invite, err := svc.Issue(ctx, org.ID, "once@example.com", nil)
		require.NoError(t, err)
		_, err = svc.Redeem(ctx, invite.Token, "once@example.com")
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, invite.Token, "once@example.com")
		assert.ErrorIs(t, err, seats.ErrInvalidToken)
	})

	t.Run("email mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 5)
		invite, err := svc.Issue(ctx, org.ID, "invited@example.com", nil)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, invite.Token, "intruder@example.com")
		assert.ErrorIs(t, err, seats.ErrEmailMismatch)
	})

	t.Run("failed redemption leaves the invite pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		// The invited identity never signed in, so redemption fails
		// after the capacity check. Nothing must be half-written.
		org := testutil.CreateTestOrg(t, db, 5)
		invite, err := svc.Issue(ctx, org.ID, "ghost@example.com", nil)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, invite.Token, "ghost@example.com")
		assert.ErrorIs(t, err, seats.ErrUserNotFound)

		var stored models.Invite
		require.NoError(t, db.First(&stored, "id = ?", invite.ID).Error)
		assert.Equal(t, models.InviteStatusPending, stored.Status)

		// A later attempt behaves exactly like the first.
		testutil.CreateTestIdentity(t, db, "ghost@example.com")
		user, err := svc.Redeem(ctx, invite.Token, "ghost@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
	})

	t.Run("capacity failure rolls back cleanly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		org := testutil.CreateTestOrg(t, db, 1)
		invite := testutil.CreateTestInvite(t, db, org, "late@example.com")
		testutil.CreateTestIdentity(t, db, "late@example.com")

		// Seat gets taken before redemption.
		testutil.CreateTestMember(t, db, org, "quick@example.com", true)

		_, err := svc.Redeem(ctx, invite.Token, "late@example.com")
		assert.ErrorIs(t, err, seats.ErrCapacityExceeded)

		var stored models.Invite
		require.NoError(t, db.First(&stored, "id = ?", invite.ID).Error)
		assert.Equal(t, models.InviteStatusPending, stored.Status)

		var user models.User
		require.NoError(t, db.First(&user, "email = ?", "late@example.com").Error)
		assert.False(t, user.IsActive)
	})

	t.Run("does not compete with other pending invites", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.CleanupTestDB(t, db)
		svc := testutil.CreateSeatService(db)

		// 1 of 2 seats used and two pending invites. Either invite may
		// still redeem: each reserved its seat at issuance, so only
		// active members count against redemption.
		org := testutil.CreateTestOrg(t, db, 2)
		testutil.CreateTestAdmin(t, db, org)
		first := testutil.CreateTestInvite(t, db, org, "a@example.com")
		testutil.CreateTestInvite(t, db, org, "b@example.com")
		testutil.CreateTestIdentity(t, db, "a@example.com")

		user, err := svc.Redeem(ctx, first.Token, "a@example.com")
		require.NoError(t, err)
		assert.True(t, user.IsActive)
	})
}

func TestSeatInvariant(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := testutil.CreateSeatService(db)

	org := testutil.CreateTestOrg(t, db, 3)
	testutil.CreateTestAdmin(t, db, org)

	// Hammer the ledger well past capacity; used + pending must never
	// exceed the ceiling on the non-admin path.
	for i := 0; i < 10; i++ {
		_, err := svc.Issue(ctx, org.ID, fmt.Sprintf("u%d@example.com", i), nil)
		if err != nil {
			assert.ErrorIs(t, err, seats.ErrCapacityExceeded)
		}

		usage, err := svc.SeatUsage(ctx, org.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, usage.Used+usage.Pending, usage.SeatLimit)
	}

	usage, err := svc.SeatUsage(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Used)
	assert.Equal(t, 2, usage.Pending)
	assert.Equal(t, 0, usage.Available())
}

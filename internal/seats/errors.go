package seats

import "errors"

// Seat admission outcomes. These are expected, user-facing results and
// cross the service boundary as values; handlers map them to HTTP
// statuses. Anything else returned by this package is a storage failure
// that rolled back and is safe to retry.
var (
	// ErrCapacityExceeded means no seats remain. Recoverable: a revoke
	// or a plan upgrade frees capacity.
	ErrCapacityExceeded = errors.New("seat capacity exceeded")

	// ErrInvalidToken means the invite token is unknown or no longer
	// pending.
	ErrInvalidToken = errors.New("invalid invite token")

	// ErrEmailMismatch means the authenticated identity does not match
	// the invited address.
	ErrEmailMismatch = errors.New("invite email mismatch")

	// ErrNoOrganization means a self-service access request came from
	// an identity with no organization; such users go through payment
	// provisioning instead.
	ErrNoOrganization = errors.New("user has no organization")

	// ErrUserNotFound means the identity has never signed in. Seat
	// admission activates identities, it never creates them.
	ErrUserNotFound = errors.New("user not found")

	// ErrInviteAccepted means the (organization, email) pair already
	// holds an accepted invite; re-issuance after acceptance is
	// forbidden.
	ErrInviteAccepted = errors.New("invite already accepted")

	// ErrAlreadyMember means the address belongs to an active member
	// of the organization; a seat holder needs no invite.
	ErrAlreadyMember = errors.New("already an active member")

	// ErrUnknownPlan means the payment carried a plan identifier the
	// policy table does not know.
	ErrUnknownPlan = errors.New("unknown plan")
)

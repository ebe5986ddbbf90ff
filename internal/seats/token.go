package seats

import "github.com/harper/dealdesk/pkg/crypto"

// inviteTokenLength sizes tokens so brute-forcing a redemption is
// infeasible: 43 base64url characters of CSPRNG output, over 250 bits.
const inviteTokenLength = 43

func newInviteToken() (string, error) {
	return crypto.GenerateRandomString(inviteTokenLength)
}

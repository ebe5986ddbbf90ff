package dto

type RedeemInviteRequest struct {
	Token string `json:"token"`
}

func (r RedeemInviteRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Token == "" {
		errors["token"] = "Token is required"
	}
	return errors
}

type IssueInvitesRequest struct {
	Emails []string `json:"emails"`
}

func (r IssueInvitesRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.Emails) == 0 {
		errors["emails"] = "At least one email is required"
	}
	return errors
}

type IssueInvitesResponse struct {
	Issued         []InviteDTO `json:"issued"`
	SeatsRemaining int         `json:"seats_remaining"`
}

type InviteDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Status         string `json:"status"`
}

type ConfirmPaymentRequest struct {
	PayerEmail string `json:"payer_email"`
	Plan       string `json:"plan"`
}

func (r ConfirmPaymentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.PayerEmail == "" {
		errors["payer_email"] = "Payer email is required"
	}
	if r.Plan == "" {
		errors["plan"] = "Plan is required"
	}
	return errors
}

type SetUserActiveRequest struct {
	IsActive bool   `json:"is_active"`
	Tier     string `json:"tier,omitempty"`
}

type SetUserActiveResponse struct {
	User    UserDTO `json:"user"`
	Warning string  `json:"warning,omitempty"`
}

type SeatUsageResponse struct {
	SeatLimit int `json:"seat_limit"`
	Used      int `json:"used"`
	Pending   int `json:"pending"`
	Available int `json:"available"`
}

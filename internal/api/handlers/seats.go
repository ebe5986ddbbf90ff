package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/api/dto"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/api/validation"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/seats"
)

// SeatHandler wraps the seat admission controller for HTTP. All seat
// semantics live in internal/seats; this layer only translates typed
// outcomes to statuses.
type SeatHandler struct {
	seats *seats.Service
}

func NewSeatHandler(seatService *seats.Service) *SeatHandler {
	return &SeatHandler{seats: seatService}
}

func inviteToDTO(invite *models.Invite) dto.InviteDTO {
	return dto.InviteDTO{
		ID:             invite.ID.String(),
		OrganizationID: invite.OrganizationID.String(),
		Email:          invite.Email,
		Status:         string(invite.Status),
	}
}

// RequestAccess handles POST /api/v1/access/request
func (h *SeatHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	err := h.seats.RequestAccess(r.Context(), middleware.GetUserID(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Access requested"})
	case errors.Is(err, seats.ErrNoOrganization):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "No organization; purchase a plan to get started"})
	case errors.Is(err, seats.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "No seats available"})
	case errors.Is(err, seats.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Access request failed"})
	}
}

// RedeemInvite handles POST /api/v1/invites/redeem
func (h *SeatHandler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.RedeemInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, err := h.seats.Redeem(r.Context(), req.Token, middleware.GetUserEmail(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, userToDTO(user))
	case errors.Is(err, seats.ErrInvalidToken):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invalid or used invite token"})
	case errors.Is(err, seats.ErrEmailMismatch):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Invite was issued to a different address"})
	case errors.Is(err, seats.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "No seats available"})
	case errors.Is(err, seats.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Redemption failed"})
	}
}

// ConfirmPayment handles POST /api/v1/billing/confirm. The payload
// comes from the payment collaborator after out-of-band verification
// and is trusted as already confirmed.
func (h *SeatHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, err := h.seats.ConfirmPayment(r.Context(), req.PayerEmail, req.Plan)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, userToDTO(user))
	case errors.Is(err, seats.ErrUserNotFound):
		// Payment for an identity that never signed in points at an
		// ordering bug upstream.
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Payer has never signed in"})
	case errors.Is(err, seats.ErrUnknownPlan):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unknown plan"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Payment confirmation failed"})
	}
}

// ListUsers handles GET /api/v1/admin/users
func (h *SeatHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.seats.ListUsers(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list users"})
		return
	}

	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, userToDTO(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// IssueInvites handles POST /api/v1/admin/invites. Entries beyond the
// organization's free seats are dropped, not rejected.
func (h *SeatHandler) IssueInvites(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueInvitesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}
	for _, email := range req.Emails {
		if !validation.IsValidEmail(email) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid email: " + email})
			return
		}
	}

	adminID := middleware.GetUserID(r.Context())
	issued, remaining, err := h.seats.IssueBulk(r.Context(),
		middleware.GetOrganizationID(r.Context()), req.Emails, &adminID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to issue invites"})
		return
	}

	resp := dto.IssueInvitesResponse{
		Issued:         make([]dto.InviteDTO, 0, len(issued)),
		SeatsRemaining: remaining,
	}
	for i := range issued {
		resp.Issued = append(resp.Issued, inviteToDTO(&issued[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetUserActive handles PUT /api/v1/admin/users/{id}/active
func (h *SeatHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var req dto.SetUserActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	user, warning, err := h.seats.SetUserActive(r.Context(),
		middleware.GetOrganizationID(r.Context()), userID, req.IsActive, req.Tier)
	switch {
	case err == nil:
		resp := dto.SetUserActiveResponse{User: userToDTO(user)}
		if warning != nil {
			resp.Warning = warning.String()
		}
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, seats.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update user"})
	}
}

// SeatUsage handles GET /api/v1/admin/seats
func (h *SeatHandler) SeatUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.seats.SeatUsage(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute seat usage"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SeatUsageResponse{
		SeatLimit: usage.SeatLimit,
		Used:      usage.Used,
		Pending:   usage.Pending,
		Available: usage.Available(),
	})
}

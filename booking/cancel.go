package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/auth"
	"github.com/sparkledash/sparkledash/notify"
	"github.com/sparkledash/sparkledash/payment"
	"github.com/sparkledash/sparkledash/settings"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/user"
)

type CancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel ends a booking. Inside the cancellation window the configured fee is
// charged against the client's card on file; outside it cancellation is free.
// The fee decision also picks which notification template goes out.
func Cancel(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid booking id"))
	}

	req := new(CancelRequest)
	if err = c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	var b Booking
	if result := storage.DB.First(&b, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("booking not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load booking", result.Error))
	}

	actor := auth.CurrentUser(c)
	switch actor.Role {
	case user.RoleClient:
		if b.ClientID != actor.ID {
			return apperr.Respond(c, apperr.Forbidden("not your booking"))
		}
	case user.RoleAdmin, user.RoleOwner:
		if !actor.HasPermission(user.PermManageBookings) {
			return apperr.Respond(c, apperr.Forbidden("missing permission: manage_bookings"))
		}
	default:
		return apperr.Respond(c, apperr.Forbidden("cleaners cannot cancel bookings"))
	}

	now := time.Now()
	if b.Status == StatusCancelled {
		return apperr.Respond(c, apperr.InvalidState("booking is already cancelled"))
	}
	if EffectiveStatus(b.Status, b.ScheduledDate, now) == StatusCompleted {
		return apperr.Respond(c, apperr.InvalidState("completed bookings cannot be cancelled"))
	}

	cfg, err := settings.Get(storage.DB)
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not load configuration", err))
	}

	feeApplies := FeeApplies(b.ScheduledDate, now, cfg.CancellationWindowHours)
	feeCharged := false
	feeMessage := ""

	if feeApplies && cfg.CancellationFeeAmount > 0 {
		row, chargeErr := payment.Orc.ChargeFee(b.ID, cfg.CancellationFeeAmount, req.Reason)
		if chargeErr != nil {
			// The decline is already on the ledger; the booking still
			// cancels.
			feeMessage = fmt.Sprintf("cancellation fee could not be collected: %s", chargeErr.Error())
		} else {
			feeCharged = row.Status == payment.StatusSucceeded
		}
	}

	audit := fmt.Sprintf("cancelled at %s", now.Format(time.RFC3339))
	if req.Reason != "" {
		audit = fmt.Sprintf("%s, reason: %s", audit, req.Reason)
	}
	if feeApplies {
		audit = fmt.Sprintf("%s, fee %.2f charged=%t", audit, cfg.CancellationFeeAmount, feeCharged)
	}
	if b.PaymentDetails != "" {
		audit = b.PaymentDetails + "; " + audit
	}

	updates := map[string]any{
		"status":          StatusCancelled,
		"payment_details": audit,
	}
	if result := storage.DB.Model(&b).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not cancel booking", result.Error))
	}

	var client user.User
	if result := storage.DB.First(&client, "id = ?", b.ClientID); result.Error == nil && client.Email != nil {
		template := notify.TemplateCancelledFree
		if feeApplies {
			template = notify.TemplateCancelledWithFee
		}
		notify.SendTemplate(storage.DB, *client.Email, template, map[string]string{
			"cancellation_fee":    fmt.Sprintf("%.2f", cfg.CancellationFeeAmount),
			"cancellation_reason": req.Reason,
			"scheduled_date":      b.ScheduledDate.Format("2006-01-02"),
		})
	}

	b.Status = StatusCancelled
	b.PaymentDetails = audit
	b.Derive(now)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"booking":    b,
		"feeApplied": feeApplies,
		"feeCharged": feeCharged,
		"message":    feeMessage,
	})
}

package payment

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
)

// Orc is the shared orchestrator, wired in main.
var Orc *Orchestrator

func Init(orc *Orchestrator) {
	Orc = orc
}

// GetPendingCharges lists authorization holds awaiting capture.
func GetPendingCharges(c fiber.Ctx) error {
	var payments []Payment
	if result := storage.DB.Where("status = ? AND is_captured = ?", StatusRequiresCapture, false).Order("created_at desc").Find(&payments); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list pending charges", result.Error))
	}

	return c.Status(http.StatusOK).JSON(payments)
}

func CaptureHold(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid payment id"))
	}

	p, captureErr := Orc.Capture(uint(id))
	if captureErr != nil {
		return apperr.Respond(c, captureErr)
	}

	return c.Status(http.StatusOK).JSON(p)
}

func RetryCharge(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid payment id"))
	}

	result, retryErr := Orc.Retry(uint(id))
	if retryErr != nil {
		return apperr.Respond(c, retryErr)
	}

	return c.Status(http.StatusOK).JSON(result)
}

// GetBookingLedger returns every payment row for a booking plus the net
// captured total and whether it reconciles against the booking's final price.
func GetBookingLedger(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid booking id"))
	}

	var payments []Payment
	if result := storage.DB.Where("booking_id = ?", id).Order("created_at asc").Find(&payments); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list payments", result.Error))
	}

	netTotal, err := NetTotal(storage.DB, uint(id))
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not compute net total", err))
	}

	var priceRow sql.NullFloat64
	storage.DB.Table("bookings").Where("id = ?", id).Select("final_price").Scan(&priceRow)

	var finalPrice *float64
	if priceRow.Valid {
		finalPrice = &priceRow.Float64
	}

	reconciled := finalPrice != nil && *finalPrice == netTotal

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"payments":   payments,
		"netTotal":   netTotal,
		"finalPrice": finalPrice,
		"reconciled": reconciled,
	})
}

package settings

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
)

func GetCancellation(c fiber.Ctx) error {
	cfg, err := Get(storage.DB)
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not load configuration", err))
	}

	return c.Status(http.StatusOK).JSON(cfg)
}

type UpdateCancellationRequest struct {
	CancellationWindowHours *float64 `json:"cancellationWindowHours"`
	CancellationFeeAmount   *float64 `json:"cancellationFeeAmount"`
}

func UpdateCancellation(c fiber.Ctx) error {
	req := new(UpdateCancellationRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	cfg, err := Get(storage.DB)
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not load configuration", err))
	}

	updates := make(map[string]any)
	if req.CancellationWindowHours != nil {
		if *req.CancellationWindowHours < 0 {
			return apperr.Respond(c, apperr.InvalidState("cancellation window cannot be negative"))
		}
		updates["cancellation_window_hours"] = *req.CancellationWindowHours
	}
	if req.CancellationFeeAmount != nil {
		if *req.CancellationFeeAmount < 0 {
			return apperr.Respond(c, apperr.InvalidState("cancellation fee cannot be negative"))
		}
		updates["cancellation_fee_amount"] = *req.CancellationFeeAmount
	}

	if len(updates) > 0 {
		if result := storage.DB.Model(cfg).Updates(updates); result.Error != nil {
			return apperr.Respond(c, apperr.Internal("could not update configuration", result.Error))
		}
	}

	return c.Status(http.StatusOK).JSON(cfg)
}

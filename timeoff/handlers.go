package timeoff

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/auth"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/user"
)

var validate = validator.New()

func Create(c fiber.Ctx) error {
	req := new(TimeOffRequest)

	if err := c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if err := validate.Struct(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	if !req.EndDate.After(req.StartDate) {
		return apperr.Respond(c, apperr.InvalidState("end date must be after start date"))
	}

	actor := auth.CurrentUser(c)
	if actor.Role == user.RoleCleaner {
		req.CleanerID = actor.ID
	} else if req.CleanerID == 0 {
		return apperr.Respond(c, apperr.InvalidState("cleanerId is required"))
	}

	req.Status = StatusPending
	req.ReviewedBy = nil
	req.ReviewNote = ""

	if result := storage.DB.Create(req); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not create time-off request", result.Error))
	}

	return c.Status(http.StatusCreated).JSON(req)
}

// GetAll lists time-off requests. Cleaners see only their own; staff with
// manage_users see everyone's.
func GetAll(c fiber.Ctx) error {
	actor := auth.CurrentUser(c)

	query := storage.DB.Order("start_date desc")
	if actor.HasPermission(user.PermManageUsers) {
		if cleanerID := c.Query("cleanerId"); cleanerID != "" {
			query = query.Where("cleaner_id = ?", cleanerID)
		}
	} else {
		query = query.Where("cleaner_id = ?", actor.ID)
	}

	var requests []TimeOffRequest
	if result := query.Find(&requests); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list time-off requests", result.Error))
	}

	return c.Status(http.StatusOK).JSON(requests)
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func Review(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request id"))
	}

	req := new(ReviewRequest)
	if err = c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	var tor TimeOffRequest
	if result := storage.DB.First(&tor, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("time-off request not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load time-off request", result.Error))
	}

	if tor.Status != StatusPending {
		return apperr.Respond(c, apperr.InvalidState("request has already been reviewed"))
	}

	status := StatusDenied
	if req.Approve {
		status = StatusApproved
	}

	actor := auth.CurrentUser(c)
	updates := map[string]any{
		"status":      status,
		"reviewed_by": actor.ID,
		"review_note": req.Note,
	}

	if result := storage.DB.Model(&tor).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not review time-off request", result.Error))
	}

	tor.Status = status
	tor.ReviewedBy = &actor.ID
	tor.ReviewNote = req.Note

	return c.Status(http.StatusOK).JSON(tor)
}

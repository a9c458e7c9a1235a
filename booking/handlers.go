package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/auth"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/user"
)

var validate = validator.New()

type NewBookingRequest struct {
	ClientID      uint      `json:"clientId"`
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
	ScheduledTime string    `json:"scheduledTime"`
	DurationHours float64   `json:"durationHours"`
	ServiceType   string    `json:"serviceType" validate:"required"`
	PaymentMethod string    `json:"paymentMethod"`
}

// Create is the intake path. Clients book for themselves; staff may book on a
// client's behalf by passing clientId.
func Create(c fiber.Ctx) error {
	req := new(NewBookingRequest)

	if err := c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if err := validate.Struct(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	actor := auth.CurrentUser(c)
	clientID := req.ClientID
	if actor.Role == user.RoleClient || clientID == 0 {
		clientID = actor.ID
	}

	if req.ScheduledDate.Before(time.Now()) {
		return apperr.Respond(c, apperr.InvalidState("scheduled date is in the past"))
	}

	b := &Booking{
		ClientID:      clientID,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		DurationHours: req.DurationHours,
		ServiceType:   req.ServiceType,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
	}

	if result := storage.DB.Create(b); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not create booking", result.Error))
	}

	b.Derive(time.Now())
	return c.Status(http.StatusCreated).JSON(b)
}

// GetAll lists bookings with optional filters. The status filter matches the
// derived status, not the stored one, so "COMPLETED" finds past-dated rows
// that were never marked.
func GetAll(c fiber.Ctx) error {
	start := c.Query("start")
	end := c.Query("end")
	cleanerID := c.Query("cleanerId")
	statusFilter := c.Query("status")

	query := storage.DB.Order("scheduled_date desc")
	if start != "" {
		query = query.Where("scheduled_date >= ?", start)
	}
	if end != "" {
		query = query.Where("scheduled_date <= ?", fmt.Sprintf("%sT23:59", end))
	}
	if cleanerID != "" {
		query = query.Where("cleaner_id = ?", cleanerID)
	}

	var bookings []Booking
	if result := query.Find(&bookings); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list bookings", result.Error))
	}

	now := time.Now()
	filtered := bookings[:0]
	for i := range bookings {
		bookings[i].Derive(now)
		if statusFilter == "" || string(bookings[i].EffectiveStatus) == statusFilter {
			filtered = append(filtered, bookings[i])
		}
	}

	return c.Status(http.StatusOK).JSON(filtered)
}

// GetMine lists the acting user's own bookings: by client for clients, by
// assignment for cleaners.
func GetMine(c fiber.Ctx) error {
	actor := auth.CurrentUser(c)

	query := storage.DB.Order("scheduled_date desc")
	if actor.Role == user.RoleCleaner {
		query = query.Where("cleaner_id = ?", actor.ID)
	} else {
		query = query.Where("client_id = ?", actor.ID)
	}

	var bookings []Booking
	if result := query.Find(&bookings); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list bookings", result.Error))
	}

	now := time.Now()
	for i := range bookings {
		bookings[i].Derive(now)
	}

	return c.Status(http.StatusOK).JSON(bookings)
}

func GetById(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid booking id"))
	}

	var b Booking
	if result := storage.DB.First(&b, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("booking not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load booking", result.Error))
	}

	b.Derive(time.Now())
	return c.Status(http.StatusOK).JSON(b)
}

type UpdateBookingRequest struct {
	ScheduledDate  *time.Time `json:"scheduledDate"`
	ScheduledTime  *string    `json:"scheduledTime"`
	DurationHours  *float64   `json:"durationHours"`
	ServiceType    *string    `json:"serviceType"`
	FinalPrice     *float64   `json:"finalPrice"`
	Status         *Status    `json:"status"`
	PaymentMethod  *string    `json:"paymentMethod"`
	PaymentDetails *string    `json:"paymentDetails"`
}

func Update(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid booking id"))
	}

	req := new(UpdateBookingRequest)
	if err = c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if req.Status != nil && !req.Status.Valid() {
		return apperr.Respond(c, apperr.InvalidState("invalid status"))
	}

	var b Booking
	if result := storage.DB.First(&b, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("booking not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load booking", result.Error))
	}

	updates := make(map[string]any)
	if req.ScheduledDate != nil {
		updates["scheduled_date"] = *req.ScheduledDate
	}
	if req.ScheduledTime != nil {
		updates["scheduled_time"] = *req.ScheduledTime
	}
	if req.DurationHours != nil {
		updates["duration_hours"] = *req.DurationHours
	}
	if req.ServiceType != nil {
		updates["service_type"] = *req.ServiceType
	}
	if req.FinalPrice != nil {
		updates["final_price"] = *req.FinalPrice
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.PaymentDetails != nil {
		updates["payment_details"] = *req.PaymentDetails
	}

	if result := storage.DB.Model(&b).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update booking", result.Error))
	}

	b.Derive(time.Now())
	return c.Status(http.StatusOK).JSON(b)
}

type AssignRequest struct {
	CleanerID uint `json:"cleanerId" validate:"required"`
}

func Assign(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid booking id"))
	}

	req := new(AssignRequest)
	if err = c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}
	if err = validate.Struct(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	var cleaner user.User
	if result := storage.DB.First(&cleaner, "id = ?", req.CleanerID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("cleaner not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load cleaner", result.Error))
	}
	if cleaner.Role != user.RoleCleaner {
		return apperr.Respond(c, apperr.InvalidState("assignee is not a cleaner"))
	}

	var b Booking
	if result := storage.DB.First(&b, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("booking not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load booking", result.Error))
	}

	updates := map[string]any{"cleaner_id": req.CleanerID}
	if b.Status == StatusPending {
		updates["status"] = StatusConfirmed
	}

	if result := storage.DB.Model(&b).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not assign cleaner", result.Error))
	}

	b.Derive(time.Now())
	return c.Status(http.StatusOK).JSON(b)
}

// GetSummary aggregates counts and revenue over a date range. Bucketing uses
// the derived status so past-dated PENDING rows count as completed work.
func GetSummary(c fiber.Ctx) error {
	start := c.Query("start")
	end := c.Query("end")

	query := storage.DB
	if start != "" {
		query = query.Where("scheduled_date >= ?", start)
	}
	if end != "" {
		query = query.Where("scheduled_date <= ?", fmt.Sprintf("%sT23:59", end))
	}

	var bookings []Booking
	if result := query.Find(&bookings); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not load bookings", result.Error))
	}

	now := time.Now()
	counts := map[Status]int{}
	revenue := 0.0
	for i := range bookings {
		bookings[i].Derive(now)
		counts[bookings[i].EffectiveStatus]++
		if bookings[i].EffectiveStatus == StatusCompleted && bookings[i].FinalPrice != nil {
			revenue += *bookings[i].FinalPrice
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"numberOfBookings": len(bookings),
		"pending":          counts[StatusPending],
		"confirmed":        counts[StatusConfirmed],
		"inProgress":       counts[StatusInProgress],
		"completed":        counts[StatusCompleted],
		"cancelled":        counts[StatusCancelled],
		"revenue":          revenue,
	})
}

// Export writes the filtered bookings to an xlsx download.
func Export(c fiber.Ctx) error {
	start := c.Query("start")
	end := c.Query("end")

	query := storage.DB.Order("scheduled_date asc")
	if start != "" {
		query = query.Where("scheduled_date >= ?", start)
	}
	if end != "" {
		query = query.Where("scheduled_date <= ?", fmt.Sprintf("%sT23:59", end))
	}

	var results []struct {
		ID            uint
		ClientEmail   string
		CleanerEmail  *string
		ScheduledDate time.Time
		ServiceType   string
		Status        Status
		FinalPrice    *float64
		PaymentMethod string
	}
	err := query.Table("bookings").
		Select("bookings.id, clients.email as client_email, cleaners.email as cleaner_email, bookings.scheduled_date, bookings.service_type, bookings.status, bookings.final_price, bookings.payment_method").
		Joins("LEFT JOIN users clients ON clients.id = bookings.client_id").
		Joins("LEFT JOIN users cleaners ON cleaners.id = bookings.cleaner_id").
		Where("bookings.deleted_at IS NULL").
		Scan(&results).Error
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not load bookings", err))
	}

	f := excelize.NewFile()
	sheet := "Bookings"
	f.NewSheet(sheet)

	headers := []string{"ID", "Client", "Cleaner", "ScheduledDate", "ServiceType", "Status", "FinalPrice", "PaymentMethod"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	now := time.Now()
	for i, r := range results {
		row := i + 2
		cleaner := ""
		if r.CleanerEmail != nil {
			cleaner = *r.CleanerEmail
		}
		price := 0.0
		if r.FinalPrice != nil {
			price = *r.FinalPrice
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.ClientEmail)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), cleaner)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.ScheduledDate.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.ServiceType)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), string(EffectiveStatus(r.Status, r.ScheduledDate, now)))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), price)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.PaymentMethod)
	}

	filePath := "bookings.xlsx"
	if err := f.SaveAs(filePath); err != nil {
		return apperr.Respond(c, apperr.Internal("could not generate export", err))
	}

	return c.Download(filePath)
}

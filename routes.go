package main

import (
	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/auth"
	"github.com/sparkledash/sparkledash/booking"
	"github.com/sparkledash/sparkledash/checklist"
	"github.com/sparkledash/sparkledash/notify"
	"github.com/sparkledash/sparkledash/payment"
	"github.com/sparkledash/sparkledash/settings"
	"github.com/sparkledash/sparkledash/timeoff"
	"github.com/sparkledash/sparkledash/user"
)

func authRoutes(r fiber.Router) {
	r.Post("/login", auth.Login)
	r.Post("/logout", auth.Logout)
}

func userRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)

	r.Get("", auth.RequireRoles(user.RoleAdmin, user.RoleOwner), user.GetAll)
	r.Get("/search", auth.RequireRoles(user.RoleAdmin, user.RoleOwner), user.Search)
	r.Get("/:id", user.GetById)
	r.Patch("/:id/changePassword", user.ChangePassword)

	r.Post("", auth.RequirePermission(user.PermManageUsers), user.Create)
	r.Patch("/:id", auth.RequirePermission(user.PermManageUsers), user.Update)
	r.Delete("/:id", auth.RequirePermission(user.PermManageUsers), user.Delete)
	r.Patch("/:id/permissions", auth.RequireRoles(user.RoleOwner), user.SetPermissions)
}

func bookingRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)

	r.Post("", booking.Create)
	r.Get("/mine", booking.GetMine)
	r.Post("/:id/cancel", booking.Cancel)

	r.Get("", auth.RequirePermission(user.PermManageBookings), booking.GetAll)
	r.Get("/search/getSummary", auth.RequirePermission(user.PermManageBookings), booking.GetSummary)
	r.Get("/search/export", auth.RequirePermission(user.PermManageBookings), booking.Export)
	r.Get("/:id", booking.GetById)
	r.Patch("/:id", auth.RequirePermission(user.PermManageBookings), booking.Update)
	r.Patch("/:id/assign", auth.RequirePermission(user.PermManageBookings), booking.Assign)
	r.Get("/:id/payments", auth.RequirePermission(user.PermManageBookings), payment.GetBookingLedger)
}

func paymentRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)
	r.Use(auth.RequirePermission(user.PermManageBookings))

	r.Get("/pending", payment.GetPendingCharges)
	r.Post("/:id/capture", payment.CaptureHold)
	r.Post("/:id/retry", payment.RetryCharge)
}

func timeoffRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)

	r.Post("", timeoff.Create)
	r.Get("", timeoff.GetAll)
	r.Patch("/:id/review", auth.RequirePermission(user.PermManageUsers), timeoff.Review)
}

func checklistRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)
	r.Use(auth.RequirePermission(user.PermManageBookings))

	r.Post("", checklist.Create)
	r.Get("", checklist.GetAll)
	r.Patch("/:id", checklist.Update)
	r.Delete("/:id", checklist.Delete)
}

func settingsRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)
	r.Use(auth.RequirePermission(user.PermManageSettings))

	r.Get("/cancellation", settings.GetCancellation)
	r.Patch("/cancellation", settings.UpdateCancellation)
}

func templateRoutes(r fiber.Router) {
	r.Use(auth.RequireAuth)
	r.Use(auth.RequirePermission(user.PermManageSettings))

	r.Post("", notify.CreateTemplate)
	r.Get("", notify.GetAllTemplates)
	r.Patch("/:id", notify.UpdateTemplate)
	r.Delete("/:id", notify.DeleteTemplate)
}

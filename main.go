package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/auth"
	"github.com/sparkledash/sparkledash/booking"
	"github.com/sparkledash/sparkledash/checklist"
	"github.com/sparkledash/sparkledash/config"
	"github.com/sparkledash/sparkledash/notify"
	"github.com/sparkledash/sparkledash/payment"
	"github.com/sparkledash/sparkledash/settings"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/timeoff"
	"github.com/sparkledash/sparkledash/user"
)

func main() {
	cfg := config.Load()

	db, err := storage.ConnectDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	err = db.AutoMigrate(
		&user.User{},
		&booking.Booking{},
		&payment.Payment{},
		&settings.Configuration{},
		&timeoff.TimeOffRequest{},
		&checklist.ChecklistTemplate{},
		&checklist.ChecklistItem{},
		&notify.EmailTemplate{},
	)
	if err != nil {
		log.Fatal(err)
	}
	err = seedDB(db)
	if err != nil {
		log.Fatal(err)
	}

	auth.Init(cfg.JWTSecret)
	payment.Init(payment.NewOrchestrator(db, payment.NewStripeProcessor(cfg.StripeKey)))
	if cfg.SMTPEmail != "" {
		notify.Default = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	}

	app := fiber.New(fiber.Config{AppName: "SPARKLEDASH"})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api/v1")

	authRoutes(api.Group("/auth"))
	userRoutes(api.Group("/users"))
	bookingRoutes(api.Group("/bookings"))
	paymentRoutes(api.Group("/payments"))
	timeoffRoutes(api.Group("/timeoff"))
	checklistRoutes(api.Group("/checklists"))
	settingsRoutes(api.Group("/settings"))
	templateRoutes(api.Group("/templates"))

	err = app.Listen(":" + cfg.Port)
	if err != nil {
		log.Fatal(err)
	}
}

func seedDB(db *gorm.DB) error {
	if _, err := settings.Get(db); err != nil {
		return err
	}

	if err := seedTemplates(db); err != nil {
		return err
	}

	email := "admin@sparkledash.com"
	var existingUser user.User
	result := db.Where("email = ?", email).First(&existingUser)

	if result.Error == nil {
		return nil
	}

	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	firstName := "Admin"

	newUser := user.User{
		FirstName: &firstName,
		LastName:  &firstName,
		Email:     &email,
		Password:  "superadminpass111",
		Role:      user.RoleOwner,
	}
	if err := db.Create(&newUser).Error; err != nil {
		return err
	}

	fmt.Println("Owner seeded successfully")
	return nil
}

func seedTemplates(db *gorm.DB) error {
	defaults := []notify.EmailTemplate{
		{
			Name:     notify.TemplateCancelledWithFee,
			Category: "cancellation",
			Subject:  "Your booking has been cancelled",
			Body:     "<p>Your cleaning on {{scheduled_date}} has been cancelled.</p><p>A cancellation fee of ${{cancellation_fee}} applies. Reason: {{cancellation_reason}}</p>",
		},
		{
			Name:     notify.TemplateCancelledFree,
			Category: "cancellation",
			Subject:  "Your booking has been cancelled",
			Body:     "<p>Your cleaning on {{scheduled_date}} has been cancelled free of charge.</p><p>Reason: {{cancellation_reason}}</p>",
		},
	}

	for _, tpl := range defaults {
		var existing notify.EmailTemplate
		result := db.Where("name = ?", tpl.Name).First(&existing)
		if result.Error == nil {
			continue
		}
		if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
		if err := db.Create(&tpl).Error; err != nil {
			return err
		}
	}

	return nil
}

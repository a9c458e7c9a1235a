package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/user"
)

func Login(c fiber.Ctx) error {
	loginRequest := make(map[string]string)
	if err := c.Bind().JSON(&loginRequest); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	var u user.User
	if result := storage.DB.Where("email = ?", loginRequest["email"]).First(&u); result.Error != nil {
		return apperr.Respond(c, apperr.Unauthorized("incorrect email or password"))
	}

	if err := user.CheckPassword(u.Password, loginRequest["password"]); err != nil {
		return apperr.Respond(c, apperr.Unauthorized("incorrect email or password"))
	}

	t, err := IssueToken(&u)
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not issue token", err))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": t,
		"user":  u,
	})
}

func Logout(c fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "authtoken",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}

	c.Cookie(&cookie)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Successfully logged out",
	})
}

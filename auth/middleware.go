package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
	"github.com/sparkledash/sparkledash/user"
)

const localsKey = "currentUser"

// RequireAuth decodes the bearer token and loads the acting user into the
// request context. Every protected route goes through here.
func RequireAuth(c fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return apperr.Respond(c, apperr.Unauthorized("missing bearer token"))
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	userID, err := ParseToken(tokenString)
	if err != nil {
		return apperr.Respond(c, apperr.Unauthorized("invalid or expired token"))
	}

	var u user.User
	if result := storage.DB.First(&u, "id = ?", userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("user not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load user", result.Error))
	}

	c.Locals(localsKey, &u)
	return c.Next()
}

// CurrentUser returns the user loaded by RequireAuth.
func CurrentUser(c fiber.Ctx) *user.User {
	u, _ := c.Locals(localsKey).(*user.User)
	return u
}

// RequireRoles allows only the listed roles through.
func RequireRoles(roles ...user.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return apperr.Respond(c, apperr.Unauthorized("missing bearer token"))
		}
		for _, role := range roles {
			if u.Role == role {
				return c.Next()
			}
		}
		return apperr.Respond(c, apperr.Forbidden("insufficient role"))
	}
}

// RequirePermission allows ADMIN users holding the named permission and OWNER
// unconditionally.
func RequirePermission(key user.PermissionKey) fiber.Handler {
	return func(c fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return apperr.Respond(c, apperr.Unauthorized("missing bearer token"))
		}
		if !u.IsStaffAdmin() {
			return apperr.Respond(c, apperr.Forbidden("admin access required"))
		}
		if !u.HasPermission(key) {
			return apperr.Respond(c, apperr.Forbidden("missing permission: "+string(key)))
		}
		return c.Next()
	}
}

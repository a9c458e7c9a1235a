package user

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
)

var validate = validator.New()

type NewUserRequest struct {
	Email     *string `json:"email" validate:"required,email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName" validate:"required"`
	LastName  *string `json:"lastName" validate:"required"`
	Phone     *string `json:"phone"`
	Role      Role    `json:"role"`
}

func Create(c fiber.Ctx) error {
	newUser := new(NewUserRequest)

	if err := c.Bind().JSON(newUser); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if err := validate.Struct(newUser); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	if newUser.Role == "" {
		newUser.Role = RoleClient
	}
	if !newUser.Role.Valid() {
		return apperr.Respond(c, apperr.InvalidState("invalid role"))
	}

	newDBUser := &User{
		Email:     newUser.Email,
		Password:  newUser.Password,
		FirstName: newUser.FirstName,
		LastName:  newUser.LastName,
		Phone:     newUser.Phone,
		Role:      newUser.Role,
	}

	if result := storage.DB.Create(newDBUser); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not create user", result.Error))
	}

	return c.Status(http.StatusCreated).JSON(newDBUser)
}

func GetAll(c fiber.Ctx) error {
	role := c.Query("role")

	var users []User
	query := storage.DB
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if result := query.Find(&users); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list users", result.Error))
	}

	return c.Status(http.StatusOK).JSON(users)
}

// Search matches name, email, phone or role against a single wildcard term.
func Search(c fiber.Ctx) error {
	name := c.Query("name")
	wildcard := "%" + name + "%"

	var users []User
	if result := storage.DB.Raw("SELECT * FROM users WHERE deleted_at IS NULL AND (first_name LIKE @name OR last_name LIKE @name OR role LIKE @name OR email LIKE @name OR phone LIKE @name)", sql.Named("name", wildcard)).Find(&users); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not search users", result.Error))
	}

	return c.Status(http.StatusOK).JSON(users)
}

func GetById(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid user id"))
	}

	var u User
	if result := storage.DB.First(&u, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("user not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load user", result.Error))
	}

	return c.Status(http.StatusOK).JSON(u)
}

type UpdateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

func Update(c fiber.Ctx) error {
	userId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid user id"))
	}

	newUserInfo := new(UpdateUserRequest)
	if err = c.Bind().JSON(newUserInfo); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	u := new(User)
	u.ID = uint(userId)

	updates := User{
		Email:     newUserInfo.Email,
		FirstName: newUserInfo.FirstName,
		LastName:  newUserInfo.LastName,
		Phone:     newUserInfo.Phone,
	}

	if result := storage.DB.Model(u).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update user", result.Error))
	}

	return c.Status(http.StatusOK).JSON(u)
}

func Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid user id"))
	}

	// Users referenced by bookings keep their row so clientId stays resolvable.
	var bookingCount int64
	if result := storage.DB.Table("bookings").Where("deleted_at IS NULL AND (client_id = ? OR cleaner_id = ?)", id, id).Count(&bookingCount); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not check bookings", result.Error))
	}
	if bookingCount > 0 {
		return apperr.Respond(c, apperr.InvalidState("user has bookings and cannot be deleted"))
	}

	if result := storage.DB.Delete(&User{}, "id = ?", id); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not delete user", result.Error))
	}

	return c.SendStatus(http.StatusNoContent)
}

type SetPermissionsRequest struct {
	Permissions Permissions `json:"adminPermissions"`
}

// SetPermissions replaces an admin's permission map. Only ADMIN rows carry
// one; OWNER has everything implicitly and clients/cleaners get nothing.
func SetPermissions(c fiber.Ctx) error {
	id := c.Params("id")

	req := new(SetPermissionsRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	var target User
	if result := storage.DB.First(&target, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.NotFound("user not found"))
		}
		return apperr.Respond(c, apperr.Internal("could not load user", result.Error))
	}

	if target.Role != RoleAdmin {
		return apperr.Respond(c, apperr.InvalidState("permissions apply to ADMIN users only"))
	}

	if result := storage.DB.Model(&target).Update("permissions", req.Permissions); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update permissions", result.Error))
	}

	target.Permissions = req.Permissions
	return c.Status(http.StatusOK).JSON(target)
}

func ChangePassword(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid user id"))
	}

	requestBody := make(map[string]string)
	if err := c.Bind().JSON(&requestBody); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if requestBody["password"] != requestBody["confirmPassword"] {
		return apperr.Respond(c, apperr.InvalidState("passwords don't match"))
	}

	hashedPassword, err := generateHashPassword(requestBody["password"])
	if err != nil {
		return apperr.Respond(c, apperr.Internal("could not hash password", err))
	}

	if result := storage.DB.Exec("UPDATE users SET password = ? WHERE id = ?", hashedPassword, id); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update password", result.Error))
	}

	return c.SendStatus(http.StatusOK)
}

package notify

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
)

var validate = validator.New()

func CreateTemplate(c fiber.Ctx) error {
	tpl := new(EmailTemplate)

	if err := c.Bind().JSON(tpl); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if err := validate.Struct(tpl); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	if result := storage.DB.Create(tpl); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not create template", result.Error))
	}

	return c.Status(http.StatusCreated).JSON(tpl)
}

func GetAllTemplates(c fiber.Ctx) error {
	category := c.Query("category")

	var templates []EmailTemplate
	query := storage.DB
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if result := query.Find(&templates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list templates", result.Error))
	}

	return c.Status(http.StatusOK).JSON(templates)
}

func UpdateTemplate(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid template id"))
	}

	updates := make(map[string]any)
	if err := c.Bind().JSON(&updates); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}
	delete(updates, "id")

	tpl := new(EmailTemplate)
	tpl.ID = uint(id)

	if result := storage.DB.Model(tpl).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update template", result.Error))
	}

	return c.Status(http.StatusOK).JSON(tpl)
}

func DeleteTemplate(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid template id"))
	}

	if result := storage.DB.Delete(&EmailTemplate{}, "id = ?", id); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not delete template", result.Error))
	}

	return c.SendStatus(http.StatusNoContent)
}

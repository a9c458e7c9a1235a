package checklist

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/storage"
)

var validate = validator.New()

func Create(c fiber.Ctx) error {
	tpl := new(ChecklistTemplate)

	if err := c.Bind().JSON(tpl); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}

	if err := validate.Struct(tpl); err != nil {
		return apperr.Respond(c, apperr.InvalidState(err.Error()))
	}

	if result := storage.DB.Create(tpl); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not create checklist template", result.Error))
	}

	return c.Status(http.StatusCreated).JSON(tpl)
}

func GetAll(c fiber.Ctx) error {
	serviceType := c.Query("serviceType")

	query := storage.DB.Preload("Items")
	if serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	var templates []ChecklistTemplate
	if result := query.Find(&templates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not list checklist templates", result.Error))
	}

	return c.Status(http.StatusOK).JSON(templates)
}

func Update(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid template id"))
	}

	updates := make(map[string]any)
	if err := c.Bind().JSON(&updates); err != nil {
		return apperr.Respond(c, apperr.InvalidState("invalid request body"))
	}
	delete(updates, "id")
	delete(updates, "items")

	tpl := new(ChecklistTemplate)
	tpl.ID = uint(id)

	if result := storage.DB.Model(tpl).Updates(updates); result.Error != nil {
		return apperr.Respond(c, apperr.Internal("could not update checklist template", result.Error))
	}

	return c.Status(http.StatusOK).JSON(tpl)
}

func Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Respond(c, apperr.InvalidState("invalid template id"))
	}

	tx := storage.DB.Begin()

	if result := tx.Unscoped().Where("checklist_template_id = ?", id).Delete(&ChecklistItem{}); result.Error != nil {
		tx.Rollback()
		return apperr.Respond(c, apperr.Internal("could not delete checklist items", result.Error))
	}

	if result := tx.Unscoped().Where("id = ?", id).Delete(&ChecklistTemplate{}); result.Error != nil {
		tx.Rollback()
		return apperr.Respond(c, apperr.Internal("could not delete checklist template", result.Error))
	}

	if err := tx.Commit().Error; err != nil {
		return apperr.Respond(c, apperr.Internal("could not delete checklist template", err))
	}

	return c.SendStatus(http.StatusNoContent)
}

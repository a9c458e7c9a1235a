package checklist

import (
	"gorm.io/gorm"
)

type ChecklistTemplate struct {
	gorm.Model
	Name        string           `json:"name" validate:"required"`
	ServiceType string           `json:"serviceType"`
	Items       []*ChecklistItem `json:"items" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type ChecklistItem struct {
	gorm.Model
	ChecklistTemplateID uint   `json:"checklistTemplateId"`
	Label               string `json:"label"`
	Position            int    `json:"position"`
}

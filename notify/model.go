package notify

import (
	"strings"

	"gorm.io/gorm"
)

// Template names the cancellation flow chooses between.
const (
	TemplateCancelledWithFee = "booking_cancelled_fee"
	TemplateCancelledFree    = "booking_cancelled_free"
)

type EmailTemplate struct {
	gorm.Model
	Name     string `json:"name" gorm:"unique" validate:"required"`
	Category string `json:"category"`
	Subject  string `json:"subject" validate:"required"`
	Body     string `json:"body" validate:"required"`
}

// Render substitutes {{key}} markers in a template body. Unknown markers are
// left in place so a missing variable shows up in the delivered mail instead
// of vanishing silently.
func Render(text string, vars map[string]string) string {
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}

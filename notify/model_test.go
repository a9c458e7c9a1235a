package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	body := "Fee: ${{cancellation_fee}}, reason: {{cancellation_reason}}"
	out := Render(body, map[string]string{
		"cancellation_fee":    "50.00",
		"cancellation_reason": "schedule conflict",
	})
	assert.Equal(t, "Fee: $50.00, reason: schedule conflict", out)
}

func TestRenderLeavesUnknownMarkers(t *testing.T) {
	out := Render("Hello {{first_name}}", map[string]string{"last_name": "Doe"})
	assert.Equal(t, "Hello {{first_name}}", out)
}

func TestRenderRepeatedMarker(t *testing.T) {
	out := Render("{{x}} and {{x}}", map[string]string{"x": "y"})
	assert.Equal(t, "y and y", out)
}

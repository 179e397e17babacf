package pursuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/templates"
)

func TestEveryProfileAndTriggerHasATemplate(t *testing.T) {
	r := &templates.Renderer{}
	seen := map[string]bool{}
	for _, p := range behavior.Profiles() {
		for _, tr := range Triggers() {
			cart := Cart{Profile: p, PatientName: "Camila Rojas", ServiceType: "Botox", Amount: 180000}
			msg, err := RenderMessage(r, cart, tr, "https://clinica.cl/pagar/a1")
			require.NoError(t, err, "%s/%s", p, tr)
			assert.Contains(t, msg, "Camila")
			assert.NotContains(t, msg, "Rojas")
			assert.Contains(t, msg, "https://clinica.cl/pagar/a1")
			assert.False(t, seen[msg], "duplicate copy for %s/%s", p, tr)
			seen[msg] = true
		}
	}
	assert.Len(t, seen, 12)
}

func TestRenderMessageDefaults(t *testing.T) {
	r := &templates.Renderer{}
	msg, err := RenderMessage(r, Cart{ServiceType: "Limpieza facial", Amount: 45000}, Trigger15Min, "")
	require.NoError(t, err)
	assert.Contains(t, msg, "Paciente")
	assert.Contains(t, msg, "Limpieza facial")

	price, err := RenderMessage(r, Cart{Profile: behavior.ProfilePriceSensitive, PatientName: "Ana", ServiceType: "Peeling", Amount: 45000}, Trigger15Min, "")
	require.NoError(t, err)
	assert.Contains(t, price, "$45.000")

	_, err = Template(behavior.ProfileAnalytic, Trigger("1h"))
	assert.Error(t, err)
}

package retention

import (
	"fmt"

	"github.com/wolfman30/clinic-growth-platform/internal/messaging/templates"
)

const reminderTemplate = `Hola {{firstName .Name}}, {{if eq .Days 1}}mañana{{else}}en {{.Days}} días{{end}} se cumple el plazo para renovar tu {{.Service}}. ` +
	`Reserva tu próxima sesión y mantén tus resultados.{{if .Link}} {{.Link}}{{end}}`

const autoRenewalTemplate = `Hola {{firstName .Name}}, agendamos tu renovación de {{.Service}} para el {{.Date}}. ` +
	`Si necesitas otro horario respóndenos y lo cambiamos.`

type messageData struct {
	Name    string
	Service string
	Days    int
	Date    string
	Link    string
}

// ReminderMessage renders the reminder sent offset days before renewal.
func ReminderMessage(r *templates.Renderer, s Schedule, offset int, link string) (string, error) {
	out, err := r.Render("retention_reminder", reminderTemplate, messageData{
		Name:    displayName(s.PatientName),
		Service: s.ServiceType,
		Days:    offset,
		Link:    link,
	})
	if err != nil {
		return "", fmt.Errorf("retention: render reminder: %w", err)
	}
	return out, nil
}

// AutoRenewalMessage tells the patient their renewal was booked for them.
func AutoRenewalMessage(r *templates.Renderer, s Schedule, at string) (string, error) {
	out, err := r.Render("retention_auto_renewal", autoRenewalTemplate, messageData{
		Name:    displayName(s.PatientName),
		Service: s.ServiceType,
		Date:    at,
	})
	if err != nil {
		return "", fmt.Errorf("retention: render auto renewal: %w", err)
	}
	return out, nil
}

func displayName(name string) string {
	if name == "" {
		return "Paciente"
	}
	return name
}

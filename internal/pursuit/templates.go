package pursuit

import (
	"fmt"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging/templates"
)

type templateKey struct {
	profile behavior.Profile
	trigger Trigger
}

var messageTemplates = map[templateKey]string{
	{behavior.ProfileImpulsive, Trigger15Min}: "¡{{firstName .Name}}, tu hora de {{.Service}} te está esperando! ⚡ Confírmala ahora y asegura tu cupo: {{.PaymentLink}}",
	{behavior.ProfileImpulsive, Trigger2H}:    "{{firstName .Name}}, quedan pocos cupos para {{.Service}} esta semana. Paga en 1 minuto y listo: {{.PaymentLink}}",
	{behavior.ProfileImpulsive, TriggerEOD}:   "Última oportunidad hoy, {{firstName .Name}} 🔥 Tu reserva de {{.Service}} se libera esta noche. Confírmala aquí: {{.PaymentLink}}",

	{behavior.ProfileAnalytic, Trigger15Min}: "Hola {{firstName .Name}}, tu reserva de {{.Service}} ({{clp .Amount}}) quedó pendiente. Si tienes dudas sobre el procedimiento, respóndenos y te enviamos la ficha técnica. Pago: {{.PaymentLink}}",
	{behavior.ProfileAnalytic, Trigger2H}:    "{{firstName .Name}}, te compartimos lo que dicen nuestros pacientes de {{.Service}}: resultados visibles desde la primera sesión y profesionales certificados. Completa tu reserva: {{.PaymentLink}}",
	{behavior.ProfileAnalytic, TriggerEOD}:   "{{firstName .Name}}, resumen de tu reserva: {{.Service}} por {{clp .Amount}}, evaluación incluida y reprogramación sin costo. Mantén tu hora aquí: {{.PaymentLink}}",

	{behavior.ProfilePriceSensitive, Trigger15Min}: "Hola {{firstName .Name}}, tu {{.Service}} por {{clp .Amount}} sigue reservado. Puedes pagar hasta en 3 cuotas sin interés: {{.PaymentLink}}",
	{behavior.ProfilePriceSensitive, Trigger2H}:    "{{firstName .Name}}, mantenemos el precio de {{.Service}} ({{clp .Amount}}) solo por hoy. Asegúralo aquí: {{.PaymentLink}}",
	{behavior.ProfilePriceSensitive, TriggerEOD}:   "{{firstName .Name}}, te regalamos 10% de descuento en {{.Service}} si confirmas antes de medianoche 🎁 {{.PaymentLink}}",

	{behavior.ProfileHesitant, Trigger15Min}: "Hola {{firstName .Name}}, vimos que no terminaste tu reserva de {{.Service}}. ¿Te podemos ayudar con algo? {{.PaymentLink}}",
	{behavior.ProfileHesitant, Trigger2H}:    "{{firstName .Name}}, es normal tener dudas. Nuestra evaluación es sin compromiso y puedes reprogramar cuando quieras. Tu hora: {{.PaymentLink}}",
	{behavior.ProfileHesitant, TriggerEOD}:   "{{firstName .Name}}, guardamos tu hora de {{.Service}} hasta hoy. Si prefieres hablar con alguien del equipo, responde este mensaje 💬 {{.PaymentLink}}",
}

// TemplateData is what every pursuit template can reference.
type TemplateData struct {
	Name        string
	Service     string
	Amount      int64
	PaymentLink string
}

// Template returns the raw template for a profile and trigger. Unknown
// profiles use the hesitant copy.
func Template(p behavior.Profile, t Trigger) (string, error) {
	if !p.Valid() {
		p = behavior.ProfileHesitant
	}
	tmpl, ok := messageTemplates[templateKey{p, t}]
	if !ok {
		return "", fmt.Errorf("pursuit: no template for %s/%s", p, t)
	}
	return tmpl, nil
}

// RenderMessage renders the message for a cart at a trigger.
func RenderMessage(r *templates.Renderer, c Cart, t Trigger, paymentLink string) (string, error) {
	tmpl, err := Template(c.Profile, t)
	if err != nil {
		return "", err
	}
	name := c.PatientName
	if name == "" {
		name = "Paciente"
	}
	return r.Render(fmt.Sprintf("pursuit.%s.%s", c.Profile, t), tmpl, TemplateData{
		Name:        name,
		Service:     c.ServiceType,
		Amount:      c.Amount,
		PaymentLink: paymentLink,
	})
}

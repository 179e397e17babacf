package behavior

// Variant is the landing copy shown to a given profile.
type Variant struct {
	Profile  Profile `json:"profile"`
	Headline string  `json:"headline"`
	Subline  string  `json:"subline"`
	CTA      string  `json:"cta"`
	Emphasis string  `json:"emphasis"`
}

var variants = map[Profile]Variant{
	ProfileImpulsive: {
		Headline: "Reserva hoy y asegura tu hora",
		Subline:  "Quedan pocos cupos esta semana.",
		CTA:      "Reservar ahora",
		Emphasis: "urgency",
	},
	ProfileAnalytic: {
		Headline: "Resultados comprobados por especialistas",
		Subline:  "Revisa casos reales, protocolos y certificaciones.",
		CTA:      "Ver detalles del tratamiento",
		Emphasis: "evidence",
	},
	ProfilePriceSensitive: {
		Headline: "Tratamientos de calidad a un precio justo",
		Subline:  "Paga en cuotas y aprovecha los descuentos vigentes.",
		CTA:      "Ver precios y promociones",
		Emphasis: "value",
	},
	ProfileHesitant: {
		Headline: "Resolvemos tus dudas sin compromiso",
		Subline:  "Agenda una evaluación gratuita con nuestro equipo.",
		CTA:      "Agendar evaluación gratuita",
		Emphasis: "reassurance",
	},
}

// ContentVariant returns the landing copy for p, defaulting to the hesitant copy.
func ContentVariant(p Profile) Variant {
	v, ok := variants[p]
	if !ok {
		p = ProfileHesitant
		v = variants[p]
	}
	v.Profile = p
	return v
}

package bant

import "github.com/wolfman30/clinic-growth-platform/internal/behavior"

// Recommend maps a score onto the next sales action.
func Recommend(s Score) Recommendation {
	switch s.Status {
	case StatusQualified:
		return Recommendation{
			Action:   "book_now",
			Priority: "high",
			Message:  "Lead calificado: ofrecer horarios disponibles y confirmar la reserva.",
		}
	case StatusDisqualified:
		if s.DisqualifiedReason == ReasonBudgetFloor {
			return Recommendation{
				Action:   "offer_entry_service",
				Priority: "low",
				Message:  "Presupuesto bajo el mínimo: sugerir tratamientos de entrada o planes de pago.",
			}
		}
		return Recommendation{
			Action:   "nurture",
			Priority: "low",
			Message:  "Interés bajo: incluir en campañas de contenido y volver a evaluar más adelante.",
		}
	}

	// Pending or unscored: work on the weakest dimension.
	switch {
	case s.AuthorityScore < 50:
		return Recommendation{
			Action:   "involve_decision_maker",
			Priority: "medium",
			Message:  "Confirmar quién toma la decisión e invitarlo a la evaluación.",
		}
	case s.NeedScore < 50:
		return Recommendation{
			Action:   "educate",
			Priority: "medium",
			Message:  "Enviar casos de éxito y resultados para reforzar la necesidad.",
		}
	case s.TimelineScore < 50:
		return Recommendation{
			Action:   "schedule_follow_up",
			Priority: "medium",
			Message:  "Agendar seguimiento cerca de la fecha estimada de compra.",
		}
	default:
		return Recommendation{
			Action:   "follow_up",
			Priority: "medium",
			Message:  "Contactar para resolver dudas y avanzar a la reserva.",
		}
	}
}

// LeadPriority boosts the BANT total for impulsive visitors and high scarcity.
func LeadPriority(s Score, profile behavior.Profile, scarcityLevel int) Priority {
	p := s.TotalScore
	if profile == behavior.ProfileImpulsive {
		p += 10
	}
	if scarcityLevel >= 70 {
		p += 15
	}
	if p > 100 {
		p = 100
	}

	switch {
	case p >= 80:
		return Priority{Score: p, Tier: TierHot, Channel: ChannelCall}
	case p >= 60:
		return Priority{Score: p, Tier: TierWarm, Channel: ChannelWhatsApp}
	default:
		return Priority{Score: p, Tier: TierCold, Channel: ChannelEmail}
	}
}

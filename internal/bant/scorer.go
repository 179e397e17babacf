package bant

import (
	"sort"
	"strings"
)

var (
	executiveTitles = []string{
		"ceo", "owner", "dueño", "dueña", "director", "directora", "gerente general",
		"fundador", "fundadora", "founder", "presidente", "presidenta", "socio", "socia",
	}
	managerTitles = []string{
		"manager", "gerente", "jefe", "jefa", "encargado", "encargada",
		"coordinador", "coordinadora", "supervisor", "supervisora",
	}

	urgencyKeywords = []string{
		"urgent", "urgente", "asap", "pronto", "inmediat", "cuanto antes",
		"lo antes posible", "hoy mismo", "esta semana", "right away",
	}
	painKeywords = []string{
		"problem", "problema", "dolor", "pain", "molest", "insegur",
		"complej", "preocup", "afecta", "worried", "manchas", "arrugas",
	}
)

const (
	keywordPoints    = 25
	keywordSetCap    = 50
	defaultNeedScore = 30
)

// Qualify scores a lead. It is pure: QualifiedAt is left for the caller to stamp.
func Qualify(in Input) Score {
	s := Score{
		Budget:         in.Budget,
		BudgetScore:    BudgetScore(in.Budget),
		Authority:      in.Authority,
		JobTitle:       in.JobTitle,
		AuthorityScore: AuthorityScore(in.Authority, in.JobTitle),
		Need:           append([]string(nil), in.NeedAnswers...),
		NeedScore:      NeedScore(in.NeedAnswers),
		TimelineDays:   in.TimelineDays,
		TimelineScore:  TimelineScore(in.TimelineDays),
	}
	// Integer weights keep the floor exact.
	s.TotalScore = (40*s.BudgetScore + 25*s.AuthorityScore + 20*s.NeedScore + 15*s.TimelineScore) / 100

	switch {
	case in.Budget < MinBudget:
		s.Status = StatusDisqualified
		s.DisqualifiedReason = ReasonBudgetFloor
	case s.TotalScore >= 70:
		s.Status = StatusQualified
	case s.TotalScore < 40:
		s.Status = StatusDisqualified
		s.DisqualifiedReason = ReasonLowComposite
	default:
		s.Status = StatusPending
	}
	return s
}

// BudgetScore is 0 below MinBudget, 100 at or above MaxBudget and linear in between.
func BudgetScore(budget int64) int {
	switch {
	case budget < MinBudget:
		return 0
	case budget >= MaxBudget:
		return 100
	}
	return int((budget - MinBudget) * 100 / (MaxBudget - MinBudget))
}

// AuthorityScore grades decision power from the job title.
func AuthorityScore(authority bool, jobTitle string) int {
	if !authority {
		return 0
	}
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	switch {
	case title == "":
		return 50
	case containsAny(title, executiveTitles):
		return 100
	case containsAny(title, managerTitles):
		return 70
	default:
		return 40
	}
}

// NeedScore counts urgency and pain keywords in the free-text answers.
func NeedScore(answers []string) int {
	text := strings.ToLower(strings.TrimSpace(strings.Join(answers, " ")))
	if text == "" {
		return defaultNeedScore
	}
	score := keywordScore(text, urgencyKeywords) + keywordScore(text, painKeywords)
	if score > 100 {
		score = 100
	}
	return score
}

// TimelineScore maps days until purchase onto a step function.
func TimelineScore(days int) int {
	switch {
	case days <= 7:
		return 100
	case days <= 14:
		return 90
	case days <= 30:
		return 75
	case days <= 60:
		return 50
	case days <= 90:
		return 30
	default:
		return 10
	}
}

// keywordScore awards keywordPoints per distinct mention. Keywords sharing a
// stem ("urgent" inside "urgente") overlap in the text and count once.
func keywordScore(text string, keywords []string) int {
	var spans [][2]int
	for _, kw := range keywords {
		for from := 0; ; {
			i := strings.Index(text[from:], kw)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, [2]int{start, start + len(kw)})
			from = start + len(kw)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	mentions, end := 0, -1
	for _, sp := range spans {
		if sp[0] >= end {
			mentions++
		}
		if sp[1] > end {
			end = sp[1]
		}
	}
	return min(mentions*keywordPoints, keywordSetCap)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Package bant scores leads on Budget, Authority, Need and Timeline and turns
// the score into a routing decision for the sales team.
package bant

import "time"

// Status is the qualification outcome of a score.
type Status string

const (
	StatusUnqualified  Status = "unqualified"
	StatusQualified    Status = "qualified"
	StatusDisqualified Status = "disqualified"
	StatusPending      Status = "pending"
)

// Disqualification reasons.
const (
	ReasonBudgetFloor  = "budget_below_minimum"
	ReasonLowComposite = "low_composite_score"
)

// Budget bounds in CLP.
const (
	MinBudget int64 = 30_000
	MaxBudget int64 = 500_000
)

// Input is what the booking wizard collects from a lead.
type Input struct {
	Budget       int64    `json:"budget"`
	Authority    bool     `json:"authority"`
	JobTitle     string   `json:"job_title,omitempty"`
	NeedAnswers  []string `json:"need_answers,omitempty"`
	TimelineDays int      `json:"timeline_days"`
}

// Score is one qualification attempt. Scores are never updated; a new
// attempt produces a new Score.
type Score struct {
	ID                 string     `json:"id,omitempty"`
	ClinicID           string     `json:"clinic_id,omitempty"`
	PatientID          string     `json:"patient_id,omitempty"`
	Budget             int64      `json:"budget"`
	BudgetScore        int        `json:"budget_score"`
	Authority          bool       `json:"authority"`
	JobTitle           string     `json:"job_title,omitempty"`
	AuthorityScore     int        `json:"authority_score"`
	Need               []string   `json:"need"`
	NeedScore          int        `json:"need_score"`
	TimelineDays       int        `json:"timeline_days"`
	TimelineScore      int        `json:"timeline_score"`
	TotalScore         int        `json:"total_score"`
	Status             Status     `json:"status"`
	DisqualifiedReason string     `json:"disqualified_reason,omitempty"`
	QualifiedAt        *time.Time `json:"qualified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
}

// Recommendation tells downstream routing what to do next with a lead.
type Recommendation struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// Tier buckets a lead's contact priority.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// Channel is the recommended way to reach a lead.
type Channel string

const (
	ChannelCall     Channel = "call"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Priority is the routing result of LeadPriority.
type Priority struct {
	Score   int     `json:"score"`
	Tier    Tier    `json:"tier"`
	Channel Channel `json:"channel"`
}

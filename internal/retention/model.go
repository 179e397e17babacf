package retention

import "time"

// Status is the lifecycle state of a schedule.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// ReminderOffsets are the days before renewal a reminder is due, largest first.
var ReminderOffsets = []int{30, 14, 7, 1}

// ExpireAfter is how long past the renewal date a schedule without
// auto-renewal stays active.
const ExpireAfter = 30 * 24 * time.Hour

// Schedule tracks the next renewal of one treatment for one patient.
type Schedule struct {
	ID                 string    `json:"id"`
	ClinicID           string    `json:"clinic_id"`
	PatientID          string    `json:"patient_id"`
	AppointmentID      string    `json:"appointment_id"`
	ServiceType        string    `json:"service_type"`
	LastServiceDate    time.Time `json:"last_service_date"`
	NextRenewalDate    time.Time `json:"next_renewal_date"`
	AutoRenewalEnabled bool      `json:"auto_renewal_enabled"`
	Status             Status    `json:"status"`
	Reminder30Sent     bool      `json:"reminder_30_sent"`
	Reminder14Sent     bool      `json:"reminder_14_sent"`
	Reminder7Sent      bool      `json:"reminder_7_sent"`
	Reminder1Sent      bool      `json:"reminder_1_sent"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Contact details joined from patients for delivery.
	PatientName string `json:"patient_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ReminderSent reports whether the reminder at offset days was already sent.
func (s *Schedule) ReminderSent(offset int) bool {
	switch offset {
	case 30:
		return s.Reminder30Sent
	case 14:
		return s.Reminder14Sent
	case 7:
		return s.Reminder7Sent
	case 1:
		return s.Reminder1Sent
	}
	return false
}

func (s *Schedule) markReminder(offset int) {
	switch offset {
	case 30:
		s.Reminder30Sent = true
	case 14:
		s.Reminder14Sent = true
	case 7:
		s.Reminder7Sent = true
	case 1:
		s.Reminder1Sent = true
	}
}

// Appointment is the slice of an appointment retention cares about.
type Appointment struct {
	ID            string
	ClinicID      string
	PatientID     string
	ServiceType   string
	Status        string
	PaymentStatus string
	ScheduledAt   time.Time
}

// ActionKind is what a renewal run does with a schedule.
type ActionKind string

const (
	ActionNone      ActionKind = "none"
	ActionRemind    ActionKind = "remind"
	ActionAutoRenew ActionKind = "auto_renew"
	ActionExpire    ActionKind = "expire"
)

// Action is the planned step for one schedule. Mark lists every reminder
// offset to flag as sent when Kind is ActionRemind.
type Action struct {
	Kind   ActionKind
	Offset int
	Mark   []int
}

// RunResult summarises one ProcessAutoRenewals call.
type RunResult struct {
	ClinicID string   `json:"clinic_id"`
	Checked  int      `json:"checked"`
	Reminded int      `json:"reminded"`
	Renewed  int      `json:"renewed"`
	Expired  int      `json:"expired"`
	Errors   []string `json:"errors,omitempty"`
}

// DaysUntil counts calendar days from now to the renewal date in UTC.
// Negative values mean the renewal date has passed.
func DaysUntil(now, renewal time.Time) int {
	from := now.UTC().Truncate(24 * time.Hour)
	to := renewal.UTC().Truncate(24 * time.Hour)
	return int(to.Sub(from).Hours() / 24)
}

// Plan decides what a run should do with an active schedule. At most one
// reminder is planned per run: the smallest offset that applies. Larger
// offsets are marked along with it so a late first run does not send a
// burst of stale reminders.
func Plan(s Schedule, now time.Time) Action {
	if s.Status != StatusActive {
		return Action{Kind: ActionNone}
	}
	days := DaysUntil(now, s.NextRenewalDate)
	if days <= 0 {
		if s.AutoRenewalEnabled {
			return Action{Kind: ActionAutoRenew}
		}
		if now.Sub(s.NextRenewalDate) > ExpireAfter {
			return Action{Kind: ActionExpire}
		}
		return Action{Kind: ActionNone}
	}

	due := 0
	for i := len(ReminderOffsets) - 1; i >= 0; i-- {
		if days <= ReminderOffsets[i] {
			due = ReminderOffsets[i]
			break
		}
	}
	if due == 0 || s.ReminderSent(due) {
		return Action{Kind: ActionNone}
	}
	var mark []int
	for _, o := range ReminderOffsets {
		if o >= due && !s.ReminderSent(o) {
			mark = append(mark, o)
		}
	}
	return Action{Kind: ActionRemind, Offset: due, Mark: mark}
}

// RenewalSlot picks the start of the auto-renewal appointment: the renewal
// date itself, moved forward a day at a time until it is in the future.
func RenewalSlot(renewal, now time.Time) time.Time {
	at := renewal
	for !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

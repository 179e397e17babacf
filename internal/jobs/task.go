// Package jobs queues and runs the per-clinic scheduled work: abandoned-cart
// pursuit, flash offers and retention auto-renewals.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
)

// Kind names a scheduled job.
type Kind string

const (
	KindPursuit     Kind = "pursuit"
	KindFlashOffer  Kind = "flash_offer"
	KindAutoRenewal Kind = "auto_renewal"
)

// Kinds lists every job kind in the order the cron enqueues them.
func Kinds() []Kind {
	return []Kind{KindPursuit, KindFlashOffer, KindAutoRenewal}
}

// ParseKind accepts the wire name of a kind.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", apierr.BadRequest(fmt.Sprintf("unknown job kind %q", raw))
}

// Task is one unit of work for one clinic. Trigger optionally narrows a
// pursuit task to a single window.
type Task struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	ClinicID   string    `json:"clinic_id"`
	Trigger    string    `json:"trigger,omitempty"`
	Source     string    `json:"source,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask stamps an id and enqueue time.
func NewTask(kind Kind, clinicID, source string) Task {
	return Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		ClinicID:   clinicID,
		Source:     source,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (t Task) encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("jobs: encode task: %w", err)
	}
	return string(raw), nil
}

func decodeTask(body string) (Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return Task{}, fmt.Errorf("jobs: decode task: %w", err)
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return Task{}, fmt.Errorf("jobs: decode task: unknown kind %q", t.Kind)
	}
	if t.ClinicID == "" {
		return Task{}, fmt.Errorf("jobs: decode task: missing clinic_id")
	}
	return t, nil
}

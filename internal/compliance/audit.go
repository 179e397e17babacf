// Package compliance keeps an append-only audit trail of administrative and
// security-relevant actions.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType represents the type of audited action.
type AuditEventType string

const (
	EventAdminLoginSucceeded AuditEventType = "admin.login_succeeded"
	EventAdminLoginFailed    AuditEventType = "admin.login_failed"
	EventClinicOnboarded     AuditEventType = "clinic.onboarded"
	EventClinicUpdated       AuditEventType = "clinic.updated"
	EventPatientDeleted      AuditEventType = "patient.deleted"
	EventScheduleCancelled   AuditEventType = "retention.schedule_cancelled"
	EventJobTriggered        AuditEventType = "jobs.triggered"
)

// AuditEvent represents an immutable audit record.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	ClinicID  string          `json:"clinic_id,omitempty"`
	ActorID   string          `json:"actor_id,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	RemoteIP  string          `json:"remote_ip,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditService writes and reads compliance_audit_events through database/sql.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Details) == 0 {
		event.Details = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO compliance_audit_events (
			id, event_type, clinic_id, actor_id, subject, remote_ip, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.EventType),
		nullString(event.ClinicID),
		nullString(event.ActorID),
		nullString(event.Subject),
		nullString(event.RemoteIP),
		[]byte(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}

	return nil
}

// Record logs an event with details marshalled from v. Marshal failures
// drop the details rather than the event.
func (s *AuditService) Record(ctx context.Context, eventType AuditEventType, clinicID, actorID, subject string, v any) error {
	var details json.RawMessage
	if v != nil {
		if raw, err := json.Marshal(v); err == nil {
			details = raw
		}
	}
	return s.LogEvent(ctx, AuditEvent{
		EventType: eventType,
		ClinicID:  clinicID,
		ActorID:   actorID,
		Subject:   subject,
		Details:   details,
	})
}

// LogLogin records an admin login attempt. Failed attempts carry no actor.
func (s *AuditService) LogLogin(ctx context.Context, clinicID, userID, email, remoteIP string, ok bool) error {
	event := AuditEvent{
		EventType: EventAdminLoginFailed,
		ClinicID:  clinicID,
		Subject:   email,
		RemoteIP:  remoteIP,
	}
	if ok {
		event.EventType = EventAdminLoginSucceeded
		event.ActorID = userID
	}
	return s.LogEvent(ctx, event)
}

// QueryEvents retrieves audit events with filters.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, clinic_id, actor_id, subject, remote_ip, details, created_at
		FROM compliance_audit_events
		WHERE clinic_id = $1
	`
	args := []interface{}{filter.ClinicID}
	argIdx := 2

	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, string(filter.EventType))
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var eventType string
		var clinicID, actorID, subject, remoteIP sql.NullString
		var details []byte
		err := rows.Scan(
			&e.ID, &eventType, &clinicID, &actorID, &subject, &remoteIP, &details, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.EventType = AuditEventType(eventType)
		e.ClinicID = clinicID.String
		e.ActorID = actorID.String
		e.Subject = subject.String
		e.RemoteIP = remoteIP.String
		e.Details = details
		events = append(events, e)
	}

	return events, rows.Err()
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	ClinicID  string
	EventType AuditEventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

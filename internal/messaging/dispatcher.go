// Package messaging routes outreach to patients over WhatsApp, email or a
// staff call task.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/messaging/compliance"
	"github.com/wolfman30/clinic-growth-platform/internal/notify"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

// Channel is the medium a message goes out on.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelCall     Channel = "call"
)

var (
	// ErrNoContact is returned when the patient has no address for any usable channel.
	ErrNoContact = errors.New("messaging: patient has no usable contact")
	// ErrChannelUnavailable is returned when the channel's provider is not configured.
	ErrChannelUnavailable = errors.New("messaging: channel not configured")
	// ErrQuietHours is returned when a marketing WhatsApp falls in quiet hours
	// and the patient has no email to fall back to.
	ErrQuietHours = errors.New("messaging: inside quiet hours")
)

// Outbound is one message to one patient.
type Outbound struct {
	ClinicID  string
	PatientID string
	Name      string
	Phone     string
	Email     string
	Channel   Channel
	Subject   string
	Body      string
	Category  string
}

// TextSender delivers WhatsApp text messages.
type TextSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// CallTaskRecorder queues a call for clinic staff.
type CallTaskRecorder interface {
	RecordCallTask(ctx context.Context, msg Outbound) error
}

// Dispatcher sends on the requested channel. A failed WhatsApp send falls
// back to email when the patient has one.
type Dispatcher struct {
	whatsapp TextSender
	email    notify.EmailSender
	calls    CallTaskRecorder
	quiet    *compliance.QuietHours
	now      func() time.Time
	logger   *logging.Logger
}

// NewDispatcher wires the channel providers. Any of them may be nil.
func NewDispatcher(whatsapp TextSender, email notify.EmailSender, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{whatsapp: whatsapp, email: email, now: time.Now, logger: logger}
}

// WithQuietHours diverts marketing WhatsApp messages sent inside q to email.
func (d *Dispatcher) WithQuietHours(q compliance.QuietHours) *Dispatcher {
	d.quiet = &q
	return d
}

// WithCallTasks records call-channel messages as staff tasks.
func (d *Dispatcher) WithCallTasks(rec CallTaskRecorder) *Dispatcher {
	d.calls = rec
	return d
}

// Send delivers msg and returns the channel actually used.
func (d *Dispatcher) Send(ctx context.Context, msg Outbound) (Channel, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return "", errors.New("messaging: body is required")
	}
	switch msg.Channel {
	case ChannelCall:
		return ChannelCall, d.sendCall(ctx, msg)
	case ChannelEmail:
		if err := d.sendEmail(ctx, msg); err != nil {
			return ChannelEmail, err
		}
		return ChannelEmail, nil
	case ChannelWhatsApp, "":
		if d.quiet != nil && d.quiet.Suppress(d.now(), compliance.PurposeFor(msg.Category)) {
			if msg.Email == "" || d.email == nil {
				return ChannelWhatsApp, ErrQuietHours
			}
			return ChannelEmail, d.sendEmail(ctx, msg)
		}
		err := d.sendWhatsApp(ctx, msg)
		if err == nil {
			return ChannelWhatsApp, nil
		}
		if msg.Email == "" || d.email == nil {
			return ChannelWhatsApp, err
		}
		d.logger.Warn("whatsapp send failed; attempting email fallback",
			"clinic_id", msg.ClinicID,
			"patient_id", msg.PatientID,
			"error", err,
		)
		if fbErr := d.sendEmail(ctx, msg); fbErr != nil {
			d.logger.Error("email fallback failed", "patient_id", msg.PatientID, "error", fbErr)
			return ChannelEmail, fbErr
		}
		return ChannelEmail, nil
	default:
		return "", fmt.Errorf("messaging: unknown channel %q", msg.Channel)
	}
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, msg Outbound) error {
	if d.whatsapp == nil {
		return ErrChannelUnavailable
	}
	if strings.TrimSpace(msg.Phone) == "" {
		return ErrNoContact
	}
	id, err := d.whatsapp.SendText(ctx, msg.Phone, msg.Body)
	if err != nil {
		return err
	}
	d.logger.Info("whatsapp message sent", "patient_id", msg.PatientID, "category", msg.Category, "message_id", id)
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, msg Outbound) error {
	if d.email == nil {
		return ErrChannelUnavailable
	}
	if strings.TrimSpace(msg.Email) == "" {
		return ErrNoContact
	}
	subject := msg.Subject
	if subject == "" {
		subject = "Tu clínica te escribe"
	}
	return d.email.Send(ctx, notify.EmailMessage{
		To:       msg.Email,
		ToName:   msg.Name,
		Subject:  subject,
		Body:     msg.Body,
		Category: msg.Category,
	})
}

func (d *Dispatcher) sendCall(ctx context.Context, msg Outbound) error {
	if d.calls == nil {
		d.logger.Info("call task created",
			"clinic_id", msg.ClinicID,
			"patient_id", msg.PatientID,
			"phone", msg.Phone,
			"category", msg.Category,
		)
		return nil
	}
	if err := d.calls.RecordCallTask(ctx, msg); err != nil {
		return fmt.Errorf("messaging: record call task: %w", err)
	}
	return nil
}

package payments

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-growth-platform/internal/ads"
	"github.com/wolfman30/clinic-growth-platform/internal/events"
	"github.com/wolfman30/clinic-growth-platform/internal/invoicing"
	"github.com/wolfman30/clinic-growth-platform/internal/retention"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.payments")

// Invoicer issues the receipt for a paid appointment.
type Invoicer interface {
	IssueBoleta(ctx context.Context, b invoicing.Boleta) (string, error)
}

// ConversionUploader reports a paid appointment to the ad network.
type ConversionUploader interface {
	UploadConversion(ctx context.Context, c ads.Conversion) error
}

// RenewalScheduler opens the retention schedule of a completed, paid appointment.
type RenewalScheduler interface {
	CreateForAppointment(ctx context.Context, appt retention.Appointment) (*retention.Schedule, error)
}

// Confirmer applies provider confirmations. The dedupe marker, appointment
// update, patient spend and audit entry commit together; receipts and ad
// conversions run after commit and never fail the confirmation.
type Confirmer struct {
	db       DB
	repo     Repository
	invoicer Invoicer
	ads      ConversionUploader
	renewals RenewalScheduler
	logger   *logging.Logger
}

func NewConfirmer(db DB, logger *logging.Logger) *Confirmer {
	if db == nil {
		panic("payments: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Confirmer{db: db, logger: logger.WithComponent("payments")}
}

// WithInvoicer enables electronic receipts.
func (c *Confirmer) WithInvoicer(inv Invoicer) *Confirmer {
	c.invoicer = inv
	return c
}

// WithConversions enables offline conversion uploads.
func (c *Confirmer) WithConversions(u ConversionUploader) *Confirmer {
	c.ads = u
	return c
}

// WithRenewals opens retention schedules for appointments paid after the
// treatment was already completed.
func (c *Confirmer) WithRenewals(r RenewalScheduler) *Confirmer {
	c.renewals = r
	return c
}

// Confirm applies conf once per (provider, event id).
func (c *Confirmer) Confirm(ctx context.Context, conf Confirmation) (*Result, error) {
	ctx, span := tracer.Start(ctx, "payments.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("payments.provider", conf.Provider),
		attribute.String("payments.outcome", string(conf.Outcome)),
	)

	if conf.EventID == "" {
		return nil, errors.New("payments: confirm: event id required")
	}
	if conf.Outcome != OutcomeApproved && conf.Outcome != OutcomeFailed {
		return &Result{Outcome: conf.Outcome}, nil
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("payments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	fresh, err := events.NewProcessedStore(tx).MarkProcessed(ctx, conf.Provider, conf.EventID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return &Result{Outcome: conf.Outcome, Duplicate: true}, nil
	}

	appt, err := c.repo.FindAppointment(ctx, tx, conf.ExternalReference)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("clinic.clinic_id", appt.ClinicID))
	result := &Result{AppointmentID: appt.ID, ClinicID: appt.ClinicID, Outcome: conf.Outcome}

	switch {
	case appt.PaymentStatus == "paid":
		// Later events for a settled appointment only mark the event as seen.
		result.AlreadyPaid = true
	case conf.Outcome == OutcomeApproved:
		if conf.Amount > 0 && conf.Amount != appt.Amount {
			c.logger.Error("payments: amount mismatch",
				"appointment_id", appt.ID, "expected", appt.Amount, "paid", conf.Amount, "provider", conf.Provider)
			return nil, ErrAmountMismatch
		}
		if err := c.repo.MarkPaid(ctx, tx, appt, conf); err != nil {
			return nil, err
		}
	default:
		if err := c.repo.MarkFailed(ctx, tx, appt, conf); err != nil {
			return nil, err
		}
	}
	if !result.AlreadyPaid {
		if err := c.repo.InsertAudit(ctx, tx, appt, conf, string(conf.Outcome)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("payments: commit: %w", err)
	}

	logger := c.logger.WithClinic(appt.ClinicID)
	logger.Info("payments: confirmation applied",
		"appointment_id", appt.ID,
		"provider", conf.Provider,
		"outcome", conf.Outcome,
		"already_paid", result.AlreadyPaid,
	)
	if conf.Outcome == OutcomeApproved && !result.AlreadyPaid {
		result.InvoiceFolio = c.issueReceipt(ctx, logger, appt, conf)
		c.uploadConversion(ctx, logger, appt, conf)
		c.openRenewal(ctx, logger, appt)
	}
	return result, nil
}

func (c *Confirmer) openRenewal(ctx context.Context, logger *logging.Logger, appt *Appointment) {
	if c.renewals == nil || appt.Status != "completed" {
		return
	}
	_, err := c.renewals.CreateForAppointment(ctx, retention.Appointment{
		ID:            appt.ID,
		ClinicID:      appt.ClinicID,
		PatientID:     appt.PatientID,
		ServiceType:   appt.ServiceType,
		Status:        appt.Status,
		PaymentStatus: "paid",
		ScheduledAt:   appt.ScheduledAt,
	})
	if err != nil {
		logger.Warn("payments: retention schedule not created", "appointment_id", appt.ID, "error", err)
	}
}

func (c *Confirmer) issueReceipt(ctx context.Context, logger *logging.Logger, appt *Appointment, conf Confirmation) string {
	if c.invoicer == nil {
		return ""
	}
	folio, err := c.invoicer.IssueBoleta(ctx, invoicing.Boleta{
		ClinicID:      appt.ClinicID,
		AppointmentID: appt.ID,
		ReceiverRUT:   appt.PatientRUT,
		ReceiverName:  appt.PatientName,
		ReceiverEmail: appt.PatientEmail,
		Description:   appt.ServiceType,
		Amount:        appt.Amount,
		IssuedAt:      conf.PaidAt,
	})
	if err != nil {
		logger.Warn("payments: receipt not issued", "appointment_id", appt.ID, "error", err)
		return ""
	}
	if err := c.repo.SetInvoiceFolio(ctx, c.db, appt.ID, folio); err != nil {
		logger.Warn("payments: folio not stored", "appointment_id", appt.ID, "folio", folio, "error", err)
	}
	return folio
}

func (c *Confirmer) uploadConversion(ctx context.Context, logger *logging.Logger, appt *Appointment, conf Confirmation) {
	if c.ads == nil || appt.GCLID == "" {
		return
	}
	err := c.ads.UploadConversion(ctx, ads.Conversion{
		GCLID:         appt.GCLID,
		AppointmentID: appt.ID,
		Value:         appt.Amount,
		OccurredAt:    conf.PaidAt,
	})
	if err != nil {
		logger.Warn("payments: conversion not uploaded", "appointment_id", appt.ID, "error", err)
	}
}

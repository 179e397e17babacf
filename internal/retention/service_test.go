package retention

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-growth-platform/internal/campaigns"
	"github.com/wolfman30/clinic-growth-platform/internal/messaging"
)

type memoryStore struct {
	schedules map[string]*Schedule
	order     []string
	logs      map[string]*campaigns.Log
	renewals  []string
	seq       int
}

func newMemoryStore(schedules ...Schedule) *memoryStore {
	m := &memoryStore{schedules: map[string]*Schedule{}, logs: map[string]*campaigns.Log{}}
	for i := range schedules {
		s := schedules[i]
		m.schedules[s.ID] = &s
		m.order = append(m.order, s.ID)
	}
	return m
}

func (m *memoryStore) Create(_ context.Context, s *Schedule) (bool, error) {
	for _, existing := range m.schedules {
		if existing.AppointmentID == s.AppointmentID {
			return false, nil
		}
	}
	m.seq++
	s.ID = fmt.Sprintf("sched-%d", m.seq)
	copied := *s
	m.schedules[s.ID] = &copied
	m.order = append(m.order, s.ID)
	return true, nil
}

func (m *memoryStore) ListActive(_ context.Context, clinicID string) ([]Schedule, error) {
	return m.List(context.Background(), clinicID, StatusActive, 0)
}

func (m *memoryStore) List(_ context.Context, clinicID string, status Status, _ int) ([]Schedule, error) {
	var out []Schedule
	for _, id := range m.order {
		s := m.schedules[id]
		if s.ClinicID == clinicID && (status == "" || s.Status == status) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkReminders(_ context.Context, id string, offsets []int) error {
	for _, o := range offsets {
		m.schedules[id].markReminder(o)
	}
	return nil
}

func (m *memoryStore) SetStatus(_ context.Context, clinicID, id string, from, to Status) error {
	s, ok := m.schedules[id]
	if !ok || s.ClinicID != clinicID || s.Status != from {
		return ErrNotFound
	}
	s.Status = to
	return nil
}

func (m *memoryStore) CompleteForService(_ context.Context, clinicID, patientID, serviceType string) (int64, error) {
	var n int64
	for _, s := range m.schedules {
		if s.ClinicID == clinicID && s.PatientID == patientID && strings.EqualFold(s.ServiceType, serviceType) && s.Status == StatusActive {
			s.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CreateRenewalAppointment(_ context.Context, s Schedule, at time.Time) (string, error) {
	id := fmt.Sprintf("renewal-%s-%d", s.ID, at.Unix())
	m.renewals = append(m.renewals, id)
	return id, nil
}

func (m *memoryStore) RecordCampaign(_ context.Context, entry *campaigns.Log) (bool, error) {
	key := entry.AppointmentID + "|" + string(entry.Type) + "|" + entry.Trigger
	if _, ok := m.logs[key]; ok {
		return false, nil
	}
	m.seq++
	entry.ID = fmt.Sprintf("log-%d", m.seq)
	copied := *entry
	m.logs[key] = &copied
	return true, nil
}

func (m *memoryStore) MarkCampaignStatus(_ context.Context, id string, status campaigns.Status, _, errMsg string) error {
	for _, l := range m.logs {
		if l.ID == id {
			l.Status = status
			l.Error = errMsg
		}
	}
	return nil
}

type recordingSender struct {
	sent []messaging.Outbound
	fail bool
}

func (r *recordingSender) Send(_ context.Context, msg messaging.Outbound) (messaging.Channel, error) {
	if r.fail {
		return msg.Channel, errors.New("whatsapp: unavailable")
	}
	r.sent = append(r.sent, msg)
	return msg.Channel, nil
}

func newTestService(store Store, sender Sender) *Service {
	s := NewService(store, sender, nil).WithBookingLink("https://clinica.cl/reservar/")
	s.now = func() time.Time { return fixedNow }
	return s
}

func activeSchedule(id string, dueInDays int) Schedule {
	return Schedule{
		ID:              id,
		ClinicID:        "clinic-1",
		PatientID:       "p-" + id,
		AppointmentID:   "a-" + id,
		ServiceType:     "Botox",
		LastServiceDate: fixedNow.AddDate(0, 0, dueInDays-120),
		NextRenewalDate: fixedNow.AddDate(0, 0, dueInDays),
		Status:          StatusActive,
		PatientName:     "Camila Rojas",
		Phone:           "+56911112222",
	}
}

func TestCreateForAppointment(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &recordingSender{})
	served := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)

	sched, err := svc.CreateForAppointment(context.Background(), Appointment{
		ID: "a1", ClinicID: "clinic-1", PatientID: "p1", ServiceType: "Botox",
		Status: "completed", PaymentStatus: "paid", ScheduledAt: served,
	})
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, served.AddDate(0, 0, 120), sched.NextRenewalDate)
	assert.Equal(t, StatusActive, sched.Status)

	again, err := svc.CreateForAppointment(context.Background(), Appointment{
		ID: "a1", ClinicID: "clinic-1", PatientID: "p1", ServiceType: "Botox",
		Status: "completed", PaymentStatus: "paid", ScheduledAt: served,
	})
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, store.schedules, 1)
}

func TestCreateForAppointmentIgnoresIneligible(t *testing.T) {
	svc := newTestService(newMemoryStore(), &recordingSender{})
	cases := []Appointment{
		{ID: "a1", ServiceType: "Botox", Status: "completed", PaymentStatus: "unpaid"},
		{ID: "a2", ServiceType: "Botox", Status: "confirmed", PaymentStatus: "paid"},
		{ID: "a3", ServiceType: "Consulta general", Status: "completed", PaymentStatus: "paid"},
	}
	for _, appt := range cases {
		sched, err := svc.CreateForAppointment(context.Background(), appt)
		require.NoError(t, err)
		assert.Nil(t, sched, appt.ID)
	}
}

func TestProcessAutoRenewalsSendsOneReminderPerRun(t *testing.T) {
	store := newMemoryStore(activeSchedule("s1", 5))
	sender := &recordingSender{}
	svc := newTestService(store, sender)

	res, err := svc.ProcessAutoRenewals(context.Background(), "clinic-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reminded)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "en 7 días")
	assert.Contains(t, sender.sent[0].Body, "https://clinica.cl/reservar")

	s := store.schedules["s1"]
	assert.True(t, s.Reminder30Sent)
	assert.True(t, s.Reminder14Sent)
	assert.True(t, s.Reminder7Sent)
	assert.False(t, s.Reminder1Sent)

	second, err := svc.ProcessAutoRenewals(context.Background(), "clinic-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Reminded)
	assert.Len(t, sender.sent, 1)
}

func TestProcessAutoRenewalsOneDayReminder(t *testing.T) {
	store := newMemoryStore(activeSchedule("s1", 1))
	sender := &recordingSender{}
	svc := newTestService(store, sender)

	_, err := svc.ProcessAutoRenewals(context.Background(), "clinic-1")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "mañana")
	assert.Equal(t, "renewal_reminder", sender.sent[0].Category)
}

func TestProcessAutoRenewalsRenewsAndExpires(t *testing.T) {
	auto := activeSchedule("auto", -1)
	auto.AutoRenewalEnabled = true
	lapsed := activeSchedule("lapsed", -40)
	waiting := activeSchedule("waiting", -10)
	store := newMemoryStore(auto, lapsed, waiting)
	sender := &recordingSender{}
	svc := newTestService(store, sender)

	res, err := svc.ProcessAutoRenewals(context.Background(), "clinic-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 1, res.Renewed)
	assert.Equal(t, 1, res.Expired)
	assert.Empty(t, res.Errors)

	assert.Equal(t, StatusCompleted, store.schedules["auto"].Status)
	assert.Equal(t, StatusExpired, store.schedules["lapsed"].Status)
	assert.Equal(t, StatusActive, store.schedules["waiting"].Status)
	require.Len(t, store.renewals, 1)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "agendamos tu renovación de Botox")
}

func TestProcessAutoRenewalsCollectsSendFailures(t *testing.T) {
	store := newMemoryStore(activeSchedule("s1", 14), activeSchedule("s2", 30))
	svc := newTestService(store, &recordingSender{fail: true})

	res, err := svc.ProcessAutoRenewals(context.Background(), "clinic-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reminded)
	assert.Len(t, res.Errors, 2)
	for _, l := range store.logs {
		assert.Equal(t, campaigns.StatusFailed, l.Status)
	}
	// Flags stay set so a failed reminder is not retried every run.
	assert.True(t, store.schedules["s1"].Reminder14Sent)
}

func TestCompleteOnRenewalAndCancel(t *testing.T) {
	other := activeSchedule("s2", 10)
	other.ServiceType = "Relleno"
	other.PatientID = "p-s1"
	store := newMemoryStore(activeSchedule("s1", 10), other)
	svc := newTestService(store, &recordingSender{})

	n, err := svc.CompleteOnRenewal(context.Background(), "clinic-1", "p-s1", "botox")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusCompleted, store.schedules["s1"].Status)
	assert.Equal(t, StatusActive, store.schedules["s2"].Status)

	require.NoError(t, svc.Cancel(context.Background(), "clinic-1", "s2"))
	assert.Equal(t, StatusCancelled, store.schedules["s2"].Status)
	assert.ErrorIs(t, svc.Cancel(context.Background(), "clinic-1", "s2"), ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(context.Background(), "clinic-2", "s1"), ErrNotFound)
}

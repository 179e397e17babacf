package metrics

import "github.com/prometheus/client_golang/prometheus"

// GrowthMetrics exposes counters/histograms for lead scoring, outreach and payments.
type GrowthMetrics struct {
	bantTotal       *prometheus.CounterVec
	pursuitTotal    *prometheus.CounterVec
	flashOfferTotal *prometheus.CounterVec
	reminderTotal   *prometheus.CounterVec
	webhookTotal    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func NewGrowthMetrics(reg prometheus.Registerer) *GrowthMetrics {
	m := &GrowthMetrics{
		bantTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "leads",
			Name:      "bant_qualifications_total",
			Help:      "BANT qualification attempts by resulting status",
		}, []string{"status"}),
		pursuitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "outreach",
			Name:      "pursuit_messages_total",
			Help:      "Abandoned-cart pursuit messages",
		}, []string{"trigger", "profile", "status"}),
		flashOfferTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "outreach",
			Name:      "flash_offers_total",
			Help:      "Flash-offer messages sent for idle calendar gaps",
		}, []string{"status"}),
		reminderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "retention",
			Name:      "renewal_reminders_total",
			Help:      "Renewal reminders by days-before offset",
		}, []string{"offset_days", "status"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "payments",
			Name:      "webhook_total",
			Help:      "Payment provider webhooks by outcome",
		}, []string{"provider", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of scheduled clinic jobs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bantTotal, m.pursuitTotal, m.flashOfferTotal, m.reminderTotal, m.webhookTotal, m.jobDuration)
	return m
}

func (m *GrowthMetrics) ObserveBANT(status string) {
	if m == nil {
		return
	}
	m.bantTotal.WithLabelValues(status).Inc()
}

func (m *GrowthMetrics) ObservePursuit(trigger, profile, status string) {
	if m == nil {
		return
	}
	m.pursuitTotal.WithLabelValues(trigger, profile, status).Inc()
}

func (m *GrowthMetrics) ObserveFlashOffer(status string) {
	if m == nil {
		return
	}
	m.flashOfferTotal.WithLabelValues(status).Inc()
}

func (m *GrowthMetrics) ObserveRenewalReminder(offsetDays, status string) {
	if m == nil {
		return
	}
	m.reminderTotal.WithLabelValues(offsetDays, status).Inc()
}

func (m *GrowthMetrics) ObserveWebhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *GrowthMetrics) ObserveJob(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(kind, status).Observe(seconds)
}

// Package retention keeps patients coming back after a paid treatment. A
// schedule is opened when a paid appointment completes, reminders go out at
// fixed offsets before the renewal date, and the schedule closes when the
// patient books again, auto-renews, lapses or is cancelled by staff.
package retention

import (
	"strings"
	"time"
)

// interval is how long a treatment lasts before it should be repeated.
type interval struct {
	service string
	days    int
}

// defaultIntervals is ordered longest key first so that "relleno labios"
// matches before "relleno".
var defaultIntervals = []interval{
	{service: "depilacion laser", days: 42},
	{service: "relleno labios", days: 180},
	{service: "limpieza facial", days: 30},
	{service: "bioestimulador", days: 365},
	{service: "hilos tensores", days: 365},
	{service: "microneedling", days: 30},
	{service: "mesoterapia", days: 30},
	{service: "hidratacion", days: 30},
	{service: "relleno", days: 270},
	{service: "toxina", days: 120},
	{service: "peeling", days: 30},
	{service: "filler", days: 270},
	{service: "botox", days: 120},
}

var accents = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "-", " ", "_", " ")

func normalizeService(service string) string {
	return strings.Join(strings.Fields(accents.Replace(strings.ToLower(service))), " ")
}

// RenewalInterval returns the renewal interval for a service type. Unknown
// services report false and never get a schedule.
func RenewalInterval(serviceType string) (time.Duration, bool) {
	key := normalizeService(serviceType)
	if key == "" {
		return 0, false
	}
	for _, iv := range defaultIntervals {
		if key == iv.service || strings.Contains(key, iv.service) {
			return time.Duration(iv.days) * 24 * time.Hour, true
		}
	}
	return 0, false
}

// NextRenewal computes the renewal date for a service delivered at servedAt.
func NextRenewal(serviceType string, servedAt time.Time) (time.Time, bool) {
	d, ok := RenewalInterval(serviceType)
	if !ok {
		return time.Time{}, false
	}
	return servedAt.Add(d), true
}

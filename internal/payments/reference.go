package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referencePrefix = "ORD-"

// BuildReference renders the external reference sent to providers for an
// appointment: ORD-{appointment id}-{unix seconds}.
func BuildReference(appointmentID string, at time.Time) string {
	return fmt.Sprintf("%s%s-%d", referencePrefix, appointmentID, at.Unix())
}

// ParseBuyOrder extracts the appointment id from a legacy ORD-{id}-{ts}
// reference. The id is a UUID and contains dashes itself, so the timestamp is
// taken from the last dash.
func ParseBuyOrder(ref string) (string, time.Time, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), referencePrefix)
	if !ok {
		return "", time.Time{}, fmt.Errorf("payments: reference %q has no %s prefix", ref, referencePrefix)
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 || i == len(rest)-1 {
		return "", time.Time{}, fmt.Errorf("payments: malformed reference %q", ref)
	}
	id, tsRaw := rest[:i], rest[i+1:]
	if _, err := uuid.Parse(id); err != nil {
		return "", time.Time{}, fmt.Errorf("payments: reference %q: invalid appointment id: %w", ref, err)
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("payments: reference %q: invalid timestamp: %w", ref, err)
	}
	return id, time.Unix(ts, 0).UTC(), nil
}

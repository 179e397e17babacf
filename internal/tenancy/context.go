package tenancy

import "context"

type ctxKey string

const (
	clinicKey ctxKey = "clinic.clinic_id"
	userKey   ctxKey = "clinic.user_id"
)

// WithClinicID stores the clinic id in context.
func WithClinicID(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

// ClinicIDFromContext extracts the clinic id if present.
func ClinicIDFromContext(ctx context.Context) (string, bool) {
	clinicID, ok := ctx.Value(clinicKey).(string)
	return clinicID, ok && clinicID != ""
}

// WithUserID stores the authenticated admin user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the admin user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey).(string)
	return userID, ok && userID != ""
}

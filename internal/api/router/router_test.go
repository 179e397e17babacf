package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-growth-platform/internal/admin"
	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
	httpmiddleware "github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

const testSecret = "router-test-secret"

type staticProfiles map[string]string

func (s staticProfiles) ClinicIDForUser(_ context.Context, userID string) (string, error) {
	if id, ok := s[userID]; ok {
		return id, nil
	}
	return "", admin.ErrProfileNotFound
}

type capturingQueue struct{ tasks []jobs.Task }

func (c *capturingQueue) Enqueue(_ context.Context, t jobs.Task) error {
	c.tasks = append(c.tasks, t)
	return nil
}

func newTestRouter(t *testing.T, queue *capturingQueue, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	logger := logging.Default()
	svc := admin.NewService(nil, nil, admin.TokenConfig{Secret: testSecret}, logger)
	return New(&Config{
		Logger:             logger,
		CORSAllowedOrigins: []string{"https://clinicaestetica.cl"},
		AdminAuthSecret:    testSecret,
		Profiles:           staticProfiles{"u1": "clinic-1"},
		PublicLimiter:      httpmiddleware.NewRateLimiter(0.001, 2),
		HealthChecks:       checks,
		Behavior:           behavior.NewHandler(nil, logger),
		Admin:              admin.NewHandler(svc, "", logger),
		Jobs:               jobs.NewHandler(queue, logger),
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterHealthDegraded(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/jobs/pursuit", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterAdminScopesToProfileClinic(t *testing.T) {
	queue := &capturingQueue{}
	router := newTestRouter(t, queue, nil)

	token, err := httpmiddleware.SignAdminToken(testSecret, "u1", "owner@clinicaestetica.cl", time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/jobs/flash_offer", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, "clinic-1", queue.tasks[0].ClinicID)

	orphan, err := httpmiddleware.SignAdminToken(testSecret, "u2", "orphan@clinicaestetica.cl", time.Hour, time.Now())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/jobs/flash_offer", nil)
	req.Header.Set("Authorization", "Bearer "+orphan)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterOnboardingIsPublicButGuarded(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/clinics", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterPublicRateLimit(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/behavior/classify", strings.NewReader(`{`))
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/behavior/classify", nil)
	req.Header.Set("Origin", "https://clinicaestetica.cl")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "https://clinicaestetica.cl", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterWebhooksUnmountedWithoutProviders(t *testing.T) {
	router := newTestRouter(t, &capturingQueue{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

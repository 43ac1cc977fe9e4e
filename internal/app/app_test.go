package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpilot/internal/config"
	apierrors "sheetpilot/internal/errors"
	"sheetpilot/internal/infrastructure"
	"sheetpilot/internal/services"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	t.Setenv("SHEETPILOT_CONFIG_FILE", "nonexistent.yaml")
	t.Setenv("SHEETPILOT_SECURITY_RATE_LIMIT_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := infrastructure.InitOTel(&infrastructure.OTelConfig{}, logger)
	require.NoError(t, err)

	app := &Application{
		Config: cfg,
		WorkbookService: services.NewWorkbookService(logger, services.WorkbookServiceConfig{
			AssumedOrder: cfg.AssumedOrder(),
		}),
		Logger:        logger,
		OTelProviders: providers,
	}
	app.setupRouter()
	t.Cleanup(func() {
		providers.Shutdown(context.Background())
	})
	return app
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "health check",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "readiness check",
			method:     http.MethodGet,
			path:       "/api/health/ready",
			wantStatus: http.StatusOK,
		},
		{
			name:       "liveness check",
			method:     http.MethodGet,
			path:       "/api/health/live",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown session",
			method:     http.MethodGet,
			path:       "/api/workbooks/missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestApplication_RequestIDHeader(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_Stop(t *testing.T) {
	app := newTestApplication(t)
	app.Server = &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: app.Router,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))
}

func TestErrorHandlerWiring(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := apierrors.NewErrorHandler(logger, false)

	req := httptest.NewRequest(http.MethodGet, "/api/workbooks/abc", nil)
	rec := httptest.NewRecorder()
	handler.HandleError(rec, req, services.ErrSessionNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

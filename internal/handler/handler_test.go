package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/auth"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/report"
	"github.com/DukeRupert/equipcheck/internal/service"
	"github.com/DukeRupert/equipcheck/internal/storage"
	"github.com/DukeRupert/equipcheck/internal/store/sqlite"
)

// =============================================================================
// Test Helpers
// =============================================================================

var lima = time.FixedZone("-05", -5*60*60)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	operator   = &domain.User{ID: 1, Username: "ana", FullName: "Ana Pérez", Role: domain.RoleOperator, Active: true}
	supervisor = &domain.User{ID: 2, Username: "miguel", FullName: "Miguel Alarcón", Role: domain.RoleSupervisor, Active: true}
)

// withUser stands in for the auth middleware: the X-Test-User header picks
// the signed-in account.
func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var user *domain.User
		switch r.Header.Get("X-Test-User") {
		case operator.Username:
			user = operator
		case supervisor.Username:
			user = supervisor
		default:
			UnauthorizedResponse(w, r, discardLogger())
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

func supervisorOnly(next http.Handler) http.Handler {
	return withUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.GetUserFromRequest(r).IsSupervisor() {
			ForbiddenResponse(w, r, discardLogger())
			return
		}
		next.ServeHTTP(w, r)
	}))
}

type testApp struct {
	mux     *http.ServeMux
	store   *sqlite.Store
	blobs   *storage.LocalStorage
	reports *ReportHandler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := discardLogger()

	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	blobs, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, logger)
	require.NoError(t, err)

	catalog, err := domain.DefaultCatalog()
	require.NoError(t, err)

	docs := report.NewGenerator(report.StorageImageLoader{Storage: blobs}, lima, logger)
	reportSvc := service.NewReportService(st, catalog, blobs, docs, service.ReportConfig{Location: lima}, logger)

	app := &testApp{
		mux:     http.NewServeMux(),
		store:   st,
		blobs:   blobs,
		reports: NewReportHandler(reportSvc, lima, logger),
	}
	app.reports.RegisterRoutes(app.mux, withUser, supervisorOnly)
	NewCatalogHandler(catalog, logger).RegisterRoutes(app.mux, withUser)
	NewEvidenceHandler(service.NewEvidenceService(blobs, logger), logger).RegisterRoutes(app.mux, withUser, func(h http.Handler) http.Handler { return h })
	NewUserHandler(service.NewUserService(st, logger), logger).RegisterRoutes(app.mux, withUser, supervisorOnly)
	app.mux.Handle("GET /health", NewHealthHandler(st, logger))
	return app
}

func (a *testApp) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) JSONError {
	t.Helper()
	var body JSONError
	decodeBody(t, rec, &body)
	return body
}

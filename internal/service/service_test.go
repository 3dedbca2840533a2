package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/storage"
	"github.com/DukeRupert/equipcheck/internal/store"
	"github.com/DukeRupert/equipcheck/internal/store/sqlite"
)

// =============================================================================
// Shared Test Helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newLocalStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, discardLogger())
	require.NoError(t, err)
	return s
}

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := domain.DefaultCatalog()
	require.NoError(t, err)
	return c
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// =============================================================================
// Unavailable Store
// =============================================================================

// downStore fails every call the way an unreachable backend does.
type downStore struct{}

var _ store.Store = downStore{}

var errDown = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (downStore) CreateReport(context.Context, *domain.Report) (int64, error) {
	return 0, domain.Unavailable(errDown, "down.CreateReport")
}

func (downStore) GetReport(context.Context, int64) (*domain.Report, error) {
	return nil, domain.Unavailable(errDown, "down.GetReport")
}

func (downStore) ListReports(context.Context, store.ReportFilter) ([]domain.Report, error) {
	return nil, domain.Unavailable(errDown, "down.ListReports")
}

func (downStore) ApproveReport(context.Context, int64, domain.Approval) error {
	return domain.Unavailable(errDown, "down.ApproveReport")
}

func (downStore) SetDocumentRef(context.Context, int64, string) error {
	return domain.Unavailable(errDown, "down.SetDocumentRef")
}

func (downStore) CreateUser(context.Context, *domain.User) (*domain.User, error) {
	return nil, domain.Unavailable(errDown, "down.CreateUser")
}

func (downStore) GetUserByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.Unavailable(errDown, "down.GetUserByUsername")
}

func (downStore) ListUsers(context.Context) ([]domain.User, error) {
	return nil, domain.Unavailable(errDown, "down.ListUsers")
}

func (downStore) Ping(context.Context) error { return domain.Unavailable(errDown, "down.Ping") }

func (downStore) Close() error { return nil }

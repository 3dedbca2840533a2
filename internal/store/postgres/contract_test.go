package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/store"
	"github.com/DukeRupert/equipcheck/internal/store/postgres"
	"github.com/DukeRupert/equipcheck/internal/store/storetest"
)

// openTestStore migrates a fresh schema on the server at DATABASE_URL and
// drops it when the test ends. Existing tables are never touched.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	schema := fmt.Sprintf("equipcheck_test_%d", time.Now().UnixNano())
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	s, err := postgres.Open(ctx, withSearchPath(t, dsn, schema))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, internal.RunMigrations(s.DB()))
	return s
}

// withSearchPath pins every pooled connection to schema.
func withSearchPath(t *testing.T, dsn, schema string) string {
	t.Helper()
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String()
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestStore_CreateReportIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// The last item breaks the evidence constraint after the report row and
	// the first items were written.
	r := storetest.SampleReport("AP1", time.Now())
	r.Items = append(r.Items, domain.InspectionItem{Section: "NIVELES", Item: "Aceite", Status: domain.ItemStatusInoperative})

	_, err := s.CreateReport(ctx, r)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	reports, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)

	var items int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM report_items`).Scan(&items))
	assert.Zero(t, items)

	id, err := s.CreateReport(ctx, storetest.SampleReport("AP1", time.Now()))
	require.NoError(t, err)
	assert.NotZero(t, id)
}

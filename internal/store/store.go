// Package store defines the record-store contract for reports, their items
// and user accounts.
//
// The lifecycle service is written once against Store. Implementations:
// - postgres.Store: Postgres over the pgx stdlib driver, goose migrations
// - sqlite.Store: a local SQLite file through gorm
//
// Every implementation must:
// - assign report identities from a backend-native counter (no max+1 reads)
// - write a report and all of its items in one transaction
// - apply approvals with a single statement conditional on the PENDING state
// - return domain errors: ENOTFOUND, ECONFLICT, EUNAVAILABLE for backend failures
package store

import (
	"context"
	"time"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Store is the persistence boundary for the lifecycle and user services.
type Store interface {
	ReportStore
	UserStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// ReportStore persists reports and their inspection items.
type ReportStore interface {
	// CreateReport inserts the report (state PENDING) and every item
	// atomically and returns the assigned identity. The ID field of the
	// argument is ignored.
	CreateReport(ctx context.Context, r *domain.Report) (int64, error)

	// GetReport loads a report with its items in submission order.
	// Returns ENOTFOUND if the report does not exist.
	GetReport(ctx context.Context, id int64) (*domain.Report, error)

	// ListReports returns reports without items, newest first
	// (created_at descending, then id descending).
	ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error)

	// ApproveReport moves a PENDING report to APPROVED and stamps the
	// supervisor fields. Returns ENOTFOUND for an unknown report and
	// ECONFLICT (AlreadyApproved) when the report is no longer pending.
	ApproveReport(ctx context.Context, id int64, approval domain.Approval) error

	// SetDocumentRef records where the rendered checklist was stored.
	SetDocumentRef(ctx context.Context, id int64, ref string) error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts an account. Returns ECONFLICT for a taken username.
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)

	// GetUserByUsername returns ENOTFOUND when the username is unknown.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers returns every account, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// =============================================================================
// Filters
// =============================================================================

// ReportFilter narrows ListReports. Zero values match everything.
type ReportFilter struct {
	State *domain.ApprovalState
	Range domain.DateRange
}

// Pending returns a filter for reports awaiting approval.
func Pending() ReportFilter {
	s := domain.ApprovalStatePending
	return ReportFilter{State: &s}
}

// InRange returns a filter on the creation date.
func InRange(r domain.DateRange) ReportFilter {
	return ReportFilter{Range: r}
}

// =============================================================================
// Shared Helpers
// =============================================================================

// Driver names accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Truncate normalizes timestamps to the seconds precision stored on every
// backend.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

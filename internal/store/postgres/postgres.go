// Package postgres implements store.Store on Postgres through the pgx
// database/sql driver. The schema is owned by the goose migrations embedded
// in package internal.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Store is a Postgres-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, domain.Unavailable(err, "postgres.Open")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, domain.Unavailable(err, "postgres.Open")
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the pool for migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Unavailable(err, "postgres.Ping")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// Reports
// =============================================================================

const reportColumns = `id, equipment_category, equipment_code, equipment_name, initial_meter,
	operator_user, operator_name, created_at, created_date, disposition, overall_condition,
	general_observation, operator_signature_ref, approval_state, supervisor_user,
	supervisor_name, supervisor_signature_ref, approved_at, report_document_ref`

func (s *Store) CreateReport(ctx context.Context, r *domain.Report) (int64, error) {
	const op = "postgres.CreateReport"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.Unavailable(err, op)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO reports (
			equipment_category, equipment_code, equipment_name, initial_meter,
			operator_user, operator_name, created_at, created_date, disposition,
			overall_condition, general_observation, operator_signature_ref, approval_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'PENDING')
		RETURNING id`,
		string(r.Equipment.Category), r.Equipment.Code, r.Equipment.Name, r.MeterReading,
		r.OperatorUser, r.OperatorName, store.Truncate(r.CreatedAt), r.CreatedDate.Format(domain.DateLayout),
		string(r.Disposition), string(r.Condition), r.GeneralObservation, r.OperatorSignatureRef,
	).Scan(&id)
	if err != nil {
		return 0, translate(err, op)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_items (report_id, position, section, item, status, observation, photo_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return 0, domain.Unavailable(err, op)
	}
	defer stmt.Close()

	for i, item := range r.Items {
		if _, err := stmt.ExecContext(ctx, id, i, item.Section, item.Item,
			string(item.Status), item.Observation, item.PhotoRef); err != nil {
			return 0, translate(err, op)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.Unavailable(err, op)
	}
	return id, nil
}

func (s *Store) GetReport(ctx context.Context, id int64) (*domain.Report, error) {
	const op = "postgres.GetReport"

	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, "report", fmt.Sprint(id))
	}
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT section, item, status, observation, photo_ref
		FROM report_items WHERE report_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.InspectionItem
		var status string
		if err := rows.Scan(&item.Section, &item.Item, &status, &item.Observation, &item.PhotoRef); err != nil {
			return nil, domain.Unavailable(err, op)
		}
		item.Status = domain.ItemStatus(status)
		r.Items = append(r.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return r, nil
}

func (s *Store) ListReports(ctx context.Context, filter store.ReportFilter) ([]domain.Report, error) {
	const op = "postgres.ListReports"

	var (
		where []string
		args  []any
	)
	if filter.State != nil {
		args = append(args, string(*filter.State))
		where = append(where, fmt.Sprintf("approval_state = $%d", len(args)))
	}
	if !filter.Range.IsAllTime() {
		args = append(args, filter.Range.Start.Format(domain.DateLayout), filter.Range.End.Format(domain.DateLayout))
		where = append(where, fmt.Sprintf("created_date BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, domain.Unavailable(err, op)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return out, nil
}

func (s *Store) ApproveReport(ctx context.Context, id int64, a domain.Approval) error {
	const op = "postgres.ApproveReport"

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET approval_state = 'APPROVED',
			supervisor_user = $2,
			supervisor_name = $3,
			supervisor_signature_ref = $4,
			approved_at = $5
		WHERE id = $1 AND approval_state = 'PENDING'`,
		id, a.SupervisorUser, a.SupervisorName, a.SupervisorSignatureRef, store.Truncate(a.ApprovedAt))
	if err != nil {
		return translate(err, op)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Unavailable(err, op)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.Unavailable(err, op)
	}
	if !exists {
		return domain.NotFound(op, "report", fmt.Sprint(id))
	}
	return domain.AlreadyApproved(op, id)
}

func (s *Store) SetDocumentRef(ctx context.Context, id int64, ref string) error {
	const op = "postgres.SetDocumentRef"

	res, err := s.db.ExecContext(ctx, `UPDATE reports SET report_document_ref = $2 WHERE id = $1`, id, ref)
	if err != nil {
		return domain.Unavailable(err, op)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound(op, "report", fmt.Sprint(id))
	}
	return nil
}

// =============================================================================
// Users
// =============================================================================

const userColumns = `id, username, full_name, role, active, password_hash, created_at`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	const op = "postgres.CreateUser"

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, full_name, role, active, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		u.Username, u.FullName, string(u.Role), u.Active, u.PasswordHash)

	created, err := scanUser(row)
	if err != nil {
		return nil, translate(err, op)
	}
	return created, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "postgres.GetUserByUsername"

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, "user", username)
	}
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "postgres.ListUsers"

	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.Unavailable(err, op)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return out, nil
}

// =============================================================================
// Scanning
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*domain.Report, error) {
	var (
		r                                       domain.Report
		category, disposition, condition, state string
		supUser, supName, supSig, docRef        sql.NullString
		approvedAt                              sql.NullTime
	)
	err := row.Scan(
		&r.ID, &category, &r.Equipment.Code, &r.Equipment.Name, &r.MeterReading,
		&r.OperatorUser, &r.OperatorName, &r.CreatedAt, &r.CreatedDate, &disposition, &condition,
		&r.GeneralObservation, &r.OperatorSignatureRef, &state, &supUser,
		&supName, &supSig, &approvedAt, &docRef,
	)
	if err != nil {
		return nil, err
	}

	r.Equipment.Category = domain.EquipmentCategory(category)
	r.Disposition = domain.Disposition(disposition)
	r.Condition = domain.Condition(condition)
	r.State = domain.ApprovalState(state)
	r.CreatedAt = r.CreatedAt.UTC()
	r.CreatedDate = domain.DateOf(r.CreatedDate, time.UTC)
	r.SupervisorUser = supUser.String
	r.SupervisorName = supName.String
	r.SupervisorSignatureRef = supSig.String
	r.DocumentRef = docRef.String
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		r.ApprovedAt = &t
	}
	return &r, nil
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &role, &u.Active, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// translate maps driver errors to domain errors. Unique violations surface
// as conflicts, constraint checks as invalid input, everything else as an
// unavailable backend.
func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation:
			return domain.Conflict(op, "record already exists")
		case strings.HasPrefix(pgErr.Code, "23"):
			return domain.Wrap(err, domain.EINVALID, op, "record violates a data constraint")
		}
	}
	return domain.Unavailable(err, op)
}

// Package sqlite implements store.Store on a local SQLite file through gorm.
// It is the single-site deployment backend and the backend used by tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// =============================================================================
// Models
// =============================================================================

type reportModel struct {
	ID                     int64  `gorm:"primaryKey;autoIncrement"`
	EquipmentCategory      string `gorm:"size:32;not null"`
	EquipmentCode          string `gorm:"size:32;not null;index"`
	EquipmentName          string `gorm:"not null"`
	InitialMeter           int64  `gorm:"not null"`
	OperatorUser           string `gorm:"size:64;not null"`
	OperatorName           string `gorm:"not null"`
	CreatedAt              time.Time
	CreatedDate            string `gorm:"size:10;not null;index"`
	Disposition            string `gorm:"size:16;not null"`
	OverallCondition       string `gorm:"size:16;not null"`
	GeneralObservation     string `gorm:"type:text"`
	OperatorSignatureRef   string `gorm:"not null"`
	ApprovalState          string `gorm:"size:16;not null;default:PENDING;index"`
	SupervisorUser         string `gorm:"size:64"`
	SupervisorName         string
	SupervisorSignatureRef string
	ApprovedAt             *time.Time
	ReportDocumentRef      string

	Items []itemModel `gorm:"foreignKey:ReportID"`
}

func (reportModel) TableName() string { return "reports" }

type itemModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	ReportID    int64  `gorm:"not null;uniqueIndex:idx_report_position"`
	Position    int    `gorm:"not null;uniqueIndex:idx_report_position"`
	Section     string `gorm:"not null"`
	Item        string `gorm:"not null"`
	Status      string `gorm:"size:32;not null"`
	Observation string `gorm:"type:text"`
	PhotoRef    string
}

func (itemModel) TableName() string { return "report_items" }

type userModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:64;not null;uniqueIndex"`
	FullName     string `gorm:"not null"`
	Role         string `gorm:"size:16;not null"`
	Active       bool   `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

// =============================================================================
// Store
// =============================================================================

// Store is a SQLite-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, domain.Unavailable(err, "sqlite.Open")
	}
	return New(db)
}

// New migrates the schema on an existing gorm connection.
func New(db *gorm.DB) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, domain.Unavailable(err, "sqlite.Open")
	}
	// SQLite allows a single writer; an in-memory database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&reportModel{}, &itemModel{}, &userModel{}); err != nil {
		return nil, domain.Unavailable(fmt.Errorf("migrate: %w", err), "sqlite.Open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return domain.Unavailable(err, "sqlite.Ping")
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// =============================================================================
// Reports
// =============================================================================

func (s *Store) CreateReport(ctx context.Context, r *domain.Report) (int64, error) {
	const op = "sqlite.CreateReport"

	m := toReportModel(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&m).Error; err != nil {
			return err
		}
		if len(m.Items) == 0 {
			return nil
		}
		for i := range m.Items {
			m.Items[i].ReportID = m.ID
		}
		return tx.Create(&m.Items).Error
	})
	if err != nil {
		return 0, translate(err, op)
	}
	return m.ID, nil
}

func (s *Store) GetReport(ctx context.Context, id int64) (*domain.Report, error) {
	const op = "sqlite.GetReport"

	var m reportModel
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(op, "report", fmt.Sprint(id))
	}
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return m.toDomain(), nil
}

func (s *Store) ListReports(ctx context.Context, filter store.ReportFilter) ([]domain.Report, error) {
	const op = "sqlite.ListReports"

	q := s.db.WithContext(ctx).Model(&reportModel{})
	if filter.State != nil {
		q = q.Where("approval_state = ?", string(*filter.State))
	}
	if !filter.Range.IsAllTime() {
		q = q.Where("created_date BETWEEN ? AND ?",
			filter.Range.Start.Format(domain.DateLayout), filter.Range.End.Format(domain.DateLayout))
	}

	var models []reportModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, domain.Unavailable(err, op)
	}

	out := make([]domain.Report, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomain())
	}
	return out, nil
}

func (s *Store) ApproveReport(ctx context.Context, id int64, a domain.Approval) error {
	const op = "sqlite.ApproveReport"

	approvedAt := store.Truncate(a.ApprovedAt)
	result := s.db.WithContext(ctx).Model(&reportModel{}).
		Where("id = ? AND approval_state = ?", id, string(domain.ApprovalStatePending)).
		Updates(map[string]interface{}{
			"approval_state":           string(domain.ApprovalStateApproved),
			"supervisor_user":          a.SupervisorUser,
			"supervisor_name":          a.SupervisorName,
			"supervisor_signature_ref": a.SupervisorSignatureRef,
			"approved_at":              approvedAt,
		})
	if result.Error != nil {
		return domain.Unavailable(result.Error, op)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&reportModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return domain.Unavailable(err, op)
	}
	if count == 0 {
		return domain.NotFound(op, "report", fmt.Sprint(id))
	}
	return domain.AlreadyApproved(op, id)
}

func (s *Store) SetDocumentRef(ctx context.Context, id int64, ref string) error {
	const op = "sqlite.SetDocumentRef"

	result := s.db.WithContext(ctx).Model(&reportModel{}).
		Where("id = ?", id).
		Update("report_document_ref", ref)
	if result.Error != nil {
		return domain.Unavailable(result.Error, op)
	}
	if result.RowsAffected == 0 {
		return domain.NotFound(op, "report", fmt.Sprint(id))
	}
	return nil
}

// =============================================================================
// Users
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	const op = "sqlite.CreateUser"

	m := userModel{
		Username:     u.Username,
		FullName:     u.FullName,
		Role:         string(u.Role),
		Active:       u.Active,
		PasswordHash: u.PasswordHash,
		CreatedAt:    store.Truncate(time.Now()),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, translate(err, op)
	}
	return m.toDomain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "sqlite.GetUserByUsername"

	var m userModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(op, "user", username)
	}
	if err != nil {
		return nil, domain.Unavailable(err, op)
	}
	return m.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "sqlite.ListUsers"

	var models []userModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, domain.Unavailable(err, op)
	}

	out := make([]domain.User, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomain())
	}
	return out, nil
}

// =============================================================================
// Mapping
// =============================================================================

func toReportModel(r *domain.Report) reportModel {
	m := reportModel{
		EquipmentCategory:    string(r.Equipment.Category),
		EquipmentCode:        r.Equipment.Code,
		EquipmentName:        r.Equipment.Name,
		InitialMeter:         r.MeterReading,
		OperatorUser:         r.OperatorUser,
		OperatorName:         r.OperatorName,
		CreatedAt:            store.Truncate(r.CreatedAt),
		CreatedDate:          r.CreatedDate.Format(domain.DateLayout),
		Disposition:          string(r.Disposition),
		OverallCondition:     string(r.Condition),
		GeneralObservation:   r.GeneralObservation,
		OperatorSignatureRef: r.OperatorSignatureRef,
		ApprovalState:        string(domain.ApprovalStatePending),
	}
	for i, item := range r.Items {
		m.Items = append(m.Items, itemModel{
			Position:    i,
			Section:     item.Section,
			Item:        item.Item,
			Status:      string(item.Status),
			Observation: item.Observation,
			PhotoRef:    item.PhotoRef,
		})
	}
	return m
}

func (m *reportModel) toDomain() *domain.Report {
	r := &domain.Report{
		ID: m.ID,
		Equipment: domain.EquipmentDescriptor{
			Category: domain.EquipmentCategory(m.EquipmentCategory),
			Code:     m.EquipmentCode,
			Name:     m.EquipmentName,
		},
		MeterReading:           m.InitialMeter,
		OperatorUser:           m.OperatorUser,
		OperatorName:           m.OperatorName,
		CreatedAt:              m.CreatedAt.UTC(),
		Condition:              domain.Condition(m.OverallCondition),
		Disposition:            domain.Disposition(m.Disposition),
		GeneralObservation:     m.GeneralObservation,
		OperatorSignatureRef:   m.OperatorSignatureRef,
		State:                  domain.ApprovalState(m.ApprovalState),
		SupervisorUser:         m.SupervisorUser,
		SupervisorName:         m.SupervisorName,
		SupervisorSignatureRef: m.SupervisorSignatureRef,
		DocumentRef:            m.ReportDocumentRef,
	}
	if d, err := time.Parse(domain.DateLayout, m.CreatedDate); err == nil {
		r.CreatedDate = d
	}
	if m.ApprovedAt != nil {
		t := m.ApprovedAt.UTC()
		r.ApprovedAt = &t
	}
	for _, it := range m.Items {
		r.Items = append(r.Items, domain.InspectionItem{
			Section:     it.Section,
			Item:        it.Item,
			Status:      domain.ItemStatus(it.Status),
			Observation: it.Observation,
			PhotoRef:    it.PhotoRef,
		})
	}
	return r
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		FullName:     m.FullName,
		Role:         domain.Role(m.Role),
		Active:       m.Active,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func translate(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Conflict(op, "record already exists")
	}
	return domain.Unavailable(err, op)
}

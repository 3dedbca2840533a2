// Package storetest checks store.Store implementations against the
// behaviour the lifecycle and user services depend on.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// Run exercises a backend. open must return an empty store for every call.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		run  func(t *testing.T, s store.Store)
	}{
		{"CreateAndGetReport", testCreateAndGetReport},
		{"IdentitiesAreUnique", testIdentitiesAreUnique},
		{"GetReportNotFound", testGetReportNotFound},
		{"ApproveReport", testApproveReport},
		{"ConcurrentApprovalHasOneWinner", testConcurrentApprovalHasOneWinner},
		{"ListReports", testListReports},
		{"SetDocumentRef", testSetDocumentRef},
		{"Users", testUsers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, open(t))
		})
	}
}

// SampleReport returns a pending report with one faulty item.
func SampleReport(code string, createdAt time.Time) *domain.Report {
	items := []domain.InspectionItem{
		{Section: "VISUAL", Item: "Pintura", Status: domain.ItemStatusOperational},
		{Section: "VISUAL", Item: "Espejos", Status: domain.ItemStatusOperationalWithFault, Observation: "rayado", PhotoRef: "photos/AP1/a.jpg"},
		{Section: "NIVELES", Item: "Batería", Status: domain.ItemStatusOperational},
	}
	r := &domain.Report{
		Equipment:            domain.EquipmentDescriptor{Category: domain.CategoryStacker, Code: code, Name: "Apilador 1"},
		MeterReading:         1500,
		OperatorUser:         "ana",
		OperatorName:         "Ana Pérez",
		CreatedAt:            createdAt,
		CreatedDate:          domain.DateOf(createdAt, time.UTC),
		GeneralObservation:   "sin novedad",
		OperatorSignatureRef: "signatures/operator/s.png",
		State:                domain.ApprovalStatePending,
		Items:                items,
	}
	r.Condition, r.Disposition = domain.ComputeResult(r.Statuses())
	return r
}

func testCreateAndGetReport(t *testing.T, s store.Store) {
	ctx := context.Background()

	created := time.Date(2025, 3, 10, 9, 30, 15, 0, time.UTC)
	in := SampleReport("AP1", created)

	id, err := s.CreateReport(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := s.GetReport(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Equipment, got.Equipment)
	assert.Equal(t, int64(1500), got.MeterReading)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "2025-03-10", got.CreatedDate.Format(domain.DateLayout))
	assert.Equal(t, domain.ConditionFault, got.Condition)
	assert.Equal(t, domain.DispositionRestricted, got.Disposition)
	assert.Equal(t, domain.ApprovalStatePending, got.State)
	assert.Nil(t, got.ApprovedAt)
	assert.Empty(t, got.SupervisorSignatureRef)
	assert.Equal(t, in.Items, got.Items)
}

func testIdentitiesAreUnique(t *testing.T, s store.Store) {
	ctx := context.Background()

	var (
		mu  sync.Mutex
		ids = map[int64]bool{}
		wg  sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.CreateReport(ctx, SampleReport("AP1", time.Now()))
			assert.NoError(t, err)
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 10)
}

func testGetReportNotFound(t *testing.T, s store.Store) {

	_, err := s.GetReport(context.Background(), 999)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func testApproveReport(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateReport(ctx, SampleReport("AP1", time.Now()))
	require.NoError(t, err)

	approvedAt := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	approval := domain.Approval{
		SupervisorUser:         "miguel",
		SupervisorName:         "Miguel Alarcón",
		SupervisorSignatureRef: "signatures/supervisor/m.png",
		ApprovedAt:             approvedAt,
	}

	require.NoError(t, s.ApproveReport(ctx, id, approval))

	got, err := s.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStateApproved, got.State)
	assert.Equal(t, "Miguel Alarcón", got.SupervisorName)
	assert.Equal(t, "signatures/supervisor/m.png", got.SupervisorSignatureRef)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, approvedAt.Equal(*got.ApprovedAt))

	t.Run("second approval conflicts and changes nothing", func(t *testing.T) {
		other := approval
		other.SupervisorName = "Otro"
		err := s.ApproveReport(ctx, id, other)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

		again, err := s.GetReport(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Miguel Alarcón", again.SupervisorName)
	})

	t.Run("unknown report", func(t *testing.T) {
		err := s.ApproveReport(ctx, 12345, approval)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func testConcurrentApprovalHasOneWinner(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateReport(ctx, SampleReport("AP1", time.Now()))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ApproveReport(ctx, id, domain.Approval{
				SupervisorUser: "miguel", SupervisorName: "Miguel", SupervisorSignatureRef: "sig", ApprovedAt: time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch domain.ErrorCode(err) {
			case "":
				successes++
			case domain.ECONFLICT:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, conflicts)
}

func testListReports(t *testing.T, s store.Store) {
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := s.CreateReport(ctx, SampleReport("AP1", base.AddDate(0, 0, i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, s.ApproveReport(ctx, ids[1], domain.Approval{
		SupervisorUser: "m", SupervisorName: "M", SupervisorSignatureRef: "sig", ApprovedAt: base,
	}))

	all, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID, "newest first")
	assert.Empty(t, all[0].Items)

	pending, err := s.ListReports(ctx, store.Pending())
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, r := range pending {
		assert.NotEqual(t, ids[1], r.ID)
	}

	r, err := domain.NewDateRange(base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	require.NoError(t, err)
	ranged, err := s.ListReports(ctx, store.InRange(r))
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, ids[2], ranged[0].ID)
	assert.Equal(t, ids[1], ranged[1].ID)
}

func testSetDocumentRef(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.CreateReport(ctx, SampleReport("AP1", time.Now()))
	require.NoError(t, err)

	require.NoError(t, s.SetDocumentRef(ctx, id, "documents/checklists/1/CHECKLIST_AP1.pdf"))
	got, err := s.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "documents/checklists/1/CHECKLIST_AP1.pdf", got.DocumentRef)

	err = s.SetDocumentRef(ctx, 999, "x")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &domain.User{
		Username: "ana", FullName: "Ana Pérez", Role: domain.RoleOperator, Active: true, PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, &domain.User{Username: "ana", FullName: "Otra", Role: domain.RoleOperator, PasswordHash: "h"})
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	got, err := s.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", got.FullName)
	assert.Equal(t, domain.RoleOperator, got.Role)
	assert.True(t, got.Active)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = s.CreateUser(ctx, &domain.User{Username: "miguel", FullName: "Miguel", Role: domain.RoleSupervisor, Active: true, PasswordHash: "h"})
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

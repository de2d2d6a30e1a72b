package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-task-api/internal/constants"
	"github.com/yukikurage/project-task-api/internal/metrics"
	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errTransient = errors.New("connection reset by peer")

// flakyStore fails the first failures transactions before delegating
type flakyStore struct {
	repository.Store
	failures int
	calls    int
}

func (s *flakyStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.calls++
	if s.calls <= s.failures {
		return errTransient
	}
	return s.Store.Transaction(ctx, fn)
}

func newTestCascade(store repository.Store, revocations RevocationList) (*CascadeService, *metrics.Metrics) {
	m := metrics.New()
	svc := NewCascadeService(store, revocations, m, discardLogger())
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return svc, m
}

func countTasks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Task{}).Count(&n).Error)
	return n
}

func TestCascadeService_DeleteUserRemovesEverything(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()

	ana := f.register(t, "Ana")
	bob := f.register(t, "Bob")

	// Ana owns two projects with 3 and 2 tasks
	for name, n := range map[string]int{"Work": 3, "Home": 2} {
		project, err := f.projects.CreateProject(ctx, CreateProjectInput{OwnerID: ana.ID, Name: name})
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			_, err := f.tasks.CreateTask(ctx, CreateTaskInput{OwnerID: ana.ID, ProjectID: project.ID, Title: "task"})
			require.NoError(t, err)
		}
	}

	// Bob's project has one task assigned to Ana and one of his own
	bobs, err := f.projects.CreateProject(ctx, CreateProjectInput{OwnerID: bob.ID, Name: "Shared"})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{OwnerID: bob.ID, ProjectID: bobs.ID, Title: "for Ana", AssignedTo: &ana.ID})
	require.NoError(t, err)
	kept, err := f.tasks.CreateTask(ctx, CreateTaskInput{OwnerID: bob.ID, ProjectID: bobs.ID, Title: "for Bob"})
	require.NoError(t, err)

	revocations := NewRedisRevocationList(redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()}), constants.TokenTTL)
	svc, m := newTestCascade(f.store, revocations)

	report, err := svc.DeleteUser(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{ProjectTasks: 5, Projects: 2, AssignedTasks: 1, Users: 1}, report)

	assert.Equal(t, int64(1), countTasks(t, f.db))
	remaining, err := f.tasks.ListTasks(ctx, bob.ID, bobs.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)

	_, err = f.auth.GetUser(ctx, ana.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.auth.GetUser(ctx, bob.ID)
	require.NoError(t, err)

	revoked, err := revocations.IsRevoked(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.CascadeDeleted.WithLabelValues(metrics.CascadeDeleteUser, "tasks")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CascadeDeleted.WithLabelValues(metrics.CascadeDeleteUser, "projects")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeDeleted.WithLabelValues(metrics.CascadeDeleteUser, "users")))

	_, err = svc.DeleteUser(ctx, ana.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCascadeService_DeleteProjectTwice(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana")

	project, err := f.projects.CreateProject(ctx, CreateProjectInput{OwnerID: ana.ID, Name: "Work"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.tasks.CreateTask(ctx, CreateTaskInput{OwnerID: ana.ID, ProjectID: project.ID, Title: "task"})
		require.NoError(t, err)
	}

	svc, m := newTestCascade(f.store, NoopRevocationList{})

	report, err := svc.DeleteProject(ctx, ana.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{ProjectTasks: 3, Projects: 1}, report)

	_, err = svc.DeleteProject(ctx, ana.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)

	n, err := f.store.Tasks().CountByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// a missing project is not a failure worth alerting on
	assert.Zero(t, testutil.ToFloat64(m.CascadeFailures.WithLabelValues(metrics.CascadeDeleteProject)))
}

func TestCascadeService_DeleteForeignProject(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana")
	bob := f.register(t, "Bob")

	project, err := f.projects.CreateProject(ctx, CreateProjectInput{OwnerID: ana.ID, Name: "Work"})
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{OwnerID: ana.ID, ProjectID: project.ID, Title: "task"})
	require.NoError(t, err)

	svc, _ := newTestCascade(f.store, NoopRevocationList{})

	_, err = svc.DeleteProject(ctx, bob.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)

	n, err := f.store.Tasks().CountByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCascadeService_RetriesTransientFailures(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana")

	project, err := f.projects.CreateProject(ctx, CreateProjectInput{OwnerID: ana.ID, Name: "Work"})
	require.NoError(t, err)

	flaky := &flakyStore{Store: f.store, failures: 2}
	svc, m := newTestCascade(flaky, NoopRevocationList{})

	report, err := svc.DeleteProject(ctx, ana.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Projects)
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CascadeRetries.WithLabelValues(metrics.CascadeDeleteProject)))
}

func TestCascadeService_GivesUpAfterMaxRetries(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana")

	flaky := &flakyStore{Store: f.store, failures: 100}
	svc, m := newTestCascade(flaky, NoopRevocationList{})

	_, err := svc.DeleteUser(ctx, ana.ID)
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, maxCascadeRetries+1, flaky.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeFailures.WithLabelValues(metrics.CascadeDeleteUser)))
}

func TestCascadeService_NotFoundIsNotRetried(t *testing.T) {
	f := setupProjectFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana")

	flaky := &flakyStore{Store: f.store}
	svc, _ := newTestCascade(flaky, NoopRevocationList{})

	_, err := svc.DeleteProject(ctx, ana.ID, "6a0e8f7c-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, ErrProjectNotFound)
	assert.Equal(t, 1, flaky.calls)
}

func TestCascadeService_CancelledContextStops(t *testing.T) {
	f := setupProjectFixture(t)
	ana := f.register(t, "Ana")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flaky := &flakyStore{Store: f.store, failures: 100}
	svc, _ := newTestCascade(flaky, NoopRevocationList{})

	_, err := svc.DeleteUser(ctx, ana.ID)
	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestCascadeService_RollsBackOnStepFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	ownerID := "0b7c6a1e-4f7d-4d0e-9a55-3f1f0c2b9d10"
	projectID := "5e2d7c4a-8b1f-4c3e-a6d9-7f0e1b2c3d4e"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(projectID, "Work", ownerID))
	mock.ExpectExec(`DELETE FROM "tasks"`).
		WillReturnError(errTransient)
	mock.ExpectRollback()

	svc, m := newTestCascade(repository.NewGormStore(db), NoopRevocationList{})
	svc.newBackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }

	_, err = svc.DeleteProject(context.Background(), ownerID, projectID)
	require.ErrorIs(t, err, errTransient)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeFailures.WithLabelValues(metrics.CascadeDeleteProject)))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/yukikurage/project-task-api/internal/database"
	"github.com/yukikurage/project-task-api/internal/metrics"
	"github.com/yukikurage/project-task-api/internal/repository"
)

const maxCascadeRetries = 3

// CascadeReport counts the records removed by one cascade.
type CascadeReport struct {
	ProjectTasks  int64 `json:"projectTasks"`
	Projects      int64 `json:"projects"`
	AssignedTasks int64 `json:"assignedTasks"`
	Users         int64 `json:"users"`
}

// CascadeService deletes projects and users together with everything that
// references them. Each cascade runs as one unit of work and the whole unit
// is retried on transient failures; every step is keyed by a stable filter
// so a repeated run removes nothing twice.
type CascadeService struct {
	store       repository.Store
	revocations RevocationList
	metrics     *metrics.Metrics
	logger      *slog.Logger
	newBackOff  func() backoff.BackOff
}

// NewCascadeService creates a new CascadeService.
func NewCascadeService(store repository.Store, revocations RevocationList, m *metrics.Metrics, logger *slog.Logger) *CascadeService {
	return &CascadeService{
		store:       store,
		revocations: revocations,
		metrics:     m,
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
}

// DeleteProject removes an owned project and all of its tasks.
func (s *CascadeService) DeleteProject(ctx context.Context, ownerID, projectID string) (CascadeReport, error) {
	return s.run(ctx, metrics.CascadeDeleteProject, func(ctx context.Context, tx repository.Store) (CascadeReport, error) {
		var report CascadeReport

		if _, err := tx.Projects().FindOwned(ctx, projectID, ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return report, ErrProjectNotFound
			}
			return report, fmt.Errorf("failed to find project: %w", err)
		}

		var err error
		if report.ProjectTasks, err = tx.Tasks().DeleteByProjectIDs(ctx, []string{projectID}); err != nil {
			return report, fmt.Errorf("failed to delete project tasks: %w", err)
		}
		if report.Projects, err = tx.Projects().DeleteOwned(ctx, projectID, ownerID); err != nil {
			return report, fmt.Errorf("failed to delete project: %w", err)
		}
		return report, nil
	})
}

// DeleteUser removes a user, the projects they own with their tasks, and
// every task assigned to them. Outstanding tokens of the user are revoked.
func (s *CascadeService) DeleteUser(ctx context.Context, userID string) (CascadeReport, error) {
	report, err := s.run(ctx, metrics.CascadeDeleteUser, func(ctx context.Context, tx repository.Store) (CascadeReport, error) {
		var report CascadeReport

		if _, err := tx.Users().FindByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return report, ErrUserNotFound
			}
			return report, fmt.Errorf("failed to find user: %w", err)
		}

		projectIDs, err := tx.Projects().IDsByOwner(ctx, userID)
		if err != nil {
			return report, fmt.Errorf("failed to list owned projects: %w", err)
		}
		if report.ProjectTasks, err = tx.Tasks().DeleteByProjectIDs(ctx, projectIDs); err != nil {
			return report, fmt.Errorf("failed to delete tasks of owned projects: %w", err)
		}
		if report.Projects, err = tx.Projects().DeleteByOwner(ctx, userID); err != nil {
			return report, fmt.Errorf("failed to delete owned projects: %w", err)
		}
		if report.AssignedTasks, err = tx.Tasks().DeleteByAssignee(ctx, userID); err != nil {
			return report, fmt.Errorf("failed to delete assigned tasks: %w", err)
		}
		if report.Users, err = tx.Users().Delete(ctx, userID); err != nil {
			return report, fmt.Errorf("failed to delete user: %w", err)
		}
		return report, nil
	})
	if err != nil {
		return report, err
	}

	if err := s.revocations.Revoke(ctx, userID); err != nil {
		s.logger.Error("failed to revoke tokens of deleted user", "user_id", userID, "error", err)
	}
	return report, nil
}

type cascadeSteps func(ctx context.Context, tx repository.Store) (CascadeReport, error)

func (s *CascadeService) run(ctx context.Context, entry string, steps cascadeSteps) (CascadeReport, error) {
	attempt := func() (CascadeReport, error) {
		var report CascadeReport
		err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
			var err error
			report, err = steps(ctx, tx)
			return err
		})
		if err != nil && isPermanent(ctx, err) {
			return report, backoff.Permanent(err)
		}
		return report, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), maxCascadeRetries), ctx)
	report, err := backoff.RetryNotifyWithData(attempt, policy, func(err error, wait time.Duration) {
		s.metrics.CascadeRetries.WithLabelValues(entry).Inc()
		s.logger.Warn("cascade attempt failed, retrying", "entry", entry, "wait", wait, "error", err)
	})
	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrUserNotFound) {
			s.metrics.CascadeFailures.WithLabelValues(entry).Inc()
		}
		return CascadeReport{}, err
	}

	s.record(entry, report)
	return report, nil
}

func (s *CascadeService) record(entry string, report CascadeReport) {
	counts := []struct {
		collection string
		n          int64
	}{
		{database.CollectionTasks, report.ProjectTasks + report.AssignedTasks},
		{database.CollectionProjects, report.Projects},
		{database.CollectionUsers, report.Users},
	}
	for _, c := range counts {
		s.metrics.CascadeDeleted.WithLabelValues(entry, c.collection).Add(float64(c.n))
	}

	s.logger.Info("cascade completed",
		"entry", entry,
		"project_tasks_deleted", report.ProjectTasks,
		"projects_deleted", report.Projects,
		"assigned_tasks_deleted", report.AssignedTasks,
		"users_deleted", report.Users,
	)
}

func isPermanent(ctx context.Context, err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}

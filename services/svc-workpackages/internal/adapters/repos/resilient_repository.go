package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/architeacher/workpackages/pkg/circuitbreaker"
	"github.com/architeacher/workpackages/pkg/logger"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var (
	_ ports.WorkPackageRepository = (*ResilientWorkPackageRepository)(nil)
	_ ports.AccessRepository      = (*ResilientAccessRepository)(nil)
)

type (
	// ResilientWorkPackageRepository fails fast while the database keeps failing.
	ResilientWorkPackageRepository struct {
		next    ports.WorkPackageRepository
		breaker *circuitbreaker.CircuitBreaker[*model.WorkPackagePage]
	}

	ResilientAccessRepository struct {
		next        ports.AccessRepository
		projects    *circuitbreaker.CircuitBreaker[[]model.Project]
		memberships *circuitbreaker.CircuitBreaker[[]model.Membership]
	}
)

func NewResilientWorkPackageRepository(next ports.WorkPackageRepository, cfg circuitbreaker.Config, log logger.Logger) *ResilientWorkPackageRepository {
	return &ResilientWorkPackageRepository{
		next:    next,
		breaker: circuitbreaker.New[*model.WorkPackagePage](breakerConfig(cfg, "work_packages", log)),
	}
}

func (r *ResilientWorkPackageRepository) Find(ctx context.Context, criteria model.Criteria) (*model.WorkPackagePage, error) {
	page, err := circuitbreaker.Execute(r.breaker, func() (*model.WorkPackagePage, error) {
		return r.next.Find(ctx, criteria)
	})

	return page, rejected(err)
}

func (r *ResilientWorkPackageRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func NewResilientAccessRepository(next ports.AccessRepository, cfg circuitbreaker.Config, log logger.Logger) *ResilientAccessRepository {
	return &ResilientAccessRepository{
		next:        next,
		projects:    circuitbreaker.New[[]model.Project](breakerConfig(cfg, "projects", log)),
		memberships: circuitbreaker.New[[]model.Membership](breakerConfig(cfg, "memberships", log)),
	}
}

func (r *ResilientAccessRepository) ActiveProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := circuitbreaker.Execute(r.projects, func() ([]model.Project, error) {
		return r.next.ActiveProjects(ctx)
	})

	return projects, rejected(err)
}

func (r *ResilientAccessRepository) Memberships(ctx context.Context, viewerID int64) ([]model.Membership, error) {
	memberships, err := circuitbreaker.Execute(r.memberships, func() ([]model.Membership, error) {
		return r.next.Memberships(ctx, viewerID)
	})

	return memberships, rejected(err)
}

func breakerConfig(cfg circuitbreaker.Config, name string, log logger.Logger) circuitbreaker.Config {
	cfg.Name = name
	cfg.Ignore = func(err error) bool {
		return errors.Is(err, ErrUnsupportedSpec) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, model.ErrUnauthenticated)
	}
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn().
			Str("breaker", name).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("circuit breaker state changed")
	}

	return cfg
}

func rejected(err error) error {
	if circuitbreaker.IsRejected(err) {
		return fmt.Errorf("%w: %w", model.ErrDatabaseConnection, err)
	}

	return err
}

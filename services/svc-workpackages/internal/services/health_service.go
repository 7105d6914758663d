package services

import (
	"context"
	"runtime"
	"slices"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/config"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/ports"
)

var _ ports.HealthChecker = (*HealthService)(nil)

// HealthService reports on the process and the backing services it pings.
// A failing critical dependency takes the service down, any other failure
// degrades it.
type HealthService struct {
	dependencies map[string]ports.DependencyPinger
	critical     map[string]bool
	apiVersion   string
	startedAt    time.Time
	now          func() time.Time
}

type HealthOption func(*HealthService)

// WithDependency registers a pinger checked on readiness and health.
func WithDependency(name string, pinger ports.DependencyPinger, critical bool) HealthOption {
	return func(s *HealthService) {
		s.dependencies[name] = pinger
		s.critical[name] = critical
	}
}

func NewHealthService(apiVersion string, opts ...HealthOption) *HealthService {
	s := &HealthService{
		dependencies: make(map[string]ports.DependencyPinger),
		critical:     make(map[string]bool),
		apiVersion:   apiVersion,
		startedAt:    time.Now().UTC(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *HealthService) Liveness(_ context.Context) (*model.LivenessReport, error) {
	return &model.LivenessReport{
		Status:    model.HealthStatusOK,
		Timestamp: s.now().UTC(),
		Version:   config.ServiceVersion,
	}, nil
}

func (s *HealthService) Readiness(ctx context.Context) (*model.ReadinessReport, error) {
	status, checks := s.check(ctx)

	return &model.ReadinessReport{
		Status:    status,
		Timestamp: s.now().UTC(),
		Version:   config.ServiceVersion,
		Checks:    checks,
	}, nil
}

func (s *HealthService) Health(ctx context.Context) (*model.HealthReport, error) {
	status, checks := s.check(ctx)
	now := s.now().UTC()
	uptime := now.Sub(s.startedAt)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &model.HealthReport{
		Status:    status,
		Timestamp: now,
		Version: model.VersionInfo{
			API:   s.apiVersion,
			Build: config.CommitSHA,
			Go:    runtime.Version(),
		},
		Uptime: model.UptimeInfo{
			StartedAt:       s.startedAt,
			Duration:        uptime.Round(time.Second).String(),
			DurationSeconds: uint64(uptime.Seconds()),
		},
		Checks: checks,
		System: model.SystemInfo{
			Goroutines: uint(runtime.NumGoroutine()),
			CPUCores:   uint(runtime.NumCPU()),
			AllocMB:    float64(mem.Alloc) / 1024 / 1024,
			SysMB:      float64(mem.Sys) / 1024 / 1024,
		},
	}, nil
}

func (s *HealthService) check(ctx context.Context) (model.HealthStatus, map[string]model.DependencyCheck) {
	checks := make(map[string]model.DependencyCheck, len(s.dependencies))
	status := model.HealthStatusOK

	names := make([]string, 0, len(s.dependencies))
	for name := range s.dependencies {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		start := s.now()
		err := s.dependencies[name].Ping(ctx)
		latency := s.now().Sub(start)

		check := model.DependencyCheck{
			Status:      model.DependencyStatusUp,
			LatencyMs:   uint64(latency.Milliseconds()),
			Message:     "ok",
			LastChecked: start.UTC(),
		}

		if err != nil {
			check.Status = model.DependencyStatusDown
			check.Message = err.Error()

			switch {
			case s.critical[name]:
				status = model.HealthStatusDown
			case status == model.HealthStatusOK:
				status = model.HealthStatusDegraded
			}
		}

		checks[name] = check
	}

	return status, checks
}

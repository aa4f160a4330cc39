package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs the registered jobs once per interval. Only the replica
// holding the lock runs a cycle; the others skip it.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	svc := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run starts with an immediate cycle, then ticks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron worker stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs one cycle under the lock. A failing job is logged and
// counted; the remaining jobs still run.
func (s *Service) RunOnce(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "cron lock held by another replica, skipping cycle")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	failed := 0
	jobs := s.registry.Jobs()
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if !s.runJob(ctx, job) {
			failed++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(jobs),
		"failed": failed,
	}), "cron cycle finished")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) bool {
	name := job.Name()
	ctx = s.logg.WithField(ctx, "job", name)

	started := time.Now()
	affected, err := job.Run(ctx)
	elapsed := time.Since(started)
	s.metrics.ObserveDuration(name, elapsed)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"duration_ms":   elapsed.Milliseconds(),
		"rows_affected": affected,
	})
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(ctx, "cron job failed", err)
		return false
	}
	s.metrics.IncSuccess(name)
	s.metrics.AddAffected(name, affected)
	s.logg.Info(ctx, "cron job completed")
	return true
}

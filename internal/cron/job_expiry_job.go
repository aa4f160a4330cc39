package cron

import (
	"context"
	"fmt"

	"github.com/srejanashetty/efarm-backend/pkg/logger"
)

type expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// NewJobExpiryJob flips active job postings past their deadline to expired.
func NewJobExpiryJob(logg *logger.Logger, jobs expirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("jobs service required")
	}
	return &jobExpiryJob{logg: logg, jobs: jobs}, nil
}

type jobExpiryJob struct {
	logg *logger.Logger
	jobs expirer
}

func (j *jobExpiryJob) Name() string { return "job-expiry" }

func (j *jobExpiryJob) Run(ctx context.Context) (int64, error) {
	expired, err := j.jobs.ExpireOverdue(ctx)
	if err != nil {
		return expired, fmt.Errorf("expire job postings: %w", err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "jobs_expired", expired), "expired overdue job postings")
	}
	return expired, nil
}

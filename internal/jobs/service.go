package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
	"github.com/srejanashetty/efarm-backend/pkg/outbox/payloads"
)

const (
	applicationUniqueConstraint = "uq_job_applications_job_applicant"
	maxCoverLetterLength        = 1000
	maxTitleLength              = 100
	maxDescriptionLength        = 2000
	expiryBatchSize             = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages job postings and their applications.
type Service interface {
	Create(ctx context.Context, farmer auth.Actor, input CreateJobInput) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*JobView, error)
	List(ctx context.Context, filter ListFilter) ([]JobView, error)
	Apply(ctx context.Context, input ApplyInput) (*models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, input UpdateApplicationInput) (*models.Job, error)
	ListApplications(ctx context.Context, jobID uuid.UUID, actor auth.Actor) ([]models.JobApplication, error)
	ListMyApplications(ctx context.Context, applicantID uuid.UUID, limit int) ([]MyApplication, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// JobView is a job with the derived fields shown on the board.
type JobView struct {
	Job              models.Job
	ApplicationCount int64
	DaysRemaining    int
	IsExpired        bool
}

// MyApplication pairs one of the caller's applications with its job.
type MyApplication struct {
	Job         models.Job
	Application models.JobApplication
}

type CreateJobInput struct {
	Title               string
	Description         string
	JobType             enums.JobType
	Category            enums.JobCategory
	Location            models.JobLocation
	SalaryType          enums.SalaryType
	SalaryAmount        decimal.Decimal
	SalaryNegotiable    bool
	StartDate           time.Time
	EndDate             *time.Time
	Skills              []string
	ApplicationDeadline time.Time
	MaxApplicants       *int
	IsUrgent            bool
}

type ApplyInput struct {
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	CoverLetter *string
	Resume      *string
}

type UpdateApplicationInput struct {
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	Status      enums.ApplicationStatus
	Notes       *string
	Actor       auth.Actor
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: emitter,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, farmer auth.Actor, input CreateJobInput) (*models.Job, error) {
	if !farmer.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can post jobs")
	}
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}
	skills := input.Skills
	if skills == nil {
		skills = []string{}
	}
	job := &models.Job{
		FarmerID:            farmer.UserID,
		Title:               strings.TrimSpace(input.Title),
		Description:         strings.TrimSpace(input.Description),
		JobType:             input.JobType,
		Category:            input.Category,
		Location:            input.Location,
		SalaryType:          input.SalaryType,
		SalaryAmount:        input.SalaryAmount.Round(2),
		SalaryCurrency:      "USD",
		SalaryNegotiable:    input.SalaryNegotiable,
		StartDate:           input.StartDate.UTC(),
		EndDate:             input.EndDate,
		Skills:              skills,
		ApplicationDeadline: input.ApplicationDeadline.UTC(),
		MaxApplicants:       input.MaxApplicants,
		Status:              enums.JobStatusActive,
		IsUrgent:            input.IsUrgent,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create job")
	}
	return job, nil
}

func (s *service) validateCreate(input *CreateJobInput) error {
	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case len(title) > maxTitleLength:
		return pkgerrors.New(pkgerrors.CodeValidation, "title cannot exceed 100 characters")
	case strings.TrimSpace(input.Description) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	case len(input.Description) > maxDescriptionLength:
		return pkgerrors.New(pkgerrors.CodeValidation, "description cannot exceed 2000 characters")
	case !input.JobType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid job type")
	case !input.Category.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid job category")
	case !input.SalaryType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid salary type")
	case !input.SalaryAmount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "salary amount must be positive")
	case strings.TrimSpace(input.Location.City) == "" || strings.TrimSpace(input.Location.State) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "location requires city and state")
	case input.StartDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "start date is required")
	case input.ApplicationDeadline.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "application deadline is required")
	case !input.ApplicationDeadline.After(s.now()):
		return pkgerrors.New(pkgerrors.CodeValidation, "application deadline must be in the future")
	case input.EndDate != nil && input.EndDate.Before(input.StartDate):
		return pkgerrors.New(pkgerrors.CodeValidation, "end date cannot precede start date")
	case input.MaxApplicants != nil && *input.MaxApplicants < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "maxApplicants must be at least 1")
	}
	return nil
}

// Get counts the view and returns the job with its derived fields.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*JobView, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, jobNotFoundOr(err, "load job")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment job views")
	}
	job.Views++

	count, err := s.repo.CountApplications(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
	}
	view := s.view(*job, count)
	return &view, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]JobView, error) {
	if filter.JobType != nil && !filter.JobType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid job type filter")
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category filter")
	}
	jobs, err := s.repo.List(ctx, s.now(), filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jobs")
	}
	ids := make([]uuid.UUID, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}
	counts, err := s.repo.CountApplicationsByJob(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
	}
	out := make([]JobView, len(jobs))
	for i, job := range jobs {
		out[i] = s.view(job, counts[job.ID])
	}
	return out, nil
}

// Apply enforces, in order: one application per applicant, an open job, and
// the applicant cap. The job row stays locked until commit.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.JobApplication, error) {
	if input.ApplicantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CoverLetter != nil {
		trimmed := strings.TrimSpace(*input.CoverLetter)
		if len(trimmed) > maxCoverLetterLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cover letter cannot exceed 1000 characters")
		}
		input.CoverLetter = &trimmed
	}

	var app *models.JobApplication
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		job, err := repo.FindForUpdate(ctx, input.JobID)
		if err != nil {
			return jobNotFoundOr(err, "load job")
		}
		if job.FarmerID == input.ApplicantID {
			return pkgerrors.BusinessRule(pkgerrors.ReasonOwnJob, "You cannot apply to your own job")
		}

		if _, err := repo.FindApplication(ctx, job.ID, input.ApplicantID); err == nil {
			return alreadyApplied()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing application")
		}

		now := s.now()
		if job.Status != enums.JobStatusActive || job.IsExpired(now) {
			return pkgerrors.BusinessRule(pkgerrors.ReasonJobClosed, "Job is no longer accepting applications").
				WithDetail("status", job.Status)
		}

		if job.MaxApplicants != nil {
			count, err := repo.CountApplications(ctx, job.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
			}
			if count >= int64(*job.MaxApplicants) {
				return pkgerrors.BusinessRule(pkgerrors.ReasonCapacityReached, "Maximum number of applicants reached").
					WithDetail("maxApplicants", *job.MaxApplicants)
			}
		}

		app = &models.JobApplication{
			JobID:       job.ID,
			ApplicantID: input.ApplicantID,
			Status:      enums.ApplicationPending,
			CoverLetter: input.CoverLetter,
			Resume:      input.Resume,
			AppliedAt:   now,
		}
		if err := repo.CreateApplication(ctx, app); err != nil {
			if dbpkg.IsUniqueViolation(err, applicationUniqueConstraint) {
				return alreadyApplied()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJobApplicationSubmitted,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Actor:         &outbox.ActorRef{UserID: input.ApplicantID},
			OccurredAt:    now,
			Data: payloads.JobApplicationSubmittedEvent{
				JobID:       job.ID,
				FarmerID:    job.FarmerID,
				ApplicantID: input.ApplicantID,
				AppliedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"job_id": input.JobID.String(), "applicant_id": input.ApplicantID.String()})
	s.logg.Info(logCtx, "job application submitted")
	return app, nil
}

func (s *service) UpdateApplicationStatus(ctx context.Context, input UpdateApplicationInput) (*models.Job, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid status").
			WithDetail("allowed", enums.ApplicationStatusValues())
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		job, err := repo.FindByID(ctx, input.JobID)
		if err != nil {
			return jobNotFoundOr(err, "load job")
		}
		if !input.Actor.IsAdmin() && job.FarmerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to update applications for this job")
		}

		app, err := repo.FindApplication(ctx, job.ID, input.ApplicantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}

		updates := map[string]any{"status": input.Status}
		if input.Notes != nil {
			updates["notes"] = strings.TrimSpace(*input.Notes)
		}
		if err := repo.UpdateApplication(ctx, app.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJobApplicationStatusChanged,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			OccurredAt:    s.now(),
			Data: payloads.JobApplicationStatusChangedEvent{
				JobID:       job.ID,
				ApplicantID: input.ApplicantID,
				Status:      input.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	job, err := s.repo.FindWithApplications(ctx, input.JobID)
	if err != nil {
		return nil, jobNotFoundOr(err, "reload job")
	}
	return job, nil
}

func (s *service) ListApplications(ctx context.Context, jobID uuid.UUID, actor auth.Actor) ([]models.JobApplication, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, jobNotFoundOr(err, "load job")
	}
	if !actor.IsAdmin() && job.FarmerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to view applications for this job")
	}
	out, err := s.repo.ListApplications(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return out, nil
}

// ListMyApplications returns the applicant's applications, newest first,
// each with the job it was made to.
func (s *service) ListMyApplications(ctx context.Context, applicantID uuid.UUID, limit int) ([]MyApplication, error) {
	if applicantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	apps, err := s.repo.ListApplicationsByApplicant(ctx, applicantID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	ids := make([]uuid.UUID, len(apps))
	for i, app := range apps {
		ids[i] = app.JobID
	}
	jobs, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load jobs")
	}

	out := make([]MyApplication, 0, len(apps))
	for _, app := range apps {
		job, ok := jobs[app.JobID]
		if !ok {
			continue
		}
		out = append(out, MyApplication{Job: job, Application: app})
	}
	return out, nil
}

// ExpireOverdue marks active jobs past their deadline as expired, one
// transaction per job, and returns how many it changed.
func (s *service) ExpireOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	overdue, err := s.repo.ListOverdue(ctx, now, expiryBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue jobs")
	}

	var expired int64
	for _, job := range overdue {
		job := job
		changed := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.repo.WithTx(tx).MarkExpired(ctx, job.ID, now)
			changed = ok
			if err != nil || !ok {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventJobExpired,
				AggregateType: enums.AggregateJob,
				AggregateID:   job.ID,
				OccurredAt:    now,
				Data: payloads.JobExpiredEvent{
					JobID:    job.ID,
					FarmerID: job.FarmerID,
					Deadline: job.ApplicationDeadline,
				},
			})
		})
		if err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire job")
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

func (s *service) view(job models.Job, count int64) JobView {
	now := s.now()
	return JobView{
		Job:              job,
		ApplicationCount: count,
		DaysRemaining:    job.DaysRemaining(now),
		IsExpired:        job.IsExpired(now),
	}
}

func alreadyApplied() error {
	return pkgerrors.BusinessRule(pkgerrors.ReasonAlreadyApplied, "You have already applied to this job")
}

func jobNotFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Job not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

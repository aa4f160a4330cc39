package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// ListFilter narrows the public job board.
type ListFilter struct {
	JobType  *enums.JobType
	Category *enums.JobCategory
	City     string
	FarmerID *uuid.UUID
	Limit    int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindWithApplications loads the job and its applications, oldest first.
func (r *Repository) FindWithApplications(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Preload("Applications", func(db *gorm.DB) *gorm.DB { return db.Order("applied_at ASC") }).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindForUpdate locks the job row so application capacity checks serialize.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns active jobs whose deadline has not passed, urgent first then
// newest.
func (r *Repository) List(ctx context.Context, now time.Time, filter ListFilter) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("status = ? AND application_deadline > ?", enums.JobStatusActive, now)
	if filter.JobType != nil {
		q = q.Where("job_type = ?", *filter.JobType)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.FarmerID != nil {
		q = q.Where("farmer_id = ?", *filter.FarmerID)
	}
	city := strings.ToLower(strings.TrimSpace(filter.City))
	if filter.Limit > 0 && city == "" {
		q = q.Limit(filter.Limit)
	}
	var out []models.Job
	if err := q.Order("is_urgent DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}

	// location is a json column; the city match runs here so it behaves the
	// same on every driver.
	if city == "" {
		return out, nil
	}
	filtered := out[:0]
	for _, job := range out {
		if !strings.Contains(strings.ToLower(job.Location.City), city) {
			continue
		}
		filtered = append(filtered, job)
		if filter.Limit > 0 && len(filtered) == filter.Limit {
			break
		}
	}
	return filtered, nil
}

func (r *Repository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *Repository) CountApplications(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.JobApplication{}).Where("job_id = ?", jobID).Count(&n).Error
	return n, err
}

// CountApplicationsByJob returns application counts keyed by job id.
func (r *Repository) CountApplicationsByJob(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		JobID uuid.UUID
		N     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.JobApplication{}).
		Select("job_id, COUNT(*) AS n").
		Where("job_id IN ?", jobIDs).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.JobID] = row.N
	}
	return out, nil
}

func (r *Repository) FindApplication(ctx context.Context, jobID, applicantID uuid.UUID) (*models.JobApplication, error) {
	var app models.JobApplication
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.JobApplication{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListApplications(ctx context.Context, jobID uuid.UUID) ([]models.JobApplication, error) {
	var out []models.JobApplication
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("applied_at ASC").Find(&out).Error
	return out, err
}

// ListApplicationsByApplicant returns the applicant's applications, newest
// first.
func (r *Repository) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID, limit int) ([]models.JobApplication, error) {
	q := r.db.WithContext(ctx).Where("applicant_id = ?", applicantID).Order("applied_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.JobApplication
	err := q.Find(&out).Error
	return out, err
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Job, error) {
	out := make(map[uuid.UUID]models.Job, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var jobs []models.Job
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, err
	}
	for _, job := range jobs {
		out[job.ID] = job
	}
	return out, nil
}

// ListOverdue returns active jobs whose deadline is before now.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND application_deadline < ?", enums.JobStatusActive, now).
		Order("application_deadline ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Job
	err := q.Find(&out).Error
	return out, err
}

// MarkExpired flips an active job to expired. It reports false if the job
// was no longer active.
func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, enums.JobStatusActive).
		UpdateColumns(map[string]any{"status": enums.JobStatusExpired, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Job is a farm labor posting. Applications are a child table with one row
// per (job, applicant).
type Job struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID            uuid.UUID         `gorm:"column:farmer_id;type:uuid;not null;index"`
	Title               string            `gorm:"column:title;not null"`
	Description         string            `gorm:"column:description;not null"`
	JobType             enums.JobType     `gorm:"column:job_type;type:job_type;not null;index"`
	Category            enums.JobCategory `gorm:"column:category;type:job_category;not null;index"`
	Location            JobLocation       `gorm:"column:location;type:jsonb;serializer:json;not null"`
	SalaryType          enums.SalaryType  `gorm:"column:salary_type;type:salary_type;not null"`
	SalaryAmount        decimal.Decimal   `gorm:"column:salary_amount;type:numeric(12,2);not null"`
	SalaryCurrency      string            `gorm:"column:salary_currency;not null;default:USD"`
	SalaryNegotiable    bool              `gorm:"column:salary_negotiable;not null;default:false"`
	StartDate           time.Time         `gorm:"column:start_date;not null"`
	EndDate             *time.Time        `gorm:"column:end_date"`
	Skills              []string          `gorm:"column:skills;type:jsonb;serializer:json"`
	ApplicationDeadline time.Time         `gorm:"column:application_deadline;not null;index"`
	MaxApplicants       *int              `gorm:"column:max_applicants"`
	Status              enums.JobStatus   `gorm:"column:status;type:job_status;not null;default:active;index"`
	Views               int               `gorm:"column:views;not null;default:0"`
	IsUrgent            bool              `gorm:"column:is_urgent;not null;default:false"`
	Applications        []JobApplication  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

type JobLocation struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode,omitempty"`
}

// IsExpired reports whether the application deadline has passed.
func (j Job) IsExpired(now time.Time) bool {
	return now.After(j.ApplicationDeadline)
}

// DaysRemaining rounds the time left before the deadline up to whole days.
func (j Job) DaysRemaining(now time.Time) int {
	days := int(math.Ceil(j.ApplicationDeadline.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

type JobApplication struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	JobID       uuid.UUID               `gorm:"column:job_id;type:uuid;not null;uniqueIndex:uq_job_applications_job_applicant"`
	ApplicantID uuid.UUID               `gorm:"column:applicant_id;type:uuid;not null;uniqueIndex:uq_job_applications_job_applicant"`
	Status      enums.ApplicationStatus `gorm:"column:status;type:application_status;not null;default:pending"`
	CoverLetter *string                 `gorm:"column:cover_letter"`
	Resume      *string                 `gorm:"column:resume"`
	Notes       *string                 `gorm:"column:notes"`
	AppliedAt   time.Time               `gorm:"column:applied_at;not null"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

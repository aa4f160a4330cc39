package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

type JobDTO struct {
	ID                  uuid.UUID          `json:"id"`
	FarmerID            uuid.UUID          `json:"farmerId"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	JobType             enums.JobType      `json:"jobType"`
	Category            enums.JobCategory  `json:"category"`
	Location            models.JobLocation `json:"location"`
	Salary              SalaryDTO          `json:"salary"`
	StartDate           time.Time          `json:"startDate"`
	EndDate             *time.Time         `json:"endDate,omitempty"`
	Skills              []string           `json:"requirements"`
	ApplicationDeadline time.Time          `json:"applicationDeadline"`
	MaxApplicants       *int               `json:"maxApplicants,omitempty"`
	Status              enums.JobStatus    `json:"status"`
	Views               int                `json:"views"`
	IsUrgent            bool               `json:"isUrgent"`
	ApplicationCount    int64              `json:"applicationCount"`
	DaysRemaining       int                `json:"daysRemaining"`
	IsExpired           bool               `json:"isExpired"`
	Applications        []ApplicationDTO   `json:"applications,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type SalaryDTO struct {
	Type       enums.SalaryType `json:"type"`
	Amount     decimal.Decimal  `json:"amount"`
	Currency   string           `json:"currency"`
	Negotiable bool             `json:"negotiable"`
}

type ApplicationDTO struct {
	ID          uuid.UUID               `json:"id"`
	JobID       uuid.UUID               `json:"jobId"`
	ApplicantID uuid.UUID               `json:"applicant"`
	Status      enums.ApplicationStatus `json:"status"`
	CoverLetter *string                 `json:"coverLetter,omitempty"`
	Resume      *string                 `json:"resume,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	AppliedAt   time.Time               `json:"appliedAt"`
}

func FromView(v JobView) JobDTO {
	dto := fromModel(&v.Job)
	dto.ApplicationCount = v.ApplicationCount
	dto.DaysRemaining = v.DaysRemaining
	dto.IsExpired = v.IsExpired
	return dto
}

func FromViews(in []JobView) []JobDTO {
	out := make([]JobDTO, len(in))
	for i, v := range in {
		out[i] = FromView(v)
	}
	return out
}

// FromModelAt renders a job with its derived fields computed at now. The
// application count falls back to the loaded applications.
func FromModelAt(j *models.Job, now time.Time) JobDTO {
	dto := fromModel(j)
	dto.ApplicationCount = int64(len(j.Applications))
	dto.DaysRemaining = j.DaysRemaining(now)
	dto.IsExpired = j.IsExpired(now)
	if len(j.Applications) > 0 {
		dto.Applications = ApplicationsFromModels(j.Applications)
	}
	return dto
}

func fromModel(j *models.Job) JobDTO {
	skills := j.Skills
	if skills == nil {
		skills = []string{}
	}
	return JobDTO{
		ID:          j.ID,
		FarmerID:    j.FarmerID,
		Title:       j.Title,
		Description: j.Description,
		JobType:     j.JobType,
		Category:    j.Category,
		Location:    j.Location,
		Salary: SalaryDTO{
			Type:       j.SalaryType,
			Amount:     j.SalaryAmount,
			Currency:   j.SalaryCurrency,
			Negotiable: j.SalaryNegotiable,
		},
		StartDate:           j.StartDate,
		EndDate:             j.EndDate,
		Skills:              skills,
		ApplicationDeadline: j.ApplicationDeadline,
		MaxApplicants:       j.MaxApplicants,
		Status:              j.Status,
		Views:               j.Views,
		IsUrgent:            j.IsUrgent,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

func ApplicationFromModel(a *models.JobApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:          a.ID,
		JobID:       a.JobID,
		ApplicantID: a.ApplicantID,
		Status:      a.Status,
		CoverLetter: a.CoverLetter,
		Resume:      a.Resume,
		Notes:       a.Notes,
		AppliedAt:   a.AppliedAt,
	}
}

func ApplicationsFromModels(in []models.JobApplication) []ApplicationDTO {
	out := make([]ApplicationDTO, len(in))
	for i := range in {
		out[i] = ApplicationFromModel(&in[i])
	}
	return out
}

// JobSummaryDTO is the short job card shown next to an applicant's own
// application.
type JobSummaryDTO struct {
	ID       uuid.UUID          `json:"id"`
	FarmerID uuid.UUID          `json:"farmerId"`
	Title    string             `json:"title"`
	JobType  enums.JobType      `json:"jobType"`
	Location models.JobLocation `json:"location"`
	Salary   SalaryDTO          `json:"salary"`
	Status   enums.JobStatus    `json:"status"`
}

type MyApplicationDTO struct {
	Job         JobSummaryDTO  `json:"job"`
	Application ApplicationDTO `json:"application"`
}

func MyApplicationsFrom(in []MyApplication) []MyApplicationDTO {
	out := make([]MyApplicationDTO, len(in))
	for i := range in {
		full := fromModel(&in[i].Job)
		out[i] = MyApplicationDTO{
			Job: JobSummaryDTO{
				ID:       full.ID,
				FarmerID: full.FarmerID,
				Title:    full.Title,
				JobType:  full.JobType,
				Location: full.Location,
				Salary:   full.Salary,
				Status:   full.Status,
			},
			Application: ApplicationFromModel(&in[i].Application),
		}
	}
	return out
}

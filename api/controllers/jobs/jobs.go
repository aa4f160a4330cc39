package jobs

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/api/responses"
	"github.com/srejanashetty/efarm-backend/api/validators"
	internaljobs "github.com/srejanashetty/efarm-backend/internal/jobs"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/pagination"
	"github.com/srejanashetty/efarm-backend/pkg/types"
)

type locationRequest struct {
	Address string `json:"address"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode"`
}

type salaryRequest struct {
	Type       string          `json:"type" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Negotiable bool            `json:"negotiable"`
}

type createJobRequest struct {
	Title               string          `json:"title" validate:"required,max=100"`
	Description         string          `json:"description" validate:"required,max=2000"`
	JobType             string          `json:"jobType" validate:"required"`
	Category            string          `json:"category" validate:"required"`
	Location            locationRequest `json:"location" validate:"required"`
	Salary              salaryRequest   `json:"salary" validate:"required"`
	StartDate           time.Time       `json:"startDate" validate:"required"`
	EndDate             *time.Time      `json:"endDate"`
	Requirements        []string        `json:"requirements" validate:"omitempty,max=20,dive,max=100"`
	ApplicationDeadline time.Time       `json:"applicationDeadline" validate:"required"`
	MaxApplicants       *int            `json:"maxApplicants" validate:"omitempty,min=1"`
	IsUrgent            bool            `json:"isUrgent"`
}

type applyRequest struct {
	CoverLetter *string `json:"coverLetter" validate:"omitempty,max=1000"`
	Resume      *string `json:"resume" validate:"omitempty,max=500"`
}

type updateApplicationRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

type jobBody struct {
	Job internaljobs.JobDTO `json:"job"`
}

type applicationBody struct {
	Application internaljobs.ApplicationDTO `json:"application"`
}

// List serves the public job board: active, unexpired postings with urgent
// ones first.
func List(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		jobType, err := validators.ParseQueryEnum(r, "jobType", enums.JobType.IsValid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := validators.ParseQueryEnum(r, "category", enums.JobCategory.IsValid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		farmerID, err := validators.ParseQueryUUID(r, "farmer")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := internaljobs.ListFilter{
			City:     validators.SanitizeString(r.URL.Query().Get("city"), 100),
			FarmerID: farmerID,
			Limit:    limit,
		}
		if jobType != "" {
			filter.JobType = &jobType
		}
		if category != "" {
			filter.Category = &category
		}

		views, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internaljobs.FromViews(views), limit))
	}
}

func Detail(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.URLParamUUID(r, "id", "Job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobBody{Job: internaljobs.FromView(*view)})
	}
}

func Create(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		job, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), internaljobs.CreateJobInput{
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			JobType:     enums.JobType(req.JobType),
			Category:    enums.JobCategory(req.Category),
			Location: models.JobLocation{
				Address: strings.TrimSpace(req.Location.Address),
				City:    strings.TrimSpace(req.Location.City),
				State:   strings.TrimSpace(req.Location.State),
				ZipCode: strings.TrimSpace(req.Location.ZipCode),
			},
			SalaryType:          enums.SalaryType(req.Salary.Type),
			SalaryAmount:        req.Salary.Amount,
			SalaryNegotiable:    req.Salary.Negotiable,
			StartDate:           req.StartDate,
			EndDate:             req.EndDate,
			Skills:              req.Requirements,
			ApplicationDeadline: req.ApplicationDeadline,
			MaxApplicants:       req.MaxApplicants,
			IsUrgent:            req.IsUrgent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Job posted successfully", jobBody{Job: internaljobs.FromModelAt(job, time.Now().UTC())})
	}
}

// Apply submits the caller's application. An empty body is accepted.
func Apply(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.URLParamUUID(r, "id", "Job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req applyRequest
		if err := validators.DecodeOptionalJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		app, err := svc.Apply(r.Context(), internaljobs.ApplyInput{
			JobID:       jobID,
			ApplicantID: middleware.ActorFromContext(r.Context()).UserID,
			CoverLetter: req.CoverLetter,
			Resume:      req.Resume,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Application submitted successfully", applicationBody{Application: internaljobs.ApplicationFromModel(app)})
	}
}

func UpdateApplicationStatus(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.URLParamUUID(r, "id", "Job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		applicantID, err := validators.URLParamUUID(r, "applicantId", "Application")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateApplicationRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		job, err := svc.UpdateApplicationStatus(r.Context(), internaljobs.UpdateApplicationInput{
			JobID:       jobID,
			ApplicantID: applicantID,
			Status:      enums.ApplicationStatus(strings.TrimSpace(req.Status)),
			Notes:       req.Notes,
			Actor:       middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Application status updated successfully", jobBody{Job: internaljobs.FromModelAt(job, time.Now().UTC())})
	}
}

func ListApplications(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.URLParamUUID(r, "id", "Job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		apps, err := svc.ListApplications(r.Context(), jobID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"applications": internaljobs.ApplicationsFromModels(apps)})
	}
}

// MyApplications lists the caller's own applications with a summary of
// each job.
func MyApplications(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mine, err := svc.ListMyApplications(r.Context(), middleware.ActorFromContext(r.Context()).UserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internaljobs.MyApplicationsFrom(mine), limit))
	}
}

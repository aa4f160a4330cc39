package enums

type JobType string

const (
	JobTypeFullTime  JobType = "full-time"
	JobTypePartTime  JobType = "part-time"
	JobTypeSeasonal  JobType = "seasonal"
	JobTypeContract  JobType = "contract"
	JobTypeTemporary JobType = "temporary"
)

var validJobTypes = []JobType{
	JobTypeFullTime,
	JobTypePartTime,
	JobTypeSeasonal,
	JobTypeContract,
	JobTypeTemporary,
}

func (t JobType) IsValid() bool {
	return contains(validJobTypes, t)
}

func ParseJobType(value string) (JobType, error) {
	return parse(validJobTypes, value, "job type")
}

type JobCategory string

const (
	JobCategoryHarvesting         JobCategory = "harvesting"
	JobCategoryPlanting           JobCategory = "planting"
	JobCategoryMaintenance        JobCategory = "maintenance"
	JobCategoryEquipmentOperation JobCategory = "equipment-operation"
	JobCategoryLivestock          JobCategory = "livestock"
	JobCategoryGeneralLabor       JobCategory = "general-labor"
	JobCategoryManagement         JobCategory = "management"
	JobCategoryTechnical          JobCategory = "technical"
)

var validJobCategories = []JobCategory{
	JobCategoryHarvesting,
	JobCategoryPlanting,
	JobCategoryMaintenance,
	JobCategoryEquipmentOperation,
	JobCategoryLivestock,
	JobCategoryGeneralLabor,
	JobCategoryManagement,
	JobCategoryTechnical,
}

func (c JobCategory) IsValid() bool {
	return contains(validJobCategories, c)
}

func ParseJobCategory(value string) (JobCategory, error) {
	return parse(validJobCategories, value, "job category")
}

// JobStatus is the posting-level state. Only active postings accept applications.
type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusPaused    JobStatus = "paused"
	JobStatusFilled    JobStatus = "filled"
	JobStatusExpired   JobStatus = "expired"
	JobStatusCancelled JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusActive,
	JobStatusPaused,
	JobStatusFilled,
	JobStatusExpired,
	JobStatusCancelled,
}

func (s JobStatus) IsValid() bool {
	return contains(validJobStatuses, s)
}

func ParseJobStatus(value string) (JobStatus, error) {
	return parse(validJobStatuses, value, "job status")
}

type SalaryType string

const (
	SalaryHourly  SalaryType = "hourly"
	SalaryDaily   SalaryType = "daily"
	SalaryWeekly  SalaryType = "weekly"
	SalaryMonthly SalaryType = "monthly"
	SalaryFixed   SalaryType = "fixed"
)

var validSalaryTypes = []SalaryType{SalaryHourly, SalaryDaily, SalaryWeekly, SalaryMonthly, SalaryFixed}

func (s SalaryType) IsValid() bool {
	return contains(validSalaryTypes, s)
}

func ParseSalaryType(value string) (SalaryType, error) {
	return parse(validSalaryTypes, value, "salary type")
}

// ApplicationStatus is the per-applicant state on a job posting. Any status
// may follow any other.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationReviewed    ApplicationStatus = "reviewed"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationHired       ApplicationStatus = "hired"
	ApplicationRejected    ApplicationStatus = "rejected"
)

var validApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewed,
	ApplicationShortlisted,
	ApplicationInterviewed,
	ApplicationHired,
	ApplicationRejected,
}

func (s ApplicationStatus) IsValid() bool {
	return contains(validApplicationStatuses, s)
}

func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	return parse(validApplicationStatuses, value, "application status")
}

// ApplicationStatusValues returns the raw values, used in validation messages.
func ApplicationStatusValues() []string {
	return stringsOf(validApplicationStatuses)
}

package models

// EnrichFieldRequest asks for a single field rewrite with optional context
// such as company or industry.
type EnrichFieldRequest struct {
	Field   string         `json:"field" validate:"required"`
	Value   string         `json:"value" validate:"required"`
	Context map[string]any `json:"context,omitempty"`
}

type EnrichFieldResponse struct {
	Field    string `json:"field"`
	Original string `json:"original"`
	Enriched string `json:"enriched"`
}

type ExtractRequest struct {
	JobURL string `json:"job_url" validate:"required,url"`
}

type ExtractFromFileRequest struct {
	FilePath   string `json:"file_path" validate:"required"`
	BucketName string `json:"bucket_name,omitempty"`
}

type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Display  string  `json:"display"`
}

// ExtractedJob is the structured form of a job posting. Field names follow
// the frontend contract, hence the camelCase JSON keys.
type ExtractedJob struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Summary          string       `json:"summary"`
	Department       string       `json:"department"`
	Location         string       `json:"location"`
	JobType          string       `json:"jobType"`
	Status           string       `json:"status"`
	PostedAt         string       `json:"postedAt"`
	SalaryRange      *SalaryRange `json:"salaryRange"`
	Responsibilities []string     `json:"responsibilities"`
	Qualifications   []string     `json:"qualifications"`
	Perks            []string     `json:"perks"`
	BenefitsData     []int        `json:"benefitsData"`
	Specialty        string       `json:"specialty"`
	Organization     string       `json:"organization"`
	Country          string       `json:"country"`
	IsRemote         bool         `json:"isRemote"`
	VisaSponsorship  bool         `json:"visaSponsorship"`
	FullTime         bool         `json:"fullTime"`
	PartTime         bool         `json:"partTime"`
	NightShift       bool         `json:"nightShift"`
}

type MatchJobRequest struct {
	JobID                    string `json:"job_id" validate:"required"`
	OverwriteExistingMatches bool   `json:"overwrite_existing_matches"`
}

type MatchUserRequest struct {
	UserID                   string `json:"user_id" validate:"required,uuid"`
	OverwriteExistingMatches bool   `json:"overwrite_existing_matches"`
}

type MatchAcceptedResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

type MatchRunResponse struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	TargetID       string  `json:"target_id"`
	Status         string  `json:"status"`
	TargetsScanned int     `json:"targets_scanned"`
	MatchesFound   int     `json:"matches_found"`
	ErrorMessage   *string `json:"error_message,omitempty"`
}

type ParseResumeRequest struct {
	FilePath string `json:"file_path" validate:"required"`
}

type ParsedProfile struct {
	Title        string   `json:"title"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Position     string   `json:"position"`
	Street       string   `json:"street"`
	City         string   `json:"city"`
	Country      *string  `json:"country"`
	Phone        string   `json:"phone"`
	Citizenships []string `json:"citizenships"`
	AboutMe      string   `json:"about_me"`
	PhotoBase64  string   `json:"photo_base64"`
}

type ParsedExperience struct {
	JobTitle     string  `json:"job_title"`
	Organization string  `json:"organization"`
	City         string  `json:"city"`
	Country      *string `json:"country"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Description  string  `json:"description"`
}

type ParsedEducation struct {
	DegreeName  string  `json:"degree_name"`
	DegreeType  string  `json:"degree_type"`
	Description string  `json:"description"`
	StartDate   string  `json:"start_date"`
	SchoolName  string  `json:"school_name"`
	City        string  `json:"city"`
	Country     *string `json:"country"`
}

type ParsedCertification struct {
	Title               string  `json:"title"`
	IssuingOrganization string  `json:"issuing_organization"`
	City                string  `json:"city"`
	Country             *string `json:"country"`
	IssueDate           string  `json:"issue_date"`
}

type ParsedAward struct {
	Title                string  `json:"title"`
	AwardingOrganization string  `json:"awarding_organization"`
	City                 string  `json:"city"`
	Country              *string `json:"country"`
	Date                 string  `json:"date"`
	Description          string  `json:"description"`
}

type ParsedPublication struct {
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Date    string `json:"date"`
}

// ParseScores grades extraction quality and healthcare relevance so the
// frontend can prompt the candidate to fill gaps.
type ParseScores struct {
	CompletionScore      int      `json:"completion_score"`
	DataStrengthScore    int      `json:"data_strength_score"`
	HealthcareConfidence int      `json:"healthcare_confidence"`
	Messages             []string `json:"messages"`
}

// ParsedResume is the full CV-parser output for one resume document.
type ParsedResume struct {
	DetectedLanguage string                `json:"detected_language"`
	WasTranslated    bool                  `json:"was_translated"`
	Profile          ParsedProfile         `json:"profile"`
	Experiences      []ParsedExperience    `json:"experiences"`
	Educations       []ParsedEducation     `json:"educations"`
	Languages        []string              `json:"languages"`
	Certifications   []ParsedCertification `json:"certifications"`
	Awards           []ParsedAward         `json:"awards"`
	Publications     []ParsedPublication   `json:"publications"`
	Scores           ParseScores           `json:"scores"`
	PhotoBase64      string                `json:"photo_base64"`
	AvatarPreviewURL string                `json:"avatarPreviewUrl"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Match struct {
	ID          int64          `gorm:"primary_key" json:"id"`
	CandidateID uuid.UUID      `gorm:"type:uuid;not null" json:"candidate_id"`
	JobID       int64          `gorm:"not null" json:"job_id"`
	Score       float64        `json:"score"`
	Details     datatypes.JSON `json:"details"`
	Origin      string         `gorm:"type:text;default:'internal'" json:"origin"`
	TypeOfMatch string         `gorm:"column:type_of_match;type:text;default:'fit'" json:"type_of_match"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Match) TableName() string {
	return "match"
}

type MatchRunStatus string

const (
	RunQueued     MatchRunStatus = "queued"
	RunProcessing MatchRunStatus = "processing"
	RunCompleted  MatchRunStatus = "completed"
	RunFailed     MatchRunStatus = "failed"
)

type MatchRunKind string

const (
	RunJobToUsers MatchRunKind = "job_to_users"
	RunUserToJobs MatchRunKind = "user_to_jobs"
)

// MatchRun is one queued matching pass, either one job against all HCP
// profiles or one candidate against all open jobs. Runs are picked up by the
// worker pool and survive service restarts.
type MatchRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Kind           MatchRunKind   `gorm:"type:text;not null" json:"kind"`
	TargetID       string         `gorm:"type:text;not null" json:"target_id"`
	Environment    string         `gorm:"type:text;not null" json:"environment"`
	Overwrite      bool           `json:"overwrite"`
	Status         MatchRunStatus `gorm:"type:text;not null;default:'queued'" json:"status"`
	TargetsScanned int            `json:"targets_scanned"`
	MatchesFound   int            `json:"matches_found"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MatchRun) TableName() string {
	return "match_run"
}

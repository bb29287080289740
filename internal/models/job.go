package models

import (
	"fmt"
	"strings"
	"time"
)

type Job struct {
	ID                       int64      `gorm:"primary_key" json:"id"`
	Title                    string     `gorm:"type:text" json:"title"`
	Description              string     `gorm:"type:text" json:"description"`
	Organization             string     `gorm:"type:text" json:"organization"`
	Department               *string    `gorm:"type:text" json:"department,omitempty"`
	Location                 *string    `gorm:"type:text" json:"location,omitempty"`
	Country                  *string    `gorm:"type:text" json:"country,omitempty"`
	ContractType             *string    `gorm:"type:text" json:"contract_type,omitempty"`
	PartTime                 *string    `gorm:"type:text" json:"part_time,omitempty"`
	IsRemote                 *string    `gorm:"type:text" json:"is_remote,omitempty"`
	PreviousExperienceYears  *int       `gorm:"column:previous_experience_in_years" json:"previous_experience_in_years,omitempty"`
	MinYearlySalary          *float64   `json:"min_yearly_salary,omitempty"`
	MaxYearlySalary          *float64   `json:"max_yearly_salary,omitempty"`
	SalaryCurrency           *string    `gorm:"type:text" json:"salary_currency,omitempty"`
	MedicalSpecialtyRosetta  *string    `gorm:"column:medical_specialty_rosetta_id;type:text" json:"medical_specialty_rosetta_id,omitempty"`
	CreatedAt                time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty"`
}

func (Job) TableName() string {
	return "job"
}

// JobType derives a display job type from the part_time and contract_type
// columns, which Supabase stores as strings.
func (j *Job) JobType() string {
	if j.PartTime != nil && *j.PartTime == "true" {
		return "part-time"
	}
	if j.ContractType != nil && *j.ContractType != "" {
		return *j.ContractType
	}
	return "full-time"
}

// SalaryRange formats the salary columns into a single display string, or ""
// when neither bound is set.
func (j *Job) SalaryRange() string {
	if j.MinYearlySalary == nil && j.MaxYearlySalary == nil {
		return ""
	}
	currency := "USD"
	if j.SalaryCurrency != nil && *j.SalaryCurrency != "" {
		currency = *j.SalaryCurrency
	}
	var parts []string
	if j.MinYearlySalary != nil {
		parts = append(parts, fmt.Sprintf("%.0f", *j.MinYearlySalary))
	}
	if j.MaxYearlySalary != nil {
		parts = append(parts, fmt.Sprintf("%.0f", *j.MaxYearlySalary))
	}
	return fmt.Sprintf("%s %s", strings.Join(parts, " - "), currency)
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MatchingStatus string

const (
	MatchingProcessing MatchingStatus = "processing"
	MatchingFinished   MatchingStatus = "finished"
)

type UserProfile struct {
	ID               int64           `gorm:"primary_key" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null" json:"user_id"`
	FirstName        string          `gorm:"type:text" json:"first_name"`
	LastName         string          `gorm:"type:text" json:"last_name"`
	Email            *string         `gorm:"type:text" json:"email,omitempty"`
	Title            *string         `gorm:"type:text" json:"title,omitempty"`
	Position         *string         `gorm:"type:text" json:"position,omitempty"`
	Street           *string         `gorm:"type:text" json:"street,omitempty"`
	City             *string         `gorm:"type:text" json:"city,omitempty"`
	Country          *string         `gorm:"type:text" json:"country,omitempty"`
	Phone            *string         `gorm:"type:text" json:"phone,omitempty"`
	AboutMe          *string         `gorm:"type:text" json:"about_me,omitempty"`
	Citizenships     datatypes.JSON  `json:"citizenships,omitempty"`
	ExtractedResume  *string         `gorm:"type:text" json:"extracted_resume,omitempty"`
	MatchingStatus   *MatchingStatus `gorm:"type:text" json:"matching_status,omitempty"`
	Verified         bool            `json:"verified"`
	AvatarPreviewURL *string         `gorm:"column:avatar_preview_url;type:text" json:"avatarPreviewUrl,omitempty"`
	CreatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        *time.Time      `json:"updated_at,omitempty"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}

func (p *UserProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *UserProfile) Location() string {
	switch {
	case p.City != nil && p.Country != nil:
		return *p.City + ", " + *p.Country
	case p.City != nil:
		return *p.City
	case p.Country != nil:
		return *p.Country
	}
	return ""
}

// MedicalSpecialty is a row of the rosetta reference table. The id_rosetta
// code is the cross-system identifier jobs and profiles are joined on.
type MedicalSpecialty struct {
	ID        int64     `gorm:"primary_key" json:"id"`
	IDRosetta string    `gorm:"column:id_rosetta;type:text" json:"id_rosetta"`
	Name      string    `gorm:"type:text" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (MedicalSpecialty) TableName() string {
	return "medical_specialty_rosetta"
}

type UserSpecialty struct {
	ID                        int64     `gorm:"primary_key" json:"id"`
	UserID                    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	MedicalSpecialtyRosettaID int64     `gorm:"not null" json:"medical_specialty_rosetta_id"`
}

func (UserSpecialty) TableName() string {
	return "user_specialty"
}

type UserExperience struct {
	ID           int64      `gorm:"primary_key" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Position     *string    `gorm:"type:text" json:"position,omitempty"`
	Specialty    *string    `gorm:"type:text" json:"specialty,omitempty"`
	RosettaID    *int64     `gorm:"column:rosetta_id" json:"rosetta_id,omitempty"`
	Organization *string    `gorm:"type:text" json:"organization,omitempty"`
	City         *string    `gorm:"type:text" json:"city,omitempty"`
	Country      *string    `gorm:"type:text" json:"country,omitempty"`
	Description  *string    `gorm:"type:text" json:"description,omitempty"`
	StartDate    *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"type:date" json:"end_date,omitempty"`
}

func (UserExperience) TableName() string {
	return "user_experience"
}

type UserEducation struct {
	ID           int64     `gorm:"primary_key" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Degree       *string   `gorm:"type:text" json:"degree,omitempty"`
	Organization *string   `gorm:"type:text" json:"organization,omitempty"`
	City         *string   `gorm:"type:text" json:"city,omitempty"`
	Country      *string   `gorm:"type:text" json:"country,omitempty"`
	StartYear    *int      `json:"start_year,omitempty"`
	EndYear      *int      `json:"end_year,omitempty"`
}

func (UserEducation) TableName() string {
	return "user_education"
}

type UserCertification struct {
	ID             int64     `gorm:"primary_key" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Certifications *string   `gorm:"type:text" json:"certifications,omitempty"`
	CertIssuer     *string   `gorm:"column:cert_issuer;type:text" json:"cert_issuer,omitempty"`
	City           *string   `gorm:"type:text" json:"city,omitempty"`
	Country        *string   `gorm:"type:text" json:"country,omitempty"`
	IssueDate      *string   `gorm:"type:text" json:"issue_date,omitempty"`
}

func (UserCertification) TableName() string {
	return "user_certifications"
}

type UserPublication struct {
	ID               int64     `gorm:"primary_key" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	PublicationTitle *string   `gorm:"column:publication_title;type:text" json:"publication_title,omitempty"`
	Journal          *string   `gorm:"type:text" json:"journal,omitempty"`
	PublishingDate   *string   `gorm:"column:publishing_date;type:text" json:"publishing_date,omitempty"`
}

func (UserPublication) TableName() string {
	return "user_publications"
}

type UserLanguage struct {
	ID          int64     `gorm:"primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Language    *string   `gorm:"type:text" json:"language,omitempty"`
	Proficiency *string   `gorm:"type:text" json:"proficiency,omitempty"`
}

func (UserLanguage) TableName() string {
	return "user_languages"
}

// ProfileData aggregates everything known about a candidate across the
// profile tables. The matcher renders it into resume text when the profile
// has no extracted_resume stored.
type ProfileData struct {
	Profile        UserProfile         `json:"profile"`
	Specialties    []MedicalSpecialty  `json:"specialties"`
	Experience     []UserExperience    `json:"experience"`
	Education      []UserEducation     `json:"education"`
	Certifications []UserCertification `json:"certifications"`
	Publications   []UserPublication   `json:"publications"`
	Languages      []UserLanguage      `json:"languages"`
}

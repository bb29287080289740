package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
)

type UserRepository interface {
	FindByUserID(env string, userID uuid.UUID) (*models.UserProfile, error)
	Exists(env string, userID uuid.UUID) (bool, error)
	ListAll(env string) ([]models.UserProfile, error)
	Specialties(env string, userID uuid.UUID) ([]models.MedicalSpecialty, error)
	ProfileData(env string, userID uuid.UUID) (*models.ProfileData, error)
	UpdateMatchingStatus(env string, userID uuid.UUID, status models.MatchingStatus) error
	AllSpecialties(env string) ([]models.MedicalSpecialty, error)
}

type userRepository struct {
	dbs *config.Databases
}

func NewUserRepository(dbs *config.Databases) UserRepository {
	return &userRepository{dbs: dbs}
}

func (r *userRepository) FindByUserID(env string, userID uuid.UUID) (*models.UserProfile, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user profile: %w", err)
	}
	return &profile, nil
}

func (r *userRepository) Exists(env string, userID uuid.UUID) (bool, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) ListAll(env string) ([]models.UserProfile, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var profiles []models.UserProfile
	if err := db.Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list user profiles: %w", err)
	}
	return profiles, nil
}

// Specialties resolves a user's medical specialties through the
// user_specialty join table.
func (r *userRepository) Specialties(env string, userID uuid.UUID) ([]models.MedicalSpecialty, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var specialties []models.MedicalSpecialty
	if err := db.
		Joins("JOIN user_specialty ON user_specialty.medical_specialty_rosetta_id = medical_specialty_rosetta.id").
		Where("user_specialty.user_id = ?", userID).
		Find(&specialties).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user specialties: %w", err)
	}
	return specialties, nil
}

// ProfileData collects everything known about a candidate across the profile
// tables. Missing side tables are tolerated so partially migrated
// environments still produce usable resume text.
func (r *userRepository) ProfileData(env string, userID uuid.UUID) (*models.ProfileData, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	profile, err := r.FindByUserID(env, userID)
	if err != nil {
		return nil, err
	}

	data := &models.ProfileData{Profile: *profile}

	if err := db.Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&data.Experience).Error; err != nil {
		data.Experience = nil
	}
	if err := db.Where("user_id = ?", userID).
		Order("end_year DESC").
		Find(&data.Education).Error; err != nil {
		data.Education = nil
	}
	if err := db.Where("user_id = ?", userID).Find(&data.Certifications).Error; err != nil {
		data.Certifications = nil
	}
	if err := db.Where("user_id = ?", userID).Find(&data.Publications).Error; err != nil {
		data.Publications = nil
	}
	if err := db.Where("user_id = ?", userID).Find(&data.Languages).Error; err != nil {
		data.Languages = nil
	}

	data.Specialties, err = r.Specialties(env, userID)
	if err != nil {
		data.Specialties = nil
	}

	return data, nil
}

func (r *userRepository) UpdateMatchingStatus(env string, userID uuid.UUID, status models.MatchingStatus) error {
	db, err := r.dbs.For(env)
	if err != nil {
		return err
	}

	result := db.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("matching_status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update matching status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// AllSpecialties loads the full rosetta reference table.
func (r *userRepository) AllSpecialties(env string) ([]models.MedicalSpecialty, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var specialties []models.MedicalSpecialty
	if err := db.Find(&specialties).Error; err != nil {
		return nil, fmt.Errorf("failed to list medical specialties: %w", err)
	}
	return specialties, nil
}

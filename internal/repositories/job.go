package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
)

// ErrNotFound is returned when a lookup matches no rows. Handlers translate
// it to a 404.
var ErrNotFound = errors.New("record not found")

type JobRepository interface {
	FindByID(env string, id int64) (*models.Job, error)
	Exists(env string, id int64) (bool, error)
	FindBySpecialty(env string, rosettaID string) ([]models.Job, error)
	ListAll(env string) ([]models.Job, error)
}

type jobRepository struct {
	dbs *config.Databases
}

func NewJobRepository(dbs *config.Databases) JobRepository {
	return &jobRepository{dbs: dbs}
}

func (r *jobRepository) FindByID(env string, id int64) (*models.Job, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var job models.Job
	if err := db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Exists(env string, id int64) (bool, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&models.Job{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check job existence: %w", err)
	}
	return count > 0, nil
}

func (r *jobRepository) ListAll(env string) ([]models.Job, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var jobs []models.Job
	if err := db.Order("id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindBySpecialty(env string, rosettaID string) ([]models.Job, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return nil, err
	}

	var jobs []models.Job
	if err := db.
		Where("medical_specialty_rosetta_id = ?", rosettaID).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to find jobs by specialty: %w", err)
	}
	return jobs, nil
}

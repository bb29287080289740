package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
)

type MatchRepository interface {
	Exists(env string, candidateID uuid.UUID, jobID int64) (bool, error)
	Upsert(env string, match *models.Match) error
}

type matchRepository struct {
	dbs *config.Databases
}

func NewMatchRepository(dbs *config.Databases) MatchRepository {
	return &matchRepository{dbs: dbs}
}

func (r *matchRepository) Exists(env string, candidateID uuid.UUID, jobID int64) (bool, error) {
	db, err := r.dbs.For(env)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&models.Match{}).
		Where("candidate_id = ? AND job_id = ?", candidateID, jobID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check match existence: %w", err)
	}
	return count > 0, nil
}

// Upsert inserts the match or refreshes the score and details of an existing
// candidate/job pair.
func (r *matchRepository) Upsert(env string, match *models.Match) error {
	db, err := r.dbs.For(env)
	if err != nil {
		return err
	}

	match.UpdatedAt = time.Now()
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "details", "origin", "type_of_match", "updated_at",
		}),
	}).Create(match).Error; err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}
	return nil
}

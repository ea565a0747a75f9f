// internal/results/repository.go
package results

import (
	"log"
	"time"

	"gorm.io/gorm"

	"olympiad-platform/internal/models"
)

// ScoredRow is one scored attempt aggregated with its manual marks, as
// pulled by the ranking query.
type ScoredRow struct {
	AttemptID      uint
	ParticipantID  uint
	RegistrationNo string
	TotalScore     int
	ManualMarked   int64
	SubmittedAt    time.Time
}

// Repository abstracts the ranking store.
type Repository interface {
	ConfigForTuple(editionID uint, level models.EducationLevel, subject string, stage models.Stage) (*models.ExamConfig, error)
	ScoredAttempts(configID uint) ([]ScoredRow, error)
	ReplaceRankings(editionID uint, level models.EducationLevel, subject string, stage models.Stage, entries []models.RankingEntry) error
	Rankings(editionID uint, level models.EducationLevel, subject string, stage models.Stage, limit int) ([]models.RankingEntry, error)
	ParticipantRanking(participantID uint, subject string, stage models.Stage) (*models.RankingEntry, error)
	AdvanceParticipant(participantID uint, rankedStage, nextStage models.Stage) error
	EliminateParticipant(participantID uint, rankedStage models.Stage) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ConfigForTuple(editionID uint, level models.EducationLevel, subject string, stage models.Stage) (*models.ExamConfig, error) {
	var config models.ExamConfig
	err := r.db.Preload("Questions.Question").
		Where("edition_id = ? AND education_level = ? AND subject = ? AND stage = ?",
			editionID, level, subject, stage).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// ScoredAttempts aggregates every SCORED attempt of a config with the sum
// of its manual marks. The caller filters out attempts whose manual
// grading is incomplete.
func (r *GormRepository) ScoredAttempts(configID uint) ([]ScoredRow, error) {
	var rows []ScoredRow
	err := r.db.Raw(`
        SELECT ea.id AS attempt_id, ea.participant_id, p.registration_no,
               ea.auto_score + COALESCE(SUM(mm.marks_awarded), 0) AS total_score,
               COUNT(mm.id) AS manual_marked,
               ea.submitted_at
        FROM exam_attempts ea
        JOIN participants p ON p.id = ea.participant_id
        LEFT JOIN manual_marks mm ON mm.attempt_id = ea.id
        WHERE ea.exam_config_id = ? AND ea.status = 'SCORED' AND ea.deleted_at IS NULL
        GROUP BY ea.id, ea.participant_id, p.registration_no, ea.auto_score, ea.submitted_at
    `, configID).Scan(&rows).Error
	if err != nil {
		log.Printf("Error loading scored attempts for config %d: %v", configID, err)
		return nil, err
	}
	return rows, nil
}

// ReplaceRankings swaps the tuple's entry set wholesale inside one
// transaction, so readers never observe a partial leaderboard.
func (r *GormRepository) ReplaceRankings(editionID uint, level models.EducationLevel, subject string, stage models.Stage, entries []models.RankingEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("edition_id = ? AND education_level = ? AND subject = ? AND stage = ?",
			editionID, level, subject, stage).
			Delete(&models.RankingEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *GormRepository) Rankings(editionID uint, level models.EducationLevel, subject string, stage models.Stage, limit int) ([]models.RankingEntry, error) {
	query := r.db.Where("edition_id = ? AND education_level = ? AND subject = ? AND stage = ?",
		editionID, level, subject, stage).
		Order("rank_position asc, participant_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.RankingEntry
	err := query.Find(&entries).Error
	return entries, err
}

func (r *GormRepository) ParticipantRanking(participantID uint, subject string, stage models.Stage) (*models.RankingEntry, error) {
	var entry models.RankingEntry
	err := r.db.Where("participant_id = ? AND subject = ? AND stage = ?",
		participantID, subject, stage).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// stagesThrough returns the stages up to and including the given one, in
// competition order.
func stagesThrough(stage models.Stage) []models.Stage {
	return models.StageOrder()[:stage.Ordinal()+1]
}

// AdvanceParticipant moves the stage pointer forward after the ranked
// stage's cutoff passed. The pointer only moves for participants still at
// or before the ranked stage: recomputing an earlier phase must never drag
// anyone backward.
func (r *GormRepository) AdvanceParticipant(participantID uint, rankedStage, nextStage models.Stage) error {
	err := r.db.Model(&models.Participant{}).
		Where("id = ? AND is_eliminated = ? AND current_stage IN ?",
			participantID, false, stagesThrough(rankedStage)).
		Update("current_stage", nextStage).Error
	if err != nil {
		log.Printf("Error advancing participant %d to %s: %v", participantID, nextStage, err)
	}
	return err
}

// EliminateParticipant flips the elimination flag, freezing the stage
// pointer at the stage that failed. Participants who already progressed
// past the ranked stage are untouched, same as on the advance path.
func (r *GormRepository) EliminateParticipant(participantID uint, rankedStage models.Stage) error {
	err := r.db.Model(&models.Participant{}).
		Where("id = ? AND is_eliminated = ? AND current_stage IN ?",
			participantID, false, stagesThrough(rankedStage)).
		Update("is_eliminated", true).Error
	if err != nil {
		log.Printf("Error eliminating participant %d: %v", participantID, err)
	}
	return err
}

// internal/exam/repository.go
package exam

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-platform/internal/models"
)

// ConfigRepository abstracts exam configuration and question bank storage.
type ConfigRepository interface {
	EditionExists(id uint) (bool, error)
	QuestionsByIDs(ids []uint) ([]models.Question, error)
	CreateConfig(config *models.ExamConfig) error
	GetConfig(id uint) (*models.ExamConfig, error)
	ListConfigs(editionID uint, stage models.Stage) ([]models.ExamConfigSummary, error)
	DeleteConfig(id uint) error
	CountAttempts(configID uint) (int64, error)
	CreateQuestion(question *models.Question) error
	ListQuestions(subject string, level models.EducationLevel) ([]models.Question, error)
}

// AttemptRepository abstracts attempt storage. State transitions are
// conditional updates so racing submits cannot double-score an attempt.
type AttemptRepository interface {
	CreateAttempt(attempt *models.ExamAttempt) error
	GetAttempt(id uint) (*models.ExamAttempt, error)
	FindAttempt(participantID, configID uint) (*models.ExamAttempt, error)
	UpsertAnswers(attemptID uint, answers []models.AttemptAnswer) error
	MarkSubmitted(attemptID uint, submittedAt time.Time) (bool, error)
	MarkScored(attemptID uint, autoScore int) (bool, error)
	CountManualMarks(attemptID uint) (int64, error)
	DeleteAttempt(id uint) error
}

// ParticipantReader is the slice of the enrollment store the attempt
// engine needs.
type ParticipantReader interface {
	GetParticipant(id uint) (*models.Participant, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) EditionExists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Edition{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormRepository) QuestionsByIDs(ids []uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.Preload("Options").Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *GormRepository) CreateConfig(config *models.ExamConfig) error {
	err := r.db.Create(config).Error
	if err != nil {
		log.Printf("Error creating exam config: %v", err)
		return err
	}
	log.Printf("Created exam config %d (%s/%s/%s)", config.ID, config.Stage, config.EducationLevel, config.Subject)
	return nil
}

func (r *GormRepository) GetConfig(id uint) (*models.ExamConfig, error) {
	var config models.ExamConfig
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Questions.Question").
		First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *GormRepository) ListConfigs(editionID uint, stage models.Stage) ([]models.ExamConfigSummary, error) {
	query := `
        SELECT ec.id, ec.edition_id, e.name AS edition_name, ec.stage,
               ec.education_level, ec.subject, ec.duration_minutes,
               ec.starts_at, ec.ends_at,
               COUNT(ecq.id) AS question_count
        FROM exam_configs ec
        JOIN editions e ON e.id = ec.edition_id
        LEFT JOIN exam_config_questions ecq ON ecq.exam_config_id = ec.id
        WHERE ec.deleted_at IS NULL`
	args := []interface{}{}

	if editionID != 0 {
		query += " AND ec.edition_id = ?"
		args = append(args, editionID)
	}
	if stage != "" {
		query += " AND ec.stage = ?"
		args = append(args, stage)
	}
	query += `
        GROUP BY ec.id, ec.edition_id, e.name, ec.stage, ec.education_level,
                 ec.subject, ec.duration_minutes, ec.starts_at, ec.ends_at
        ORDER BY ec.starts_at ASC`

	var summaries []models.ExamConfigSummary
	err := r.db.Raw(query, args...).Scan(&summaries).Error
	if err != nil {
		log.Printf("Error listing exam configs: %v", err)
		return nil, err
	}
	return summaries, nil
}

// DeleteConfig removes the config and its question links for real. A soft
// delete would keep the dead row in the tuple's unique index and block the
// recreate flow the delete guard exists to enable.
func (r *GormRepository) DeleteConfig(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_config_id = ?", id).Delete(&models.ExamConfigQuestion{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.ExamConfig{}, id).Error
	})
}

func (r *GormRepository) CountAttempts(configID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamAttempt{}).
		Where("exam_config_id = ?", configID).
		Count(&count).Error
	return count, err
}

func (r *GormRepository) CreateQuestion(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *GormRepository) ListQuestions(subject string, level models.EducationLevel) ([]models.Question, error) {
	query := r.db.Preload("Options")
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if level != "" {
		query = query.Where("education_level = ?", level)
	}

	var questions []models.Question
	err := query.Find(&questions).Error
	return questions, err
}

func (r *GormRepository) CreateAttempt(attempt *models.ExamAttempt) error {
	err := r.db.Create(attempt).Error
	if err != nil {
		log.Printf("Error creating attempt for participant %d config %d: %v",
			attempt.ParticipantID, attempt.ExamConfigID, err)
		return err
	}
	return nil
}

func (r *GormRepository) GetAttempt(id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.Preload("Answers").First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *GormRepository) FindAttempt(participantID, configID uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.Where("participant_id = ? AND exam_config_id = ?", participantID, configID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *GormRepository) UpsertAnswers(attemptID uint, answers []models.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	for i := range answers {
		answers[i].AttemptID = attemptID
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option", "free_response"}),
	}).Create(&answers).Error
}

// MarkSubmitted transitions IN_PROGRESS -> SUBMITTED. Returns false when
// the attempt was not in IN_PROGRESS, which serializes racing submits.
func (r *GormRepository) MarkSubmitted(attemptID uint, submittedAt time.Time) (bool, error) {
	result := r.db.Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptSubmitted,
			"submitted_at": submittedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkScored transitions SUBMITTED -> SCORED with the auto-graded score.
func (r *GormRepository) MarkScored(attemptID uint, autoScore int) (bool, error) {
	result := r.db.Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptSubmitted).
		Updates(map[string]interface{}{
			"status":     models.AttemptScored,
			"auto_score": autoScore,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) CountManualMarks(attemptID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ManualMark{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

// DeleteAttempt removes the attempt and everything hanging off it so the
// (participant, config) pair may retry. Admin reset path only.
func (r *GormRepository) DeleteAttempt(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attempt_id = ?", id).Delete(&models.AttemptAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("attempt_id = ?", id).Delete(&models.ManualMark{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.ExamAttempt{}, id).Error
	})
}

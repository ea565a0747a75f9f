// internal/marking/repository.go
package marking

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-platform/internal/models"
)

// Repository abstracts manual-mark storage and the pending-task query.
type Repository interface {
	ListPending(editionID uint, level models.EducationLevel, subject string) ([]models.MarkingTask, error)
	GetAttempt(id uint) (*models.ExamAttempt, error)
	GetConfig(id uint) (*models.ExamConfig, error)
	UpsertMark(mark *models.ManualMark) error
	ManualQuestionCount(configID uint) (int64, error)
	CountMarks(attemptID uint) (int64, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListPending finds every (attempt, question) pair where the question is
// manually graded, the attempt is past submission, and no mark exists yet.
func (r *GormRepository) ListPending(editionID uint, level models.EducationLevel, subject string) ([]models.MarkingTask, error) {
	query := `
        SELECT ea.id AS attempt_id, ea.participant_id, p.registration_no,
               ec.edition_id, ec.education_level, ec.subject, ec.stage,
               q.id AS question_id, q.prompt, q.max_marks
        FROM exam_attempts ea
        JOIN exam_configs ec ON ec.id = ea.exam_config_id
        JOIN participants p ON p.id = ea.participant_id
        JOIN exam_config_questions ecq ON ecq.exam_config_id = ec.id
        JOIN questions q ON q.id = ecq.question_id AND q.type IN ('THEORY', 'PRACTICAL')
        LEFT JOIN manual_marks mm ON mm.attempt_id = ea.id AND mm.question_id = q.id
        WHERE ea.status IN ('SUBMITTED', 'SCORED')
          AND ea.deleted_at IS NULL
          AND mm.id IS NULL`
	args := []interface{}{}

	if editionID != 0 {
		query += " AND ec.edition_id = ?"
		args = append(args, editionID)
	}
	if level != "" {
		query += " AND ec.education_level = ?"
		args = append(args, level)
	}
	if subject != "" {
		query += " AND ec.subject = ?"
		args = append(args, subject)
	}
	query += " ORDER BY ea.id ASC, ecq.position ASC"

	var tasks []models.MarkingTask
	err := r.db.Raw(query, args...).Scan(&tasks).Error
	if err != nil {
		log.Printf("Error listing pending marking tasks: %v", err)
		return nil, err
	}
	return tasks, nil
}

func (r *GormRepository) GetAttempt(id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := r.db.Preload("Answers").First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *GormRepository) GetConfig(id uint) (*models.ExamConfig, error) {
	var config models.ExamConfig
	err := r.db.Preload("Questions.Question").First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *GormRepository) UpsertMark(mark *models.ManualMark) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"marks_awarded", "graded_by", "feedback"}),
	}).Create(mark).Error
}

func (r *GormRepository) ManualQuestionCount(configID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamConfigQuestion{}).
		Joins("JOIN questions q ON q.id = exam_config_questions.question_id").
		Where("exam_config_questions.exam_config_id = ? AND q.type IN ?", configID,
			[]models.QuestionType{models.QuestionTheory, models.QuestionPractical}).
		Count(&count).Error
	return count, err
}

func (r *GormRepository) CountMarks(attemptID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ManualMark{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

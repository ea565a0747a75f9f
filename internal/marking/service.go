// internal/marking/service.go
package marking

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListPending(editionID uint, level models.EducationLevel, subject string) ([]models.MarkingTask, error) {
	if level != "" && !level.Valid() {
		return nil, apperrors.Validation("unknown education level %q", level)
	}
	tasks, err := s.repo.ListPending(editionID, level, subject)
	if err != nil {
		return nil, apperrors.Internal(err, "could not list pending marking tasks")
	}
	return tasks, nil
}

type MarkRequest struct {
	AttemptID    uint   `json:"attempt_id" validate:"required"`
	QuestionID   uint   `json:"question_id" validate:"required"`
	MarksAwarded int    `json:"marks_awarded" validate:"gte=0"`
	Feedback     string `json:"feedback"`
}

// SubmitMark upserts a manual mark for one question of one attempt. It
// does not recompute the attempt's aggregate score; aggregation happens
// at ranking time.
func (s *Service) SubmitMark(adminID uint, req MarkRequest) (*models.ManualMark, error) {
	attempt, err := s.repo.GetAttempt(req.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("attempt %d not found", req.AttemptID)
		}
		return nil, apperrors.Internal(err, "could not load attempt")
	}
	if attempt.Status != models.AttemptSubmitted && attempt.Status != models.AttemptScored {
		return nil, apperrors.Conflict("attempt has not been submitted yet")
	}

	config, err := s.repo.GetConfig(attempt.ExamConfigID)
	if err != nil {
		return nil, apperrors.Internal(err, "could not load exam config")
	}

	var question *models.Question
	for i := range config.Questions {
		if config.Questions[i].QuestionID == req.QuestionID {
			question = &config.Questions[i].Question
			break
		}
	}
	if question == nil {
		return nil, apperrors.NotFound("question %d is not part of this exam", req.QuestionID)
	}
	if !question.Type.ManuallyGraded() {
		return nil, apperrors.Validation("question %d is auto-graded", req.QuestionID)
	}
	if req.MarksAwarded < 0 || req.MarksAwarded > question.MaxMarks {
		return nil, apperrors.Validation("marks must be between 0 and %d", question.MaxMarks)
	}

	mark := &models.ManualMark{
		AttemptID:    req.AttemptID,
		QuestionID:   req.QuestionID,
		MarksAwarded: req.MarksAwarded,
		GradedBy:     adminID,
		Feedback:     req.Feedback,
	}
	if err := s.repo.UpsertMark(mark); err != nil {
		return nil, apperrors.Internal(err, "could not record mark")
	}

	log.Printf("Recorded mark for attempt %d question %d: %d/%d by admin %d",
		req.AttemptID, req.QuestionID, req.MarksAwarded, question.MaxMarks, adminID)
	return mark, nil
}

// AttemptFullyMarked is the derived completeness check: every manually
// graded question of the attempt's config has a recorded mark. There is
// no finalization event; callers ask when they need to know.
func (s *Service) AttemptFullyMarked(attemptID uint) (bool, error) {
	attempt, err := s.repo.GetAttempt(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.NotFound("attempt %d not found", attemptID)
		}
		return false, apperrors.Internal(err, "could not load attempt")
	}

	manual, err := s.repo.ManualQuestionCount(attempt.ExamConfigID)
	if err != nil {
		return false, apperrors.Internal(err, "could not count manual questions")
	}
	if manual == 0 {
		return true, nil
	}

	marked, err := s.repo.CountMarks(attemptID)
	if err != nil {
		return false, apperrors.Internal(err, "could not count marks")
	}
	return marked >= manual, nil
}

// internal/edition/service.go
package edition

import (
	"errors"
	"time"

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

type CreateRequest struct {
	Name            string    `json:"name" validate:"required"`
	Year            int       `json:"year" validate:"required,gte=2000"`
	Theme           string    `json:"theme"`
	Venue           string    `json:"venue"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	CloseDate       time.Time `json:"close_date" validate:"required"`
	EnrollmentStart time.Time `json:"enrollment_start" validate:"required"`
	EnrollmentEnd   time.Time `json:"enrollment_end" validate:"required"`
}

// Create validates the schedule and persists the edition together with
// its five phase windows.
func (s *Service) Create(req CreateRequest) (*models.Edition, error) {
	if !req.CloseDate.After(req.StartDate) {
		return nil, apperrors.Validation("close date must be after start date")
	}
	if req.EnrollmentEnd.Before(req.EnrollmentStart) {
		return nil, apperrors.Validation("enrollment end must not precede enrollment start")
	}

	phases := SplitPhases(req.StartDate, req.CloseDate)

	// Enrollment must close before the first competitive phase opens.
	quizStart := phases[models.StageQuiz.Ordinal()].StartsAt
	if req.EnrollmentEnd.After(quizStart) {
		return nil, apperrors.Validation("enrollment window must close before the quiz phase starts")
	}

	edition := &models.Edition{
		Name:            req.Name,
		Year:            req.Year,
		Theme:           req.Theme,
		Venue:           req.Venue,
		StartDate:       req.StartDate,
		CloseDate:       req.CloseDate,
		EnrollmentStart: req.EnrollmentStart,
		EnrollmentEnd:   req.EnrollmentEnd,
		Status:          models.EditionDraft,
		Phases:          phases,
	}

	if err := s.repo.Create(edition); err != nil {
		return nil, apperrors.Internal(err, "could not create edition")
	}
	return edition, nil
}

func (s *Service) GetByID(id uint) (*models.Edition, error) {
	edition, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("edition %d not found", id)
		}
		return nil, apperrors.Internal(err, "could not load edition")
	}
	return edition, nil
}

func (s *Service) List() ([]models.Edition, error) {
	editions, err := s.repo.List()
	if err != nil {
		return nil, apperrors.Internal(err, "could not list editions")
	}
	return editions, nil
}

type UpdateRequest struct {
	Name            *string               `json:"name"`
	Year            *int                  `json:"year"`
	Theme           *string               `json:"theme"`
	Venue           *string               `json:"venue"`
	EnrollmentStart *time.Time            `json:"enrollment_start"`
	EnrollmentEnd   *time.Time            `json:"enrollment_end"`
	Status          *models.EditionStatus `json:"status"`
}

// Update mutates the edition's mutable fields. Status may only move
// forward through the lifecycle; regressions are rejected.
func (s *Service) Update(id uint, req UpdateRequest) (*models.Edition, error) {
	edition, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.Validation("unknown edition status %q", *req.Status)
		}
		if !edition.Status.CanTransitionTo(*req.Status) {
			return nil, apperrors.Conflict("cannot move edition status from %s back to %s", edition.Status, *req.Status)
		}
		edition.Status = *req.Status
	}
	if req.Name != nil {
		edition.Name = *req.Name
	}
	if req.Year != nil {
		edition.Year = *req.Year
	}
	if req.Theme != nil {
		edition.Theme = *req.Theme
	}
	if req.Venue != nil {
		edition.Venue = *req.Venue
	}
	if req.EnrollmentStart != nil {
		edition.EnrollmentStart = *req.EnrollmentStart
	}
	if req.EnrollmentEnd != nil {
		edition.EnrollmentEnd = *req.EnrollmentEnd
		if quiz, ok := edition.PhaseFor(models.StageQuiz); ok && req.EnrollmentEnd.After(quiz.StartsAt) {
			return nil, apperrors.Validation("enrollment window must close before the quiz phase starts")
		}
	}

	if err := s.repo.Update(edition); err != nil {
		return nil, apperrors.Internal(err, "could not update edition")
	}
	return edition, nil
}

// Delete refuses to remove an edition that participants or exam configs
// still reference.
func (s *Service) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}

	participants, err := s.repo.CountParticipants(id)
	if err != nil {
		return apperrors.Internal(err, "could not check edition participants")
	}
	if participants > 0 {
		return apperrors.Conflict("cannot delete edition with enrolled participants")
	}

	configs, err := s.repo.CountExamConfigs(id)
	if err != nil {
		return apperrors.Internal(err, "could not check edition exam configs")
	}
	if configs > 0 {
		return apperrors.Conflict("cannot delete edition with existing exam configs")
	}

	if err := s.repo.Delete(id); err != nil {
		return apperrors.Internal(err, "could not delete edition")
	}
	return nil
}

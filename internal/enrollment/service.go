// internal/enrollment/service.go
package enrollment

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
	"olympiad-platform/internal/notify"
)

// MaxSubjects caps the subject set a participant may register for.
const MaxSubjects = 2

// EligibilityChecker is a pluggable pre-enrollment hook. The default
// implementation accepts everyone; real eligibility rules can be slotted
// in without touching the enrollment flow.
type EligibilityChecker interface {
	Check(edition *models.Edition, level models.EducationLevel, subjects []string) []string
}

type alwaysEligible struct{}

func (alwaysEligible) Check(*models.Edition, models.EducationLevel, []string) []string {
	return nil
}

type Service struct {
	repo        Repository
	notifier    notify.Sender
	eligibility EligibilityChecker
	now         func() time.Time
}

func NewService(repo Repository, notifier notify.Sender) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		eligibility: alwaysEligible{},
		now:         time.Now,
	}
}

// NewServiceWithClock is test-only for deterministic enrollment windows.
func NewServiceWithClock(repo Repository, notifier notify.Sender, now func() time.Time) *Service {
	s := NewService(repo, notifier)
	s.now = now
	return s
}

// SetEligibilityChecker replaces the default always-eligible hook.
func (s *Service) SetEligibilityChecker(checker EligibilityChecker) {
	s.eligibility = checker
}

type EnrollRequest struct {
	EditionID       uint                   `json:"edition_id" validate:"required"`
	ParticipantType models.ParticipantType `json:"participant_type" validate:"required"`
	EducationLevel  models.EducationLevel  `json:"education_level" validate:"required"`
	Subjects        []string               `json:"subjects" validate:"required,min=1"`
	MinorProfileID  *uint                  `json:"minor_profile_id,omitempty"`
}

type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Errors   []string `json:"errors"`
}

func (s *Service) validateRequest(req EnrollRequest) error {
	if !req.ParticipantType.Valid() {
		return apperrors.Validation("unknown participant type %q", req.ParticipantType)
	}
	if !req.EducationLevel.Valid() {
		return apperrors.Validation("unknown education level %q", req.EducationLevel)
	}
	if len(req.Subjects) == 0 {
		return apperrors.Validation("at least one subject is required")
	}
	if len(req.Subjects) > MaxSubjects {
		return apperrors.Validation("at most %d subjects may be selected", MaxSubjects)
	}

	seen := map[string]bool{}
	for _, subject := range req.Subjects {
		if seen[subject] {
			return apperrors.Validation("duplicate subject %q", subject)
		}
		seen[subject] = true
		if !req.EducationLevel.AllowsSubject(subject) {
			return apperrors.Validation("subject %q is not offered at %s level", subject, req.EducationLevel)
		}
	}

	if req.ParticipantType == models.ParticipantMinor && req.MinorProfileID == nil {
		return apperrors.Validation("minor enrollment requires a minor profile")
	}
	return nil
}

// CheckEligibility runs the boundary validation plus the pluggable
// eligibility hook without writing anything.
func (s *Service) CheckEligibility(req EnrollRequest) (*EligibilityResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	edition, err := s.getEdition(req.EditionID)
	if err != nil {
		return nil, err
	}

	errs := s.eligibility.Check(edition, req.EducationLevel, req.Subjects)
	return &EligibilityResult{Eligible: len(errs) == 0, Errors: append([]string{}, errs...)}, nil
}

// Enroll registers a participant in an edition. Guardians enroll minors
// via a minor profile they own; adults enroll themselves. A confirmation
// notification is sent best-effort after the write.
func (s *Service) Enroll(callerID uint, req EnrollRequest) (*models.Participant, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	edition, err := s.getEdition(req.EditionID)
	if err != nil {
		return nil, err
	}
	if edition.Status != models.EditionOpen {
		return nil, apperrors.Conflict("edition %q is not open for enrollment", edition.Name)
	}
	now := s.now()
	if now.Before(edition.EnrollmentStart) || now.After(edition.EnrollmentEnd) {
		return nil, apperrors.Conflict("enrollment window for %q is closed", edition.Name)
	}

	participant := &models.Participant{
		EditionID:      edition.ID,
		Type:           req.ParticipantType,
		EducationLevel: req.EducationLevel,
		RegistrationNo: newRegistrationNo(edition.Year),
		CurrentStage:   models.StagePreparation,
		IsQualified:    true,
	}

	switch req.ParticipantType {
	case models.ParticipantMinor:
		profile, err := s.repo.GetMinorProfile(*req.MinorProfileID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("minor profile %d not found", *req.MinorProfileID)
			}
			return nil, apperrors.Internal(err, "could not load minor profile")
		}
		if profile.GuardianID != callerID {
			return nil, apperrors.Auth("minor profile %d does not belong to you", profile.ID)
		}
		participant.GuardianID = &callerID
		participant.MinorProfileID = &profile.ID
	case models.ParticipantSelf:
		participant.UserID = &callerID
	}

	if existing, err := s.repo.FindRegistration(edition.ID, participant.UserID, participant.MinorProfileID); err == nil && existing != nil {
		return nil, apperrors.Conflict("already enrolled in edition %q", edition.Name)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal(err, "could not check existing registration")
	}

	for _, subject := range req.Subjects {
		participant.Subjects = append(participant.Subjects, models.ParticipantSubject{Subject: subject})
	}

	if err := s.repo.CreateParticipant(participant); err != nil {
		return nil, apperrors.Internal(err, "could not enroll participant")
	}

	// Best-effort confirmation; a notification failure never fails the
	// enrollment itself.
	if err := s.notifier.SendEnrollmentConfirmation(callerID, edition.Name, req.Subjects); err != nil {
		log.Printf("Error sending enrollment confirmation for participant %d: %v", participant.ID, err)
	}

	return participant, nil
}

func (s *Service) GetParticipant(id uint) (*models.Participant, error) {
	participant, err := s.repo.GetParticipant(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participant %d not found", id)
		}
		return nil, apperrors.Internal(err, "could not load participant")
	}
	return participant, nil
}

func (s *Service) ListByGuardian(guardianID uint) ([]models.Participant, error) {
	participants, err := s.repo.ListByGuardian(guardianID)
	if err != nil {
		return nil, apperrors.Internal(err, "could not list participants")
	}
	return participants, nil
}

type MinorProfileRequest struct {
	FullName    string    `json:"full_name" validate:"required"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required"`
	School      string    `json:"school"`
	Grade       string    `json:"grade"`
	NationalID  string    `json:"national_id"`
}

func (s *Service) CreateMinorProfile(guardianID uint, req MinorProfileRequest) (*models.MinorProfile, error) {
	profile := &models.MinorProfile{
		GuardianID:  guardianID,
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		School:      req.School,
		Grade:       req.Grade,
		NationalID:  req.NationalID,
	}
	if err := s.repo.CreateMinorProfile(profile); err != nil {
		return nil, apperrors.Internal(err, "could not create minor profile")
	}
	return profile, nil
}

func (s *Service) ListMinorProfiles(guardianID uint) ([]models.MinorProfile, error) {
	profiles, err := s.repo.ListMinorProfiles(guardianID)
	if err != nil {
		return nil, apperrors.Internal(err, "could not list minor profiles")
	}
	return profiles, nil
}

func (s *Service) getEdition(id uint) (*models.Edition, error) {
	edition, err := s.repo.GetEdition(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("edition %d not found", id)
		}
		return nil, apperrors.Internal(err, "could not load edition")
	}
	return edition, nil
}

func newRegistrationNo(year int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("OLY-%d-%s", year, suffix)
}

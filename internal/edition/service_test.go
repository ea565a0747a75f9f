// internal/edition/service_test.go
package edition

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

type fakeRepo struct {
	editions     map[uint]*models.Edition
	nextID       uint
	participants int64
	examConfigs  int64
	deleted      []uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{editions: map[uint]*models.Edition{}, nextID: 1}
}

func (f *fakeRepo) Create(edition *models.Edition) error {
	edition.ID = f.nextID
	f.nextID++
	f.editions[edition.ID] = edition
	return nil
}

func (f *fakeRepo) GetByID(id uint) (*models.Edition, error) {
	edition, ok := f.editions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *edition
	return &copied, nil
}

func (f *fakeRepo) List() ([]models.Edition, error) {
	out := make([]models.Edition, 0, len(f.editions))
	for _, e := range f.editions {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeRepo) Update(edition *models.Edition) error {
	f.editions[edition.ID] = edition
	return nil
}

func (f *fakeRepo) Delete(id uint) error {
	delete(f.editions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) CountParticipants(editionID uint) (int64, error) {
	return f.participants, nil
}

func (f *fakeRepo) CountExamConfigs(editionID uint) (int64, error) {
	return f.examConfigs, nil
}

func validCreateRequest() CreateRequest {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return CreateRequest{
		Name:            "Kiryowa Olympiad",
		Year:            2026,
		Theme:           "Science for All",
		StartDate:       start,
		CloseDate:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EnrollmentStart: start,
		EnrollmentEnd:   start.Add(20 * 24 * time.Hour),
	}
}

func TestCreateEditionSplitsSchedule(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	edition, err := service.Create(validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edition.Status != models.EditionDraft {
		t.Errorf("new edition should be DRAFT, got %s", edition.Status)
	}
	if len(edition.Phases) != 5 {
		t.Fatalf("expected 5 phases, got %d", len(edition.Phases))
	}
	if edition.Phases[0].Stage != models.StagePreparation {
		t.Errorf("first phase should be PREPARATION, got %s", edition.Phases[0].Stage)
	}
}

func TestCreateEditionRejectsInvertedDates(t *testing.T) {
	service := NewService(newFakeRepo())

	req := validCreateRequest()
	req.CloseDate = req.StartDate.Add(-time.Hour)

	_, err := service.Create(req)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEditionRejectsEnrollmentPastQuizStart(t *testing.T) {
	service := NewService(newFakeRepo())

	req := validCreateRequest()
	// Quiz phase opens a fifth of the way in; push enrollment past it.
	req.EnrollmentEnd = req.StartDate.Add(40 * 24 * time.Hour)

	_, err := service.Create(req)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	edition, err := service.Create(validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	running := models.EditionRunning
	if _, err := service.Update(edition.ID, UpdateRequest{Status: &running}); err != nil {
		t.Fatalf("forward transition should succeed: %v", err)
	}

	open := models.EditionOpen
	_, err = service.Update(edition.ID, UpdateRequest{Status: &open})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("status regression should conflict, got %v", err)
	}

	// Repeating the current status is a no-op, not a regression.
	if _, err := service.Update(edition.ID, UpdateRequest{Status: &running}); err != nil {
		t.Fatalf("same-status update should succeed: %v", err)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	edition, err := service.Create(validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bogus := models.EditionStatus("ARCHIVED")
	_, err = service.Update(edition.ID, UpdateRequest{Status: &bogus})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteGuardedByParticipants(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)

	edition, err := service.Create(validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.participants = 3
	err = service.Delete(edition.ID)
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict with enrolled participants, got %v", err)
	}

	repo.participants = 0
	repo.examConfigs = 1
	err = service.Delete(edition.ID)
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict with existing exam configs, got %v", err)
	}

	repo.examConfigs = 0
	if err := service.Delete(edition.ID); err != nil {
		t.Fatalf("unguarded delete should succeed: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != edition.ID {
		t.Errorf("edition %d was not deleted", edition.ID)
	}
}

func TestDeleteMissingEdition(t *testing.T) {
	service := NewService(newFakeRepo())

	err := service.Delete(99)
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// internal/enrollment/repository.go
package enrollment

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"olympiad-platform/internal/models"
)

// Repository abstracts participant and minor-profile storage.
type Repository interface {
	GetEdition(id uint) (*models.Edition, error)
	FindRegistration(editionID uint, userID, minorProfileID *uint) (*models.Participant, error)
	CreateParticipant(participant *models.Participant) error
	GetParticipant(id uint) (*models.Participant, error)
	ListByGuardian(guardianID uint) ([]models.Participant, error)
	CreateMinorProfile(profile *models.MinorProfile) error
	GetMinorProfile(id uint) (*models.MinorProfile, error)
	ListMinorProfiles(guardianID uint) ([]models.MinorProfile, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) GetEdition(id uint) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.Preload("Phases").First(&edition, id).Error
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

// FindRegistration looks up an existing registration for the same identity
// in the same edition. Returns gorm.ErrRecordNotFound when absent.
func (r *GormRepository) FindRegistration(editionID uint, userID, minorProfileID *uint) (*models.Participant, error) {
	query := r.db.Where("edition_id = ?", editionID)
	switch {
	case minorProfileID != nil:
		query = query.Where("minor_profile_id = ?", *minorProfileID)
	case userID != nil:
		query = query.Where("user_id = ?", *userID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var participant models.Participant
	if err := query.First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *GormRepository) CreateParticipant(participant *models.Participant) error {
	err := r.db.Create(participant).Error
	if err != nil {
		log.Printf("Error creating participant: %v", err)
		return err
	}
	log.Printf("Enrolled participant %d (%s) in edition %d",
		participant.ID, participant.RegistrationNo, participant.EditionID)
	return nil
}

func (r *GormRepository) GetParticipant(id uint) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Preload("Subjects").First(&participant, id).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *GormRepository) ListByGuardian(guardianID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.Preload("Subjects").
		Where("guardian_id = ? OR user_id = ?", guardianID, guardianID).
		Find(&participants).Error
	if err != nil {
		log.Printf("Error listing participants for guardian %d: %v", guardianID, err)
		return nil, err
	}
	return participants, nil
}

func (r *GormRepository) CreateMinorProfile(profile *models.MinorProfile) error {
	return r.db.Create(profile).Error
}

func (r *GormRepository) GetMinorProfile(id uint) (*models.MinorProfile, error) {
	var profile models.MinorProfile
	err := r.db.First(&profile, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("Error loading minor profile %d: %v", id, err)
		return nil, err
	}
	return &profile, nil
}

func (r *GormRepository) ListMinorProfiles(guardianID uint) ([]models.MinorProfile, error) {
	var profiles []models.MinorProfile
	err := r.db.Where("guardian_id = ?", guardianID).Find(&profiles).Error
	return profiles, err
}

// internal/edition/repository.go
package edition

import (
	"log"

	"gorm.io/gorm"

	"olympiad-platform/internal/models"
)

// Repository abstracts edition storage so the service can be tested
// against a fake.
type Repository interface {
	Create(edition *models.Edition) error
	GetByID(id uint) (*models.Edition, error)
	List() ([]models.Edition, error)
	Update(edition *models.Edition) error
	Delete(id uint) error
	CountParticipants(editionID uint) (int64, error)
	CountExamConfigs(editionID uint) (int64, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(edition *models.Edition) error {
	err := r.db.Create(edition).Error
	if err != nil {
		log.Printf("Error creating edition: %v", err)
		return err
	}
	log.Printf("Created edition %d (%s %d)", edition.ID, edition.Name, edition.Year)
	return nil
}

func (r *GormRepository) GetByID(id uint) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.Preload("Phases", func(db *gorm.DB) *gorm.DB {
		return db.Order("ordinal asc")
	}).First(&edition, id).Error
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

func (r *GormRepository) List() ([]models.Edition, error) {
	var editions []models.Edition
	err := r.db.Order("year desc, id desc").Find(&editions).Error
	if err != nil {
		log.Printf("Error listing editions: %v", err)
		return nil, err
	}
	return editions, nil
}

func (r *GormRepository) Update(edition *models.Edition) error {
	err := r.db.Save(edition).Error
	if err != nil {
		log.Printf("Error updating edition %d: %v", edition.ID, err)
		return err
	}
	return nil
}

func (r *GormRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("edition_id = ?", id).Delete(&models.EditionPhase{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Edition{}, id).Error
	})
}

func (r *GormRepository) CountParticipants(editionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Participant{}).
		Where("edition_id = ?", editionID).
		Count(&count).Error
	return count, err
}

func (r *GormRepository) CountExamConfigs(editionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamConfig{}).
		Where("edition_id = ?", editionID).
		Count(&count).Error
	return count, err
}

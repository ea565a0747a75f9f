// internal/models/edition.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type Edition struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
	Name            string         `json:"name" gorm:"not null"`
	Year            int            `json:"year" gorm:"not null"`
	Theme           string         `json:"theme"`
	Venue           string         `json:"venue"`
	StartDate       time.Time      `json:"start_date"`
	CloseDate       time.Time      `json:"close_date"`
	EnrollmentStart time.Time      `json:"enrollment_start"`
	EnrollmentEnd   time.Time      `json:"enrollment_end"`
	Status          EditionStatus  `json:"status" gorm:"default:'DRAFT'"`
	Phases          []EditionPhase `json:"phases,omitempty" gorm:"foreignKey:EditionID"`
}

// EditionPhase is one of the five schedule windows of an edition. The
// windows are contiguous and together span [StartDate, CloseDate).
type EditionPhase struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	EditionID uint      `json:"edition_id" gorm:"index;not null"`
	Stage     Stage     `json:"stage" gorm:"not null"`
	Ordinal   int       `json:"ordinal" gorm:"not null"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// PhaseFor returns the schedule window for a stage, if the edition has one.
func (e *Edition) PhaseFor(stage Stage) (EditionPhase, bool) {
	for _, p := range e.Phases {
		if p.Stage == stage {
			return p, true
		}
	}
	return EditionPhase{}, false
}

// internal/models/participant.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant is one competitor registration in one edition. SELF
// participants carry a UserID; MINOR participants carry the enrolling
// GuardianID plus the MinorProfileID of the child.
type Participant struct {
	ID             uint                 `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	DeletedAt      gorm.DeletedAt       `json:"-" gorm:"index"`
	EditionID      uint                 `json:"edition_id" gorm:"index;not null"`
	Type           ParticipantType      `json:"type" gorm:"not null"`
	UserID         *uint                `json:"user_id,omitempty"`
	GuardianID     *uint                `json:"guardian_id,omitempty" gorm:"index"`
	MinorProfileID *uint                `json:"minor_profile_id,omitempty"`
	EducationLevel EducationLevel       `json:"education_level" gorm:"not null"`
	RegistrationNo string               `json:"registration_no" gorm:"unique;not null"`
	CurrentStage   Stage                `json:"current_stage" gorm:"default:'PREPARATION'"`
	IsEliminated   bool                 `json:"is_eliminated" gorm:"default:false"`
	IsQualified    bool                 `json:"is_qualified" gorm:"default:true"`
	Subjects       []ParticipantSubject `json:"subjects,omitempty" gorm:"foreignKey:ParticipantID"`
}

type ParticipantSubject struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	ParticipantID uint   `json:"participant_id" gorm:"uniqueIndex:idx_participant_subject;not null"`
	Subject       string `json:"subject" gorm:"uniqueIndex:idx_participant_subject;not null"`
}

// SubjectNames flattens the subject rows into a string slice.
func (p *Participant) SubjectNames() []string {
	names := make([]string, len(p.Subjects))
	for i, s := range p.Subjects {
		names[i] = s.Subject
	}
	return names
}

func (p *Participant) TakesSubject(subject string) bool {
	for _, s := range p.Subjects {
		if s.Subject == subject {
			return true
		}
	}
	return false
}

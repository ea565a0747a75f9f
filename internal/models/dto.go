// internal/models/dto.go
package models

import "time"

// QuestionDTO is the participant-facing question view. The correct option
// index is only included for graders.
type QuestionDTO struct {
	ID            uint         `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []OptionDTO  `json:"options"`
	MaxMarks      int          `json:"max_marks,omitempty"`
	CorrectOption *int         `json:"correct_option,omitempty"` // graders only
}

type OptionDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func (q Question) ToDTO(includeAnswer bool) QuestionDTO {
	optionDTOs := make([]OptionDTO, len(q.Options))
	for i, opt := range q.Options {
		optionDTOs[i] = OptionDTO{
			ID:   opt.ID,
			Text: opt.Text,
		}
	}

	dto := QuestionDTO{
		ID:       q.ID,
		Type:     q.Type,
		Prompt:   q.Prompt,
		Options:  optionDTOs,
		MaxMarks: q.MaxMarks,
	}
	if includeAnswer {
		dto.CorrectOption = q.CorrectOption
	}
	return dto
}

// AttemptDTO augments the raw attempt with the derived marking sub-status:
// an attempt can read SCORED for its auto-graded portion while manual marks
// are still outstanding.
type AttemptDTO struct {
	ID                  uint            `json:"id"`
	ParticipantID       uint            `json:"participant_id"`
	ExamConfigID        uint            `json:"exam_config_id"`
	Status              AttemptStatus   `json:"status"`
	StartedAt           time.Time       `json:"started_at"`
	SubmittedAt         *time.Time      `json:"submitted_at,omitempty"`
	AutoScore           int             `json:"auto_score"`
	AwaitingManualMarks bool            `json:"awaiting_manual_marks"`
	Answers             []AttemptAnswer `json:"answers,omitempty"`
	Questions           []QuestionDTO   `json:"questions,omitempty"`
}

// ExamConfigSummary is the admin listing row: config fields joined with
// the edition name and a question count.
type ExamConfigSummary struct {
	ID              uint           `json:"id"`
	EditionID       uint           `json:"edition_id"`
	EditionName     string         `json:"edition_name"`
	Stage           Stage          `json:"stage"`
	EducationLevel  EducationLevel `json:"education_level"`
	Subject         string         `json:"subject"`
	DurationMinutes int            `json:"duration_minutes"`
	StartsAt        time.Time      `json:"starts_at"`
	EndsAt          time.Time      `json:"ends_at"`
	QuestionCount   int            `json:"question_count"`
}

// MarkingTask is one pending manual-grading item: a submitted attempt with
// at least one theory/practical question that has no recorded mark yet.
type MarkingTask struct {
	AttemptID      uint           `json:"attempt_id"`
	ParticipantID  uint           `json:"participant_id"`
	RegistrationNo string         `json:"registration_no"`
	EditionID      uint           `json:"edition_id"`
	EducationLevel EducationLevel `json:"education_level"`
	Subject        string         `json:"subject"`
	Stage          Stage          `json:"stage"`
	QuestionID     uint           `json:"question_id"`
	Prompt         string         `json:"prompt"`
	MaxMarks       int            `json:"max_marks"`
}

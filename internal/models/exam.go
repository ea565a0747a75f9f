// internal/models/exam.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Question lives in the question bank, keyed by subject and level. QUIZ
// questions carry a CorrectOption index; THEORY and PRACTICAL questions
// carry MaxMarks and wait for a manual mark instead.
type Question struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `json:"-" gorm:"index"`
	Subject        string           `json:"subject" gorm:"index;not null"`
	EducationLevel EducationLevel   `json:"education_level" gorm:"index;not null"`
	Type           QuestionType     `json:"type" gorm:"not null"`
	Difficulty     string           `json:"difficulty"`
	Prompt         string           `json:"prompt" gorm:"not null"`
	Options        []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CorrectOption  *int             `json:"correct_option,omitempty"`
	MaxMarks       int              `json:"max_marks"`
}

// AutoGradable reports whether the question can be scored by comparing the
// selected option index against CorrectOption.
func (q *Question) AutoGradable() bool {
	return q.CorrectOption != nil
}

type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	Position   int    `json:"position" gorm:"not null"`
	Text       string `json:"text" gorm:"not null"`
}

// ExamConfig defines one exam instance for an (edition, stage, level,
// subject) tuple. The tuple is unique; deletion is refused while any
// attempt references the config.
type ExamConfig struct {
	ID                   uint                `json:"id" gorm:"primaryKey"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	DeletedAt            gorm.DeletedAt      `json:"-" gorm:"index"`
	EditionID            uint                `json:"edition_id" gorm:"uniqueIndex:idx_exam_config_tuple;not null"`
	Stage                Stage               `json:"stage" gorm:"uniqueIndex:idx_exam_config_tuple;not null"`
	EducationLevel       EducationLevel      `json:"education_level" gorm:"uniqueIndex:idx_exam_config_tuple;not null"`
	Subject              string              `json:"subject" gorm:"uniqueIndex:idx_exam_config_tuple;not null"`
	DurationMinutes      int                 `json:"duration_minutes" gorm:"not null"`
	StartsAt             time.Time           `json:"starts_at"`
	EndsAt               time.Time           `json:"ends_at"`
	RandomizeQuestions   bool                `json:"randomize_questions"`
	RandomizeOptions     bool                `json:"randomize_options"`
	ShowScoreImmediately bool                `json:"show_score_immediately"`
	ScoreReleaseAt       *time.Time          `json:"score_release_at,omitempty"`
	Questions            []ExamConfigQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamConfigID"`
}

type ExamConfigQuestion struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	ExamConfigID uint     `json:"exam_config_id" gorm:"uniqueIndex:idx_config_question;not null"`
	QuestionID   uint     `json:"question_id" gorm:"uniqueIndex:idx_config_question;not null"`
	Position     int      `json:"position" gorm:"not null"`
	Question     Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// QuestionList returns the config's questions in position order.
func (c *ExamConfig) QuestionList() []Question {
	out := make([]Question, len(c.Questions))
	for i, cq := range c.Questions {
		out[i] = cq.Question
	}
	return out
}

// HasManualQuestions reports whether any question in the config requires a
// manual mark before the attempt score is final.
func (c *ExamConfig) HasManualQuestions() bool {
	for _, cq := range c.Questions {
		if cq.Question.Type.ManuallyGraded() {
			return true
		}
	}
	return false
}

// MaxPossibleScore is one point per auto-graded question plus the max
// marks of every manually graded question.
func (c *ExamConfig) MaxPossibleScore() int {
	total := 0
	for _, cq := range c.Questions {
		if cq.Question.Type.ManuallyGraded() {
			total += cq.Question.MaxMarks
		} else if cq.Question.AutoGradable() {
			total++
		}
	}
	return total
}

// ExamAttempt is one participant's run through one exam config. At most
// one attempt exists per (participant, config) pair unless an admin resets
// it. State moves one way only; transitions are guarded by conditional
// updates at the repository.
type ExamAttempt struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
	ParticipantID uint            `json:"participant_id" gorm:"uniqueIndex:idx_attempt_pair;not null"`
	ExamConfigID  uint            `json:"exam_config_id" gorm:"uniqueIndex:idx_attempt_pair;not null"`
	Status        AttemptStatus   `json:"status" gorm:"default:'IN_PROGRESS'"`
	StartedAt     time.Time       `json:"started_at"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty"`
	AutoScore     int             `json:"auto_score"`
	Answers       []AttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

type AttemptAnswer struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	AttemptID      uint   `json:"attempt_id" gorm:"uniqueIndex:idx_attempt_answer;not null"`
	QuestionID     uint   `json:"question_id" gorm:"uniqueIndex:idx_attempt_answer;not null"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	FreeResponse   string `json:"free_response,omitempty"`
}

// ManualMark is an admin-entered score for one manually graded question of
// one attempt. Upserted on (attempt, question).
type ManualMark struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AttemptID    uint      `json:"attempt_id" gorm:"uniqueIndex:idx_manual_mark;not null"`
	QuestionID   uint      `json:"question_id" gorm:"uniqueIndex:idx_manual_mark;not null"`
	MarksAwarded int       `json:"marks_awarded" gorm:"not null"`
	GradedBy     uint      `json:"graded_by" gorm:"not null"`
	Feedback     string    `json:"feedback"`
}

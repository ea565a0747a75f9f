// internal/exam/service.go
package exam

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

// submitGrace pads the server-side deadline so a client auto-submit fired
// exactly at countdown zero is not rejected for clock skew.
const submitGrace = 30 * time.Second

type Service struct {
	configs      ConfigRepository
	attempts     AttemptRepository
	participants ParticipantReader
	now          func() time.Time
}

func NewService(configs ConfigRepository, attempts AttemptRepository, participants ParticipantReader) *Service {
	return &Service{
		configs:      configs,
		attempts:     attempts,
		participants: participants,
		now:          time.Now,
	}
}

// NewServiceWithClock is test-only for deterministic windows and deadlines.
func NewServiceWithClock(configs ConfigRepository, attempts AttemptRepository, participants ParticipantReader, now func() time.Time) *Service {
	s := NewService(configs, attempts, participants)
	s.now = now
	return s
}

type CreateConfigRequest struct {
	EditionID            uint                  `json:"edition_id" validate:"required"`
	Stage                models.Stage          `json:"stage" validate:"required"`
	EducationLevel       models.EducationLevel `json:"education_level" validate:"required"`
	Subject              string                `json:"subject" validate:"required"`
	DurationMinutes      int                   `json:"duration_minutes" validate:"required,gt=0"`
	StartsAt             time.Time             `json:"start_datetime" validate:"required"`
	EndsAt               time.Time             `json:"end_datetime" validate:"required"`
	QuestionIDs          []uint                `json:"question_ids" validate:"required,min=1"`
	RandomizeQuestions   bool                  `json:"randomize_questions"`
	RandomizeOptions     bool                  `json:"randomize_options"`
	ShowScoreImmediately bool                  `json:"show_score_immediately"`
	ScoreReleaseAt       *time.Time            `json:"score_release_datetime,omitempty"`
}

func (s *Service) CreateConfig(req CreateConfigRequest) (*models.ExamConfig, error) {
	if !req.Stage.Valid() {
		return nil, apperrors.Validation("unknown stage %q", req.Stage)
	}
	if !req.Stage.Competitive() {
		return nil, apperrors.Validation("stage %s has no exams", req.Stage)
	}
	if !req.EducationLevel.Valid() {
		return nil, apperrors.Validation("unknown education level %q", req.EducationLevel)
	}
	if !req.EducationLevel.AllowsSubject(req.Subject) {
		return nil, apperrors.Validation("subject %q is not offered at %s level", req.Subject, req.EducationLevel)
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, apperrors.Validation("exam window end must be after start")
	}

	exists, err := s.configs.EditionExists(req.EditionID)
	if err != nil {
		return nil, apperrors.Internal(err, "could not check edition")
	}
	if !exists {
		return nil, apperrors.NotFound("edition %d not found", req.EditionID)
	}

	questions, err := s.configs.QuestionsByIDs(req.QuestionIDs)
	if err != nil {
		return nil, apperrors.Internal(err, "could not load questions")
	}
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	config := &models.ExamConfig{
		EditionID:            req.EditionID,
		Stage:                req.Stage,
		EducationLevel:       req.EducationLevel,
		Subject:              req.Subject,
		DurationMinutes:      req.DurationMinutes,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		RandomizeQuestions:   req.RandomizeQuestions,
		RandomizeOptions:     req.RandomizeOptions,
		ShowScoreImmediately: req.ShowScoreImmediately,
		ScoreReleaseAt:       req.ScoreReleaseAt,
	}
	for i, qid := range req.QuestionIDs {
		question, ok := byID[qid]
		if !ok {
			return nil, apperrors.NotFound("question %d not found", qid)
		}
		if question.Subject != req.Subject || question.EducationLevel != req.EducationLevel {
			return nil, apperrors.Validation("question %d does not match %s/%s", qid, req.EducationLevel, req.Subject)
		}
		config.Questions = append(config.Questions, models.ExamConfigQuestion{
			QuestionID: qid,
			Position:   i,
		})
	}

	if err := s.configs.CreateConfig(config); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("an exam config already exists for this edition/stage/level/subject")
		}
		return nil, apperrors.Internal(err, "could not create exam config")
	}
	return config, nil
}

func (s *Service) ListConfigs(editionID uint, stage models.Stage) ([]models.ExamConfigSummary, error) {
	if stage != "" && !stage.Valid() {
		return nil, apperrors.Validation("unknown stage %q", stage)
	}
	summaries, err := s.configs.ListConfigs(editionID, stage)
	if err != nil {
		return nil, apperrors.Internal(err, "could not list exam configs")
	}
	return summaries, nil
}

// DeleteConfig refuses to delete a config that attempts reference.
func (s *Service) DeleteConfig(id uint) error {
	if _, err := s.getConfig(id); err != nil {
		return err
	}

	attempts, err := s.configs.CountAttempts(id)
	if err != nil {
		return apperrors.Internal(err, "could not count attempts")
	}
	if attempts > 0 {
		return apperrors.Conflict("cannot delete exam config with existing attempts")
	}

	if err := s.configs.DeleteConfig(id); err != nil {
		return apperrors.Internal(err, "could not delete exam config")
	}
	return nil
}

type QuestionRequest struct {
	Subject        string                `json:"subject" validate:"required"`
	EducationLevel models.EducationLevel `json:"education_level" validate:"required"`
	Type           models.QuestionType   `json:"type" validate:"required"`
	Difficulty     string                `json:"difficulty"`
	Prompt         string                `json:"prompt" validate:"required"`
	Options        []string              `json:"options"`
	CorrectOption  *int                  `json:"correct_option,omitempty"`
	MaxMarks       int                   `json:"max_marks"`
}

func (s *Service) CreateQuestion(req QuestionRequest) (*models.Question, error) {
	if !req.Type.Valid() {
		return nil, apperrors.Validation("unknown question type %q", req.Type)
	}
	if !req.EducationLevel.AllowsSubject(req.Subject) {
		return nil, apperrors.Validation("subject %q is not offered at %s level", req.Subject, req.EducationLevel)
	}

	question := &models.Question{
		Subject:        req.Subject,
		EducationLevel: req.EducationLevel,
		Type:           req.Type,
		Difficulty:     req.Difficulty,
		Prompt:         req.Prompt,
		MaxMarks:       req.MaxMarks,
	}

	if req.Type.ManuallyGraded() {
		if req.MaxMarks <= 0 {
			return nil, apperrors.Validation("manually graded questions require max marks")
		}
	} else {
		if req.CorrectOption == nil {
			return nil, apperrors.Validation("quiz questions require a correct option index")
		}
		if len(req.Options) < 2 {
			return nil, apperrors.Validation("quiz questions require at least two options")
		}
		if *req.CorrectOption < 0 || *req.CorrectOption >= len(req.Options) {
			return nil, apperrors.Validation("correct option index out of range")
		}
		question.CorrectOption = req.CorrectOption
	}
	for i, text := range req.Options {
		question.Options = append(question.Options, models.QuestionOption{Position: i, Text: text})
	}

	if err := s.configs.CreateQuestion(question); err != nil {
		return nil, apperrors.Internal(err, "could not create question")
	}
	return question, nil
}

func (s *Service) ListQuestions(subject string, level models.EducationLevel) ([]models.Question, error) {
	questions, err := s.configs.ListQuestions(subject, level)
	if err != nil {
		return nil, apperrors.Internal(err, "could not list questions")
	}
	return questions, nil
}

// StartAttempt opens an IN_PROGRESS attempt for the (participant, config)
// pair. At most one attempt per pair exists unless an admin resets it.
func (s *Service) StartAttempt(participantID, configID uint) (*models.ExamAttempt, error) {
	config, err := s.getConfig(configID)
	if err != nil {
		return nil, err
	}

	participant, err := s.participants.GetParticipant(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participant %d not found", participantID)
		}
		return nil, apperrors.Internal(err, "could not load participant")
	}

	if participant.EditionID != config.EditionID {
		return nil, apperrors.Validation("participant is not enrolled in this edition")
	}
	if participant.EducationLevel != config.EducationLevel {
		return nil, apperrors.Validation("exam is for %s level participants", config.EducationLevel)
	}
	if !participant.TakesSubject(config.Subject) {
		return nil, apperrors.Validation("participant is not registered for %s", config.Subject)
	}
	if participant.IsEliminated {
		return nil, apperrors.Conflict("participant has been eliminated from the competition")
	}

	// Participants sit the exam of the stage they are at. The pointer rests
	// on PREPARATION until the quiz verdict, so the quiz is the one exam a
	// PREPARATION participant may open.
	expected := participant.CurrentStage
	if !expected.Competitive() {
		expected = models.StageQuiz
	}
	if config.Stage != expected {
		return nil, apperrors.Conflict("participant is at the %s stage and cannot sit the %s exam",
			participant.CurrentStage, config.Stage)
	}

	now := s.now()
	if now.Before(config.StartsAt) || now.After(config.EndsAt) {
		return nil, apperrors.Conflict("exam window is not open")
	}

	if _, err := s.attempts.FindAttempt(participantID, configID); err == nil {
		return nil, apperrors.Conflict("an attempt already exists for this exam")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal(err, "could not check existing attempt")
	}

	attempt := &models.ExamAttempt{
		ParticipantID: participantID,
		ExamConfigID:  configID,
		Status:        models.AttemptInProgress,
		StartedAt:     now,
	}
	if err := s.attempts.CreateAttempt(attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("an attempt already exists for this exam")
		}
		return nil, apperrors.Internal(err, "could not create attempt")
	}

	log.Printf("Started attempt %d: participant %d, config %d", attempt.ID, participantID, configID)
	return attempt, nil
}

type AnswerInput struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	FreeResponse   string `json:"free_response,omitempty"`
}

func toAnswerRows(inputs []AnswerInput) []models.AttemptAnswer {
	rows := make([]models.AttemptAnswer, len(inputs))
	for i, in := range inputs {
		rows[i] = models.AttemptAnswer{
			QuestionID:     in.QuestionID,
			SelectedOption: in.SelectedOption,
			FreeResponse:   in.FreeResponse,
		}
	}
	return rows
}

// SaveAnswers upserts the answer map of an in-progress attempt. May be
// called any number of times before submission.
func (s *Service) SaveAnswers(attemptID uint, answers []AnswerInput) error {
	attempt, err := s.getAttempt(attemptID)
	if err != nil {
		return err
	}
	if attempt.Status != models.AttemptInProgress {
		return apperrors.Conflict("attempt is no longer in progress")
	}

	if err := s.attempts.UpsertAnswers(attemptID, toAnswerRows(answers)); err != nil {
		return apperrors.Internal(err, "could not save answers")
	}
	return nil
}

// Submit freezes the answer map, transitions IN_PROGRESS -> SUBMITTED via
// a conditional update, scores the auto-gradable questions, and moves to
// SCORED. Late submissions (past start + duration + grace) are rejected.
func (s *Service) Submit(attemptID uint, answers []AnswerInput) (*models.AttemptDTO, error) {
	attempt, err := s.getAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, apperrors.Conflict("attempt has already been submitted")
	}

	config, err := s.getConfig(attempt.ExamConfigID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	deadline := attempt.StartedAt.Add(time.Duration(config.DurationMinutes)*time.Minute + submitGrace)
	if now.After(deadline) {
		return nil, apperrors.DeadlineExceeded("submission deadline has passed")
	}

	if len(answers) > 0 {
		if err := s.attempts.UpsertAnswers(attemptID, toAnswerRows(answers)); err != nil {
			return nil, apperrors.Internal(err, "could not save answers")
		}
	}

	submitted, err := s.attempts.MarkSubmitted(attemptID, now)
	if err != nil {
		return nil, apperrors.Internal(err, "could not submit attempt")
	}
	if !submitted {
		// Lost the race against a concurrent submit.
		return nil, apperrors.Conflict("attempt has already been submitted")
	}

	// Reload to score the frozen answer map.
	attempt, err = s.getAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	autoScore := scoreAutoGraded(config.QuestionList(), attempt.Answers)

	if _, err := s.attempts.MarkScored(attemptID, autoScore); err != nil {
		return nil, apperrors.Internal(err, "could not score attempt")
	}

	attempt.Status = models.AttemptScored
	attempt.AutoScore = autoScore
	log.Printf("Scored attempt %d: auto score %d", attemptID, autoScore)

	dto := s.buildDTO(attempt, config, false, false)
	return &dto, nil
}

// GetAttempt returns the attempt view, optionally with the question set
// rendered per the config's display options. The answer key is never
// included on this path.
func (s *Service) GetAttempt(attemptID uint, includeQuestions bool) (*models.AttemptDTO, error) {
	attempt, err := s.getAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	config, err := s.getConfig(attempt.ExamConfigID)
	if err != nil {
		return nil, err
	}

	dto := s.buildDTO(attempt, config, includeQuestions, false)
	return &dto, nil
}

// ResetAttempt is the explicit admin escape hatch from the one-attempt
// invariant: it removes the attempt, its answers, and its marks.
func (s *Service) ResetAttempt(attemptID uint) error {
	if _, err := s.getAttempt(attemptID); err != nil {
		return err
	}
	if err := s.attempts.DeleteAttempt(attemptID); err != nil {
		return apperrors.Internal(err, "could not reset attempt")
	}
	log.Printf("Reset attempt %d", attemptID)
	return nil
}

func (s *Service) buildDTO(attempt *models.ExamAttempt, config *models.ExamConfig, includeQuestions, includeAnswers bool) models.AttemptDTO {
	dto := models.AttemptDTO{
		ID:            attempt.ID,
		ParticipantID: attempt.ParticipantID,
		ExamConfigID:  attempt.ExamConfigID,
		Status:        attempt.Status,
		StartedAt:     attempt.StartedAt,
		SubmittedAt:   attempt.SubmittedAt,
		AutoScore:     attempt.AutoScore,
		Answers:       attempt.Answers,
	}

	// SCORED only covers the auto-graded portion; the score is not final
	// until every manual question has a recorded mark.
	if attempt.Status == models.AttemptScored && config.HasManualQuestions() {
		manualCount := 0
		for _, cq := range config.Questions {
			if cq.Question.Type.ManuallyGraded() {
				manualCount++
			}
		}
		marked, err := s.attempts.CountManualMarks(attempt.ID)
		if err != nil {
			log.Printf("Error counting manual marks for attempt %d: %v", attempt.ID, err)
		}
		dto.AwaitingManualMarks = marked < int64(manualCount)
	}

	if includeQuestions {
		dto.Questions = presentQuestions(config, attempt.ID, includeAnswers)
	}
	return dto
}

func (s *Service) getConfig(id uint) (*models.ExamConfig, error) {
	config, err := s.configs.GetConfig(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("exam config %d not found", id)
		}
		return nil, apperrors.Internal(err, "could not load exam config")
	}
	return config, nil
}

func (s *Service) getAttempt(id uint) (*models.ExamAttempt, error) {
	attempt, err := s.attempts.GetAttempt(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("attempt %d not found", id)
		}
		return nil, apperrors.Internal(err, "could not load attempt")
	}
	return attempt, nil
}

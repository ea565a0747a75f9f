// internal/models/enums.go
package models

// EditionStatus is the lifecycle state of an olympiad edition.
// Transitions are forward-only: DRAFT -> OPEN -> RUNNING -> COMPLETED.
type EditionStatus string

const (
	EditionDraft     EditionStatus = "DRAFT"
	EditionOpen      EditionStatus = "OPEN"
	EditionRunning   EditionStatus = "RUNNING"
	EditionCompleted EditionStatus = "COMPLETED"
)

var editionStatusOrder = map[EditionStatus]int{
	EditionDraft:     0,
	EditionOpen:      1,
	EditionRunning:   2,
	EditionCompleted: 3,
}

func (s EditionStatus) Valid() bool {
	_, ok := editionStatusOrder[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Staying on the same status is allowed.
func (s EditionStatus) CanTransitionTo(next EditionStatus) bool {
	from, ok := editionStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := editionStatusOrder[next]
	if !ok {
		return false
	}
	return to >= from
}

// Stage is one of the five sequential competition rounds.
type Stage string

const (
	StagePreparation  Stage = "PREPARATION"
	StageQuiz         Stage = "QUIZ"
	StageBronze       Stage = "BRONZE"
	StageSilver       Stage = "SILVER"
	StageGoldenFinale Stage = "GOLDEN_FINALE"
)

var stageOrder = []Stage{
	StagePreparation,
	StageQuiz,
	StageBronze,
	StageSilver,
	StageGoldenFinale,
}

// StageOrder returns the five stages in competition order.
func StageOrder() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

func (s Stage) Valid() bool {
	return s.Ordinal() >= 0
}

// Ordinal returns the stage position 0..4, or -1 for an unknown stage.
func (s Stage) Ordinal() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. ok is false for GOLDEN_FINALE and
// unknown stages.
func (s Stage) Next() (Stage, bool) {
	i := s.Ordinal()
	if i < 0 || i >= len(stageOrder)-1 {
		return s, false
	}
	return stageOrder[i+1], true
}

// Competitive reports whether exams are sat at this stage. PREPARATION is
// orientation only.
func (s Stage) Competitive() bool {
	return s.Valid() && s != StagePreparation
}

// EducationLevel groups participants into Primary, O-Level and A-Level
// streams, each with its own subject list and age band.
type EducationLevel string

const (
	LevelPrimary EducationLevel = "PRIMARY"
	LevelOLevel  EducationLevel = "O_LEVEL"
	LevelALevel  EducationLevel = "A_LEVEL"
)

type LevelSpec struct {
	Subjects []string
	MinAge   int
	MaxAge   int
}

var levelSpecs = map[EducationLevel]LevelSpec{
	LevelPrimary: {
		Subjects: []string{"Mathematics", "Science", "English"},
		MinAge:   6,
		MaxAge:   13,
	},
	LevelOLevel: {
		Subjects: []string{"Mathematics", "Physics", "Chemistry", "Biology"},
		MinAge:   12,
		MaxAge:   17,
	},
	LevelALevel: {
		Subjects: []string{"Mathematics", "Physics", "Chemistry", "Biology", "ICT"},
		MinAge:   16,
		MaxAge:   20,
	},
}

func (l EducationLevel) Valid() bool {
	_, ok := levelSpecs[l]
	return ok
}

// ValidSubjects returns the subject list offered at this level.
func (l EducationLevel) ValidSubjects() []string {
	spec, ok := levelSpecs[l]
	if !ok {
		return nil
	}
	out := make([]string, len(spec.Subjects))
	copy(out, spec.Subjects)
	return out
}

func (l EducationLevel) AllowsSubject(subject string) bool {
	spec, ok := levelSpecs[l]
	if !ok {
		return false
	}
	for _, s := range spec.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// ParticipantType distinguishes an adult enrolling themselves from a minor
// enrolled by a guardian.
type ParticipantType string

const (
	ParticipantSelf  ParticipantType = "SELF"
	ParticipantMinor ParticipantType = "MINOR"
)

func (t ParticipantType) Valid() bool {
	return t == ParticipantSelf || t == ParticipantMinor
}

// QuestionType separates auto-graded quiz questions from manually graded
// theory and practical questions.
type QuestionType string

const (
	QuestionQuiz      QuestionType = "QUIZ"
	QuestionTheory    QuestionType = "THEORY"
	QuestionPractical QuestionType = "PRACTICAL"
)

func (t QuestionType) Valid() bool {
	return t == QuestionQuiz || t == QuestionTheory || t == QuestionPractical
}

// ManuallyGraded reports whether the question awaits an admin mark instead
// of being compared against a correct option index.
func (t QuestionType) ManuallyGraded() bool {
	return t == QuestionTheory || t == QuestionPractical
}

// AttemptStatus is the exam attempt state machine. Transitions are
// one-directional: NOT_STARTED -> IN_PROGRESS -> SUBMITTED -> SCORED.
type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "NOT_STARTED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptScored     AttemptStatus = "SCORED"
)

// Role separates platform administrators from guardians.
const (
	RoleAdmin    = "admin"
	RoleGuardian = "guardian"
)

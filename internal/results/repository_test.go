// internal/results/repository_test.go
package results

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"olympiad-platform/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("could not open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Participant{},
		&models.Question{},
		&models.ExamConfig{},
		&models.ExamConfigQuestion{},
		&models.ExamAttempt{},
		&models.ManualMark{},
		&models.RankingEntry{},
	)
	if err != nil {
		t.Fatalf("could not migrate test database: %v", err)
	}
	return db
}

func rankingEntry(participantID uint, rank int) models.RankingEntry {
	return models.RankingEntry{
		EditionID:      1,
		EducationLevel: models.LevelOLevel,
		Subject:        "Mathematics",
		Stage:          models.StageQuiz,
		ParticipantID:  participantID,
		Score:          10 - rank,
		MaxScore:       10,
		RankPosition:   rank,
		ComputedAt:     time.Now().UTC(),
	}
}

func TestReplaceRankingsWholesale(t *testing.T) {
	repo := NewRepository(testDB(t))

	first := []models.RankingEntry{rankingEntry(1, 1), rankingEntry(2, 2), rankingEntry(3, 3)}
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, first); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	second := []models.RankingEntry{rankingEntry(2, 1)}
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, second); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	entries, err := repo.Rankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, 0)
	if err != nil {
		t.Fatalf("could not load rankings: %v", err)
	}
	if len(entries) != 1 || entries[0].ParticipantID != 2 {
		t.Fatalf("replace must swap the whole set, got %d entries", len(entries))
	}
}

func TestReplaceRankingsScopedToTuple(t *testing.T) {
	repo := NewRepository(testDB(t))

	math := []models.RankingEntry{rankingEntry(1, 1)}
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, math); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	physics := rankingEntry(1, 1)
	physics.Subject = "Physics"
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Physics", models.StageQuiz, []models.RankingEntry{physics}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	// Re-replacing the math tuple must not disturb physics.
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, nil); err != nil {
		t.Fatalf("empty replace failed: %v", err)
	}

	entries, _ := repo.Rankings(1, models.LevelOLevel, "Physics", models.StageQuiz, 0)
	if len(entries) != 1 {
		t.Fatalf("other tuples must be untouched, got %d entries", len(entries))
	}
	entries, _ = repo.Rankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, 0)
	if len(entries) != 0 {
		t.Fatalf("math tuple should be empty, got %d entries", len(entries))
	}
}

func TestRankingsLimit(t *testing.T) {
	repo := NewRepository(testDB(t))

	set := []models.RankingEntry{rankingEntry(3, 3), rankingEntry(1, 1), rankingEntry(2, 2)}
	if err := repo.ReplaceRankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, set); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	entries, err := repo.Rankings(1, models.LevelOLevel, "Mathematics", models.StageQuiz, 2)
	if err != nil {
		t.Fatalf("could not load rankings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RankPosition != 1 || entries[1].RankPosition != 2 {
		t.Errorf("entries must come back in rank order")
	}
}

func seedParticipant(t *testing.T, db *gorm.DB, regNo string, stage models.Stage) *models.Participant {
	t.Helper()
	participant := &models.Participant{
		EditionID:      1,
		Type:           models.ParticipantSelf,
		EducationLevel: models.LevelOLevel,
		RegistrationNo: regNo,
		CurrentStage:   stage,
	}
	if err := db.Create(participant).Error; err != nil {
		t.Fatalf("could not seed participant: %v", err)
	}
	return participant
}

func TestAdvanceAndEliminateFreezeOutcomes(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	participant := seedParticipant(t, db, "OLY-2026-AAAA1111", models.StagePreparation)

	// Passing the quiz moves a freshly enrolled participant forward.
	if err := repo.AdvanceParticipant(participant.ID, models.StageQuiz, models.StageBronze); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	var reloaded models.Participant
	db.First(&reloaded, participant.ID)
	if reloaded.CurrentStage != models.StageBronze || reloaded.IsEliminated {
		t.Fatalf("advance should move the stage, got %+v", reloaded)
	}

	if err := repo.EliminateParticipant(participant.ID, models.StageBronze); err != nil {
		t.Fatalf("eliminate failed: %v", err)
	}
	db.First(&reloaded, participant.ID)
	if !reloaded.IsEliminated || reloaded.CurrentStage != models.StageBronze {
		t.Fatalf("elimination should freeze the stage, got %+v", reloaded)
	}

	// A later recompute cannot resurrect or move an eliminated participant.
	if err := repo.AdvanceParticipant(participant.ID, models.StageBronze, models.StageSilver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.First(&reloaded, participant.ID)
	if !reloaded.IsEliminated || reloaded.CurrentStage != models.StageBronze {
		t.Fatalf("eliminated participant must stay frozen, got %+v", reloaded)
	}
}

func TestAdvanceNeverRegressesStage(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	// Already at SILVER; re-running the quiz rankings must leave them alone.
	participant := seedParticipant(t, db, "OLY-2026-AAAA1111", models.StageSilver)

	if err := repo.AdvanceParticipant(participant.ID, models.StageQuiz, models.StageBronze); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var reloaded models.Participant
	db.First(&reloaded, participant.ID)
	if reloaded.CurrentStage != models.StageSilver {
		t.Fatalf("quiz recompute dragged the stage back to %s", reloaded.CurrentStage)
	}

	// Nor may an earlier phase eliminate someone who progressed past it.
	if err := repo.EliminateParticipant(participant.ID, models.StageQuiz); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.First(&reloaded, participant.ID)
	if reloaded.IsEliminated {
		t.Fatalf("quiz recompute eliminated a participant already at %s", reloaded.CurrentStage)
	}
}

func TestScoredAttemptsAggregatesManualMarks(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	participants := []*models.Participant{
		{EditionID: 1, Type: models.ParticipantSelf, EducationLevel: models.LevelOLevel, RegistrationNo: "OLY-2026-AAAA1111", CurrentStage: models.StageQuiz},
		{EditionID: 1, Type: models.ParticipantSelf, EducationLevel: models.LevelOLevel, RegistrationNo: "OLY-2026-BBBB2222", CurrentStage: models.StageQuiz},
	}
	for _, p := range participants {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("could not seed participant: %v", err)
		}
	}

	submittedAt := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	attempts := []*models.ExamAttempt{
		{ParticipantID: participants[0].ID, ExamConfigID: 1, Status: models.AttemptScored, AutoScore: 6, SubmittedAt: &submittedAt},
		{ParticipantID: participants[1].ID, ExamConfigID: 1, Status: models.AttemptSubmitted, AutoScore: 9, SubmittedAt: &submittedAt},
	}
	for _, a := range attempts {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("could not seed attempt: %v", err)
		}
	}
	marks := []*models.ManualMark{
		{AttemptID: attempts[0].ID, QuestionID: 11, MarksAwarded: 7, GradedBy: 1},
		{AttemptID: attempts[0].ID, QuestionID: 12, MarksAwarded: 5, GradedBy: 1},
	}
	for _, m := range marks {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("could not seed mark: %v", err)
		}
	}

	rows, err := repo.ScoredAttempts(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the SCORED attempt qualifies; its total folds in both marks.
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].TotalScore != 18 {
		t.Errorf("expected total 6+7+5=18, got %d", rows[0].TotalScore)
	}
	if rows[0].ManualMarked != 2 {
		t.Errorf("expected 2 manual marks counted, got %d", rows[0].ManualMarked)
	}
	if rows[0].RegistrationNo != "OLY-2026-AAAA1111" {
		t.Errorf("unexpected registration no %q", rows[0].RegistrationNo)
	}
}

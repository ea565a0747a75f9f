// internal/results/ranking_test.go
package results

import (
	"testing"
	"time"

	"olympiad-platform/internal/models"
)

func row(participantID uint, score int, submittedAt time.Time) ScoredRow {
	return ScoredRow{
		AttemptID:     participantID,
		ParticipantID: participantID,
		TotalScore:    score,
		SubmittedAt:   submittedAt,
	}
}

func TestBuildRankingsOrderAndDenseRanks(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []ScoredRow{
		row(1, 7, base),
		row(2, 9, base),
		row(3, 7, base),
		row(4, 5, base),
	}

	entries := buildRankings(rows, 10, base)

	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	wantOrder := []uint{2, 1, 3, 4}
	wantRanks := []int{1, 2, 2, 3}
	for i, entry := range entries {
		if entry.ParticipantID != wantOrder[i] {
			t.Errorf("position %d: expected participant %d, got %d", i, wantOrder[i], entry.ParticipantID)
		}
		if entry.RankPosition != wantRanks[i] {
			t.Errorf("position %d: expected rank %d, got %d", i, wantRanks[i], entry.RankPosition)
		}
	}
}

func TestBuildRankingsTieBreaks(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []ScoredRow{
		row(30, 8, base.Add(5*time.Minute)),
		row(10, 8, base),
		row(20, 8, base),
	}

	entries := buildRankings(rows, 10, base)

	// Earlier submission first, then lower participant ID.
	wantOrder := []uint{10, 20, 30}
	for i, entry := range entries {
		if entry.ParticipantID != wantOrder[i] {
			t.Errorf("position %d: expected participant %d, got %d", i, wantOrder[i], entry.ParticipantID)
		}
		if entry.RankPosition != 1 {
			t.Errorf("equal scores must share rank 1, got %d", entry.RankPosition)
		}
	}
}

func TestBuildRankingsPercentile(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Ten attempts, scores 1..10: the top scorer has everyone at or below.
	var rows []ScoredRow
	for i := 1; i <= 10; i++ {
		rows = append(rows, row(uint(i), i, base))
	}

	entries := buildRankings(rows, 10, base)

	if entries[0].Percentile != 100 {
		t.Errorf("top scorer should be at percentile 100, got %v", entries[0].Percentile)
	}
	if entries[len(entries)-1].Percentile != 10 {
		t.Errorf("bottom scorer should be at percentile 10, got %v", entries[len(entries)-1].Percentile)
	}
}

func TestBuildRankingsDeterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []ScoredRow{
		row(1, 6, base), row(2, 9, base), row(3, 6, base), row(4, 2, base),
	}

	first := buildRankings(rows, 10, base)
	second := buildRankings(rows, 10, base)

	for i := range first {
		if first[i].ParticipantID != second[i].ParticipantID || first[i].RankPosition != second[i].RankPosition {
			t.Fatalf("recompute on unchanged input must be identical")
		}
	}
}

func TestBuildRankingsEmpty(t *testing.T) {
	entries := buildRankings(nil, 10, time.Now())
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func entry(score, maxScore int, percentile float64) models.RankingEntry {
	return models.RankingEntry{Score: score, MaxScore: maxScore, Percentile: percentile}
}

func TestQuizCutoffAbsoluteOnly(t *testing.T) {
	cutoff, ok := CutoffFor(models.StageQuiz)
	if !ok {
		t.Fatalf("QUIZ must have a cutoff")
	}

	if !cutoff.Advances(entry(7, 10, 5)) {
		t.Errorf("70%% should advance from QUIZ regardless of percentile")
	}
	if cutoff.Advances(entry(6, 10, 99)) {
		t.Errorf("69%% must not advance from QUIZ even at a high percentile")
	}
}

func TestBronzeCutoffBothConditions(t *testing.T) {
	cutoff, ok := CutoffFor(models.StageBronze)
	if !ok {
		t.Fatalf("BRONZE must have a cutoff")
	}

	// 65% but bottom of the field: score passes, percentile fails.
	if cutoff.Advances(entry(65, 100, 20)) {
		t.Errorf("low percentile must eliminate despite a passing score")
	}
	// Top of the field but 58%: percentile passes, score fails.
	if cutoff.Advances(entry(58, 100, 95)) {
		t.Errorf("sub-60%% score must eliminate despite a high percentile")
	}
	if !cutoff.Advances(entry(60, 100, 31)) {
		t.Errorf("60%% and percentile above 30 should advance")
	}
	// Percentile exactly at the floor does not pass the strict comparison.
	if cutoff.Advances(entry(80, 100, 30)) {
		t.Errorf("percentile exactly 30 must not advance")
	}
}

func TestSilverCutoff(t *testing.T) {
	cutoff, ok := CutoffFor(models.StageSilver)
	if !ok {
		t.Fatalf("SILVER must have a cutoff")
	}
	if !cutoff.Advances(entry(50, 100, 51)) {
		t.Errorf("50%% and percentile above 50 should advance")
	}
	if cutoff.Advances(entry(49, 100, 99)) {
		t.Errorf("sub-50%% score must not advance")
	}
}

func TestGoldenFinaleTerminal(t *testing.T) {
	if _, ok := CutoffFor(models.StageGoldenFinale); ok {
		t.Fatalf("GOLDEN_FINALE must not eliminate")
	}
	if _, ok := CutoffFor(models.StagePreparation); ok {
		t.Fatalf("PREPARATION must not eliminate")
	}
}

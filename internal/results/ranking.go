// internal/results/ranking.go
package results

import (
	"sort"
	"time"

	"olympiad-platform/internal/models"
)

// Cutoff is the advancement rule for one stage. Both conditions must hold
// for a participant to advance: the absolute score floor AND the
// percentile floor. A high score does not exempt anyone from the
// percentile cutoff, and vice versa.
type Cutoff struct {
	MinScorePercent float64
	FloorPercentile float64
}

var cutoffs = map[models.Stage]Cutoff{
	models.StageQuiz:   {MinScorePercent: 70, FloorPercentile: 0},
	models.StageBronze: {MinScorePercent: 60, FloorPercentile: 30},
	models.StageSilver: {MinScorePercent: 50, FloorPercentile: 50},
	// GOLDEN_FINALE is terminal: final placement only, no elimination.
}

// CutoffFor returns the elimination rule for a stage. ok is false for
// stages that never eliminate.
func CutoffFor(stage models.Stage) (Cutoff, bool) {
	c, ok := cutoffs[stage]
	return c, ok
}

// Advances applies the combined AND-rule to one ranking entry.
func (c Cutoff) Advances(entry models.RankingEntry) bool {
	return entry.ScorePercent() >= c.MinScorePercent && entry.Percentile > c.FloorPercentile
}

// buildRankings turns scored rows into an ordered leaderboard.
//
// Sort order: score descending; ties broken by earlier submission, then
// lower participant ID, so the comparator is total and reruns produce an
// identical ordering. Rank positions are dense (equal scores share a
// rank). Percentile is (count of attempts scoring <= mine / total) * 100.
func buildRankings(rows []ScoredRow, maxScore int, computedAt time.Time) []models.RankingEntry {
	sorted := make([]ScoredRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].ParticipantID < sorted[j].ParticipantID
	})

	total := len(sorted)
	atOrBelow := make(map[int]int, total)
	for _, row := range sorted {
		if _, done := atOrBelow[row.TotalScore]; done {
			continue
		}
		count := 0
		for _, other := range sorted {
			if other.TotalScore <= row.TotalScore {
				count++
			}
		}
		atOrBelow[row.TotalScore] = count
	}

	entries := make([]models.RankingEntry, 0, total)
	rank := 0
	prevScore := 0
	for i, row := range sorted {
		if i == 0 || row.TotalScore != prevScore {
			rank++
			prevScore = row.TotalScore
		}
		percentile := 0.0
		if total > 0 {
			percentile = float64(atOrBelow[row.TotalScore]) / float64(total) * 100
		}
		entries = append(entries, models.RankingEntry{
			ParticipantID:  row.ParticipantID,
			RegistrationNo: row.RegistrationNo,
			Score:          row.TotalScore,
			MaxScore:       maxScore,
			RankPosition:   rank,
			Percentile:     percentile,
			ComputedAt:     computedAt,
		})
	}
	return entries
}

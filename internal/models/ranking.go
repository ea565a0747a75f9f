// internal/models/ranking.go
package models

import "time"

// RankingEntry is one computed leaderboard row for a participant in one
// (edition, level, subject, stage) tuple. The tuple's entry set is
// recomputed wholesale on each admin trigger, never incrementally.
type RankingEntry struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	EditionID      uint           `json:"edition_id" gorm:"uniqueIndex:idx_ranking_tuple;not null"`
	EducationLevel EducationLevel `json:"education_level" gorm:"uniqueIndex:idx_ranking_tuple;not null"`
	Subject        string         `json:"subject" gorm:"uniqueIndex:idx_ranking_tuple;not null"`
	Stage          Stage          `json:"stage" gorm:"uniqueIndex:idx_ranking_tuple;not null"`
	ParticipantID  uint           `json:"participant_id" gorm:"uniqueIndex:idx_ranking_tuple;not null"`
	RegistrationNo string         `json:"registration_no"`
	Score          int            `json:"score"`
	MaxScore       int            `json:"max_score"`
	RankPosition   int            `json:"rank_position"`
	Percentile     float64        `json:"percentile"`
	ComputedAt     time.Time      `json:"computed_at"`
}

// ScorePercent is the attempt total as a percentage of the config's
// maximum possible score.
func (r *RankingEntry) ScorePercent() float64 {
	if r.MaxScore == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.MaxScore) * 100
}

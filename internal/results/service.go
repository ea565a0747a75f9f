// internal/results/service.go
package results

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
	"olympiad-platform/pkg/cache"
)

// LeaderboardCache is the redis-backed fast path for leaderboard reads.
type LeaderboardCache interface {
	SetLeaderboard(key string, entries []models.RankingEntry) error
	GetLeaderboard(key string) ([]models.RankingEntry, error)
	InvalidateLeaderboard(key string) error
	RecordTopScores(key string, entries []models.RankingEntry) error
	TopScores(key string, n int64) (map[string]int, error)
}

// Broadcaster pushes fresh leaderboards to subscribed dashboards.
type Broadcaster interface {
	BroadcastMessage(room string, messageType string, data interface{})
}

type Service struct {
	repo  Repository
	cache LeaderboardCache
	hub   Broadcaster
	group singleflight.Group
	now   func() time.Time
}

// NewService wires the engine. cache and hub may be nil (tests, CLI use).
func NewService(repo Repository, cache LeaderboardCache, hub Broadcaster) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		hub:   hub,
		now:   time.Now,
	}
}

// NewServiceWithClock is test-only for deterministic ComputedAt stamps.
func NewServiceWithClock(repo Repository, cache LeaderboardCache, hub Broadcaster, now func() time.Time) *Service {
	s := NewService(repo, cache, hub)
	s.now = now
	return s
}

type Tuple struct {
	EditionID      uint                  `json:"editionId" validate:"required"`
	EducationLevel models.EducationLevel `json:"educationLevel" validate:"required"`
	Subject        string                `json:"subject" validate:"required"`
	Stage          models.Stage          `json:"stage" validate:"required"`
}

// key is the broadcast room and singleflight key for the tuple, matching
// websocket.RoomKey.
func (t Tuple) key() string {
	return fmt.Sprintf("%d:%s:%s:%s", t.EditionID, t.EducationLevel, t.Subject, t.Stage)
}

func (t Tuple) cacheKey() string {
	return cache.LeaderboardKey(t.EditionID, t.EducationLevel, t.Subject, t.Stage)
}

func (t Tuple) validate() error {
	if !t.EducationLevel.Valid() {
		return apperrors.Validation("unknown education level %q", t.EducationLevel)
	}
	if !t.Stage.Valid() {
		return apperrors.Validation("unknown stage %q", t.Stage)
	}
	if !t.Stage.Competitive() {
		return apperrors.Validation("stage %s has no rankings", t.Stage)
	}
	return nil
}

// CalculateRankings recomputes the leaderboard for one tuple and applies
// the stage's elimination cutoffs. The recompute is single-flighted per
// tuple: concurrent admin triggers coalesce into one wholesale rewrite.
func (s *Service) CalculateRankings(t Tuple) ([]models.RankingEntry, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	result, err, _ := s.group.Do(t.key(), func() (interface{}, error) {
		return s.recompute(t)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.RankingEntry), nil
}

func (s *Service) recompute(t Tuple) ([]models.RankingEntry, error) {
	config, err := s.repo.ConfigForTuple(t.EditionID, t.EducationLevel, t.Subject, t.Stage)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no exam config for %s/%s/%s in edition %d",
				t.Stage, t.EducationLevel, t.Subject, t.EditionID)
		}
		return nil, apperrors.Internal(err, "could not load exam config")
	}

	maxScore := config.MaxPossibleScore()
	manualCount := 0
	for _, cq := range config.Questions {
		if cq.Question.Type.ManuallyGraded() {
			manualCount++
		}
	}

	rows, err := s.repo.ScoredAttempts(config.ID)
	if err != nil {
		return nil, apperrors.Internal(err, "could not load scored attempts")
	}

	// Attempts still waiting on manual marks are excluded: their totals
	// would shift once the outstanding marks land.
	ranked := rows[:0:0]
	for _, row := range rows {
		if manualCount > 0 && row.ManualMarked < int64(manualCount) {
			log.Printf("Skipping attempt %d in ranking: %d/%d manual marks recorded",
				row.AttemptID, row.ManualMarked, manualCount)
			continue
		}
		ranked = append(ranked, row)
	}

	entries := buildRankings(ranked, maxScore, s.now())
	for i := range entries {
		entries[i].EditionID = t.EditionID
		entries[i].EducationLevel = t.EducationLevel
		entries[i].Subject = t.Subject
		entries[i].Stage = t.Stage
	}

	if err := s.repo.ReplaceRankings(t.EditionID, t.EducationLevel, t.Subject, t.Stage, entries); err != nil {
		return nil, apperrors.Internal(err, "could not store rankings")
	}

	s.applyElimination(t.Stage, entries)
	s.refreshCache(t, entries)

	if s.hub != nil {
		s.hub.BroadcastMessage(t.key(), "leaderboard", entries)
	}

	log.Printf("Recomputed rankings for %s: %d entries", t.key(), len(entries))
	return entries, nil
}

// applyElimination walks the freshly ranked entries and advances or
// eliminates each participant per the stage cutoff. Terminal stages are
// left untouched. The repository guards both paths so a recompute of an
// earlier phase never moves a participant who already progressed past it.
func (s *Service) applyElimination(stage models.Stage, entries []models.RankingEntry) {
	cutoff, ok := CutoffFor(stage)
	if !ok {
		return
	}
	nextStage, hasNext := stage.Next()

	for _, entry := range entries {
		if cutoff.Advances(entry) {
			if !hasNext {
				continue
			}
			if err := s.repo.AdvanceParticipant(entry.ParticipantID, stage, nextStage); err != nil {
				log.Printf("Error advancing participant %d to %s: %v", entry.ParticipantID, nextStage, err)
			}
		} else {
			if err := s.repo.EliminateParticipant(entry.ParticipantID, stage); err != nil {
				log.Printf("Error eliminating participant %d: %v", entry.ParticipantID, err)
			}
		}
	}
}

func (s *Service) refreshCache(t Tuple, entries []models.RankingEntry) {
	if s.cache == nil {
		return
	}
	key := t.cacheKey()
	if len(entries) == 0 {
		// Nothing to serve; drop the stale set rather than caching emptiness.
		if err := s.cache.InvalidateLeaderboard(key); err != nil {
			log.Printf("Error invalidating leaderboard %s: %v", key, err)
		}
	} else if err := s.cache.SetLeaderboard(key, entries); err != nil {
		log.Printf("Error caching leaderboard %s: %v", key, err)
	}
	if err := s.cache.RecordTopScores(key, entries); err != nil {
		log.Printf("Error caching top scores %s: %v", key, err)
	}
}

// Leaderboard returns the top-limit entries for a tuple, preferring the
// cache and falling back to the database.
func (s *Service) Leaderboard(t Tuple, limit int) ([]models.RankingEntry, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if entries, err := s.cache.GetLeaderboard(t.cacheKey()); err == nil {
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}
			return entries, nil
		}
	}

	entries, err := s.repo.Rankings(t.EditionID, t.EducationLevel, t.Subject, t.Stage, limit)
	if err != nil {
		return nil, apperrors.Internal(err, "could not load rankings")
	}
	return entries, nil
}

// TopScores serves the quick (registration number, score) view, preferring
// the ZSET mirror and rebuilding from the stored rankings on a miss.
func (s *Service) TopScores(t Tuple, n int64) (map[string]int, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}

	if s.cache != nil {
		if scores, err := s.cache.TopScores(t.cacheKey(), n); err == nil && len(scores) > 0 {
			return scores, nil
		}
	}

	entries, err := s.repo.Rankings(t.EditionID, t.EducationLevel, t.Subject, t.Stage, int(n))
	if err != nil {
		return nil, apperrors.Internal(err, "could not load rankings")
	}
	scores := make(map[string]int, len(entries))
	for _, entry := range entries {
		scores[entry.RegistrationNo] = entry.Score
	}
	return scores, nil
}

// ParticipantRanking returns one participant's entry for a subject and
// stage.
func (s *Service) ParticipantRanking(participantID uint, subject string, stage models.Stage) (*models.RankingEntry, error) {
	entry, err := s.repo.ParticipantRanking(participantID, subject, stage)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no ranking for participant %d in %s/%s", participantID, subject, stage)
		}
		return nil, apperrors.Internal(err, "could not load ranking")
	}
	return entry, nil
}

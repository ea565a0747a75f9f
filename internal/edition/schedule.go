// internal/edition/schedule.go
package edition

import (
	"time"

	"olympiad-platform/internal/models"
)

// SplitPhases divides [start, close) into five equal windows, one per
// stage in competition order. The final window ends exactly at close so
// the union spans the whole interval regardless of rounding.
func SplitPhases(start, close time.Time) []models.EditionPhase {
	total := close.Sub(start)
	span := total / 5

	phases := make([]models.EditionPhase, 0, 5)
	for i, stage := range models.StageOrder() {
		startsAt := start.Add(span * time.Duration(i))
		endsAt := startsAt.Add(span)
		if i == 4 {
			endsAt = close
		}
		phases = append(phases, models.EditionPhase{
			Stage:    stage,
			Ordinal:  i,
			StartsAt: startsAt,
			EndsAt:   endsAt,
		})
	}
	return phases
}

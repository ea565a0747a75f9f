// internal/results/handler.go
package results

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// GetResults serves the leaderboard for a tuple, or a single
// participant's entry when participantId is given.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	editionID, err := strconv.ParseUint(query.Get("editionId"), 10, 32)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid editionId"))
		return
	}
	tuple := Tuple{
		EditionID:      uint(editionID),
		EducationLevel: models.EducationLevel(query.Get("educationLevel")),
		Subject:        query.Get("subject"),
		Stage:          models.Stage(query.Get("stage")),
	}

	if raw := query.Get("participantId"); raw != "" {
		participantID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.WriteJSON(w, apperrors.Validation("invalid participantId"))
			return
		}
		entry, err := h.service.ParticipantRanking(uint(participantID), tuple.Subject, tuple.Stage)
		if err != nil {
			apperrors.WriteJSON(w, err)
			return
		}
		json.NewEncoder(w).Encode(entry)
		return
	}

	if raw := query.Get("top"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			apperrors.WriteJSON(w, apperrors.Validation("invalid top"))
			return
		}
		scores, err := h.service.TopScores(tuple, n)
		if err != nil {
			apperrors.WriteJSON(w, err)
			return
		}
		json.NewEncoder(w).Encode(scores)
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apperrors.WriteJSON(w, apperrors.Validation("invalid limit"))
			return
		}
		limit = parsed
	}

	entries, err := h.service.Leaderboard(tuple, limit)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(entries)
}

// CalculateRankings triggers the wholesale recompute for one tuple.
// Admin-only; the route is wrapped with the admin guard.
func (h *Handler) CalculateRankings(w http.ResponseWriter, r *http.Request) {
	var tuple Tuple
	if err := json.NewDecoder(r.Body).Decode(&tuple); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(tuple); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	entries, err := h.service.CalculateRankings(tuple)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  fmt.Sprintf("rankings recomputed: %d entries", len(entries)),
		"rankings": entries,
	})
}

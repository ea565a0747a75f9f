// internal/marking/handler.go
package marking

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/auth"
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

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	var editionID uint
	if raw := r.URL.Query().Get("editionId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.WriteJSON(w, apperrors.Validation("invalid editionId"))
			return
		}
		editionID = uint(parsed)
	}
	level := models.EducationLevel(r.URL.Query().Get("educationLevel"))
	subject := r.URL.Query().Get("subject")

	tasks, err := h.service.ListPending(editionID, level, subject)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(tasks)
}

func (h *Handler) SubmitMark(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.CallerIdentity(r)
	if !ok {
		apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
		return
	}

	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	mark, err := h.service.SubmitMark(identity.UserID, req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mark)
}

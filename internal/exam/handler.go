// internal/exam/handler.go
package exam

import (
	"encoding/json"
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

func (h *Handler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	var req CreateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	config, err := h.service.CreateConfig(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(config)
}

func (h *Handler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	var editionID uint
	if raw := r.URL.Query().Get("editionId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.WriteJSON(w, apperrors.Validation("invalid editionId"))
			return
		}
		editionID = uint(parsed)
	}
	stage := models.Stage(r.URL.Query().Get("stage"))

	summaries, err := h.service.ListConfigs(editionID, stage)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(summaries)
}

func (h *Handler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid exam config id"))
		return
	}

	if err := h.service.DeleteConfig(uint(id)); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	question, err := h.service.CreateQuestion(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(question)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	level := models.EducationLevel(r.URL.Query().Get("educationLevel"))

	questions, err := h.service.ListQuestions(subject, level)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(questions)
}

type startAttemptRequest struct {
	ParticipantID uint `json:"participant_id" validate:"required"`
	ExamConfigID  uint `json:"exam_config_id" validate:"required"`
}

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	attempt, err := h.service.StartAttempt(req.ParticipantID, req.ExamConfigID)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(attempt)
}

type updateAttemptRequest struct {
	AttemptID uint          `json:"attempt_id" validate:"required"`
	Answers   []AnswerInput `json:"answers"`
	Action    string        `json:"action,omitempty"` // "" saves, "submit" submits
}

// UpdateAttempt saves answers, or submits when action == "submit".
func (h *Handler) UpdateAttempt(w http.ResponseWriter, r *http.Request) {
	var req updateAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	if req.Action == "submit" {
		dto, err := h.service.Submit(req.AttemptID, req.Answers)
		if err != nil {
			apperrors.WriteJSON(w, err)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "attempt submitted and scored",
			"attempt": dto,
		})
		return
	}

	if err := h.service.SaveAnswers(req.AttemptID, req.Answers); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "answers saved"})
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("attemptId")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid attemptId"))
		return
	}
	includeQuestions := r.URL.Query().Get("includeQuestions") == "true"

	dto, err := h.service.GetAttempt(uint(id), includeQuestions)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(dto)
}

func (h *Handler) ResetAttempt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("attemptId")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid attemptId"))
		return
	}

	if err := h.service.ResetAttempt(uint(id)); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

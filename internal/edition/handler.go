// internal/edition/handler.go
package edition

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"olympiad-platform/internal/apperrors"
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	edition, err := h.service.Create(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(edition)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	edition, err := h.service.GetByID(id)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(edition)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	editions, err := h.service.List()
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(editions)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}

	edition, err := h.service.Update(id, req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(edition)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	if err := h.service.Delete(id); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, apperrors.Validation("invalid edition id")
	}
	return uint(id), nil
}

// internal/auth/handler.go
package auth

import (
	"encoding/json"
	"net/http"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if user.Username == "" || user.Email == "" || user.Password == "" {
		apperrors.WriteJSON(w, apperrors.Validation("username, email and password are required"))
		return
	}

	if err := h.service.Register(&user); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

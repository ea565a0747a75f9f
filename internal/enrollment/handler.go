// internal/enrollment/handler.go
package enrollment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"olympiad-platform/internal/apperrors"
	"olympiad-platform/internal/auth"
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

type enrollmentRequest struct {
	Action string `json:"action"` // "check" or "enroll"
	EnrollRequest
}

// Enrollment handles both the eligibility check and the actual enrollment,
// switched on the action field.
func (h *Handler) Enrollment(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.CallerIdentity(r)
	if !ok {
		apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
		return
	}

	var req enrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req.EnrollRequest); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	switch req.Action {
	case "check":
		result, err := h.service.CheckEligibility(req.EnrollRequest)
		if err != nil {
			apperrors.WriteJSON(w, err)
			return
		}
		json.NewEncoder(w).Encode(result)

	case "enroll", "":
		participant, err := h.service.Enroll(identity.UserID, req.EnrollRequest)
		if err != nil {
			apperrors.WriteJSON(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"participant": participant,
			"subjects":    participant.SubjectNames(),
		})

	default:
		apperrors.WriteJSON(w, apperrors.Validation("unknown action %q", req.Action))
	}
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.CallerIdentity(r)
	if !ok {
		apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
		return
	}

	guardianID := identity.UserID
	// Admins may inspect any guardian's registrations.
	if raw := r.URL.Query().Get("guardianId"); raw != "" && identity.IsAdmin() {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.WriteJSON(w, apperrors.Validation("invalid guardianId"))
			return
		}
		guardianID = uint(parsed)
	}

	participants, err := h.service.ListByGuardian(guardianID)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(participants)
}

func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid participant id"))
		return
	}

	participant, err := h.service.GetParticipant(uint(id))
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(participant)
}

func (h *Handler) CreateMinorProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.CallerIdentity(r)
	if !ok {
		apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
		return
	}

	var req MinorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation("%v", err))
		return
	}

	profile, err := h.service.CreateMinorProfile(identity.UserID, req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

func (h *Handler) ListMinorProfiles(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.CallerIdentity(r)
	if !ok {
		apperrors.WriteJSON(w, apperrors.Auth("authentication required"))
		return
	}

	profiles, err := h.service.ListMinorProfiles(identity.UserID)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(profiles)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facepay/backend/internal/services"
)

type FaceHandler struct {
	service   *services.FaceService
	validator *services.ValidationHelper
}

func NewFaceHandler(service *services.FaceService) *FaceHandler {
	return &FaceHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// EnrollRequest carries one enrollment embedding.
type EnrollRequest struct {
	UserID    string    `json:"userId" validate:"required,uuid4"`
	Embedding []float64 `json:"embedding" validate:"required"`
	Quality   *float64  `json:"quality"`
}

// Enroll stores the face template for a user
// @Summary Enroll or replace a user's face template
// @Description Atomically replaces any previously enrolled template
// @Tags biometrics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollRequest true "Enrollment request"
// @Success 200 {object} object{templateId=string}
// @Failure 400 {object} services.ErrorResponse "Wrong embedding dimension"
// @Failure 404 {object} services.ErrorResponse "Unknown user"
// @Router /enroll [post]
func (h *FaceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := services.DecodeJSONBody(w, r, &req); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	templateID, err := h.service.Enroll(r.Context(), req.UserID, req.Embedding, req.Quality)
	if err != nil {
		services.SendServiceError(w, "FACE", err)
		return
	}

	services.SendJSON(w, map[string]any{"ok": true, "templateId": templateID})
}

// VerifyRequest carries one probe embedding.
type VerifyRequest struct {
	Embedding []float64 `json:"embedding" validate:"required"`
}

// Verify identifies the nearest enrolled user by cosine similarity
// @Summary Verify a probe embedding against all enrolled templates
// @Description Returns the decision and best candidate; rejection is an outcome, not an error
// @Tags biometrics
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification request"
// @Success 200 {object} services.VerifyResult
// @Failure 400 {object} services.ErrorResponse "Wrong embedding dimension"
// @Router /verify [post]
func (h *FaceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := services.DecodeJSONBody(w, r, &req); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.Verify(r.Context(), req.Embedding, services.AttemptSource{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		services.SendServiceError(w, "FACE", err)
		return
	}

	services.SendJSON(w, result)
}

// AuthStats reports a user's verification history
// @Summary Get verification attempt statistics for a user
// @Tags biometrics
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.AuthStats
// @Router /user/{id}/auth-stats [get]
func (h *FaceHandler) AuthStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAuthStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		services.SendServiceError(w, "FACE", err)
		return
	}
	services.SendJSON(w, stats)
}

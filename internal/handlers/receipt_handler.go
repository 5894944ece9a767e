package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facepay/backend/internal/services"
)

type ReceiptHandler struct {
	service   *services.ReceiptService
	validator *services.ValidationHelper
}

func NewReceiptHandler(service *services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// IssueReceipt generates a pickup QR for a paid order
// @Summary Issue a single-use pickup receipt QR for a paid order
// @Tags receipts
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} object{token=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse "Order not paid"
// @Failure 404 {object} services.ErrorResponse "Unknown order"
// @Router /orders/{orderId}/receipt [get]
func (h *ReceiptHandler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	token, qrImage, err := h.service.IssueReceipt(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.sendError(w, err)
		return
	}

	services.SendJSON(w, map[string]any{
		"ok":      true,
		"token":   token,
		"qrImage": qrImage,
	})
}

// RedeemReceipt consumes a scanned pickup receipt
// @Summary Redeem a pickup receipt token
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body object{token=string} true "Redeem request"
// @Success 200 {object} services.ReceiptClaim
// @Failure 400 {object} services.ErrorResponse "Invalid or expired receipt"
// @Router /receipts/redeem [post]
func (h *ReceiptHandler) RedeemReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := services.DecodeJSONBody(w, r, &req); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	claim, err := h.service.RedeemReceipt(r.Context(), req.Token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	services.SendJSON(w, map[string]any{"ok": true, "receipt": claim})
}

func (h *ReceiptHandler) sendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrReceiptInvalid), errors.Is(err, services.ErrOrderNotPaid):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrReceiptUnavailable):
		services.SendErrorResponse(w, err.Error(), http.StatusServiceUnavailable, nil)
	default:
		services.SendServiceError(w, "RECEIPT", err)
	}
}

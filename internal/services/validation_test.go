package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid create user request", func(t *testing.T) {
		valid := CreateUserRequest{
			StudentID:      "U2021-0042",
			FullName:       "Maria Quispe",
			Email:          "maria@example.edu",
			InitialBalance: 10000,
		}

		err := vh.ValidateStruct(&valid)
		assert.NoError(t, err)
	})

	t.Run("missing and malformed fields", func(t *testing.T) {
		invalid := CreateUserRequest{
			StudentID: "U",             // too short
			Email:     "invalid-email", // not an email
			// FullName and InitialBalance missing
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 4)
	})

	t.Run("checkout requires at least one item", func(t *testing.T) {
		invalid := CheckoutRequest{
			UserID: "3f1d4b9a-9c0f-4d2e-8a31-5b1f2e3d4c5a",
			Items:  []CheckoutItem{},
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)
	})

	t.Run("checkout rejects non-positive quantity", func(t *testing.T) {
		invalid := CheckoutRequest{
			UserID: "3f1d4b9a-9c0f-4d2e-8a31-5b1f2e3d4c5a",
			Items: []CheckoutItem{
				{ProductID: "7c9e6679-9c0f-4d2e-8a31-5b1f2e3d4c5b", Qty: 0},
			},
		}

		err := vh.ValidateStruct(&invalid)
		assert.Error(t, err)
	})
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("rejects unknown fields", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"userId":"u","bogus":1}`))
		w := httptest.NewRecorder()

		var req CheckoutRequest
		err := DecodeJSONBody(w, r, &req)
		assert.Error(t, err)
	})

	t.Run("rejects trailing objects", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/checkout", strings.NewReader(`{"userId":"u"}{"userId":"v"}`))
		w := httptest.NewRecorder()

		var req CheckoutRequest
		err := DecodeJSONBody(w, r, &req)
		assert.Error(t, err)
	})

	t.Run("rejects fractional quantities", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/checkout",
			strings.NewReader(`{"userId":"u","items":[{"productId":"p","qty":1.5}]}`))
		w := httptest.NewRecorder()

		var req CheckoutRequest
		err := DecodeJSONBody(w, r, &req)
		assert.Error(t, err)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Something went wrong", resp.Error)
		assert.Empty(t, resp.Details)
	})

	t.Run("validation details included", func(t *testing.T) {
		vh := NewValidationHelper()
		err := vh.ValidateStruct(&CreateUserRequest{})
		assert.Error(t, err)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Details)
		assert.Contains(t, resp.Details, "StudentID")
	})
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForError(ErrUserNotFound))
	assert.Equal(t, http.StatusConflict, statusForError(ErrDuplicateIdentity))
	assert.Equal(t, http.StatusBadRequest, statusForError(ErrInsufficientFunds))
	assert.Equal(t, http.StatusBadRequest, statusForError(ErrInvalidEmbedding))
	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
}

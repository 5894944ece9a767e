package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/facepay/backend/internal/models"
)

// Domain errors surfaced to callers as structured reasons. Anything not in
// this list is an unexpected store fault: logged and reported as a generic
// internal error, never exposed raw.
var (
	ErrDuplicateIdentity  = errors.New("student code or email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrProductUnavailable = errors.New("product not found or inactive")
	ErrInvalidItem        = errors.New("invalid order item")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInvalidEmbedding   = fmt.Errorf("embedding must have exactly %d dimensions", models.EmbeddingDim)
	ErrOrderNotFound      = errors.New("order not found")
)

const pqUniqueViolation = "23505"

// translatePQError maps a lib/pq uniqueness violation onto the duplicate
// identity error; everything else passes through untouched.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicateIdentity
	}
	return err
}

// statusForError picks the HTTP status for a domain error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidEmbedding):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isDomainError reports whether err is safe to show to a caller verbatim.
func isDomainError(err error) bool {
	return statusForError(err) != http.StatusInternalServerError
}

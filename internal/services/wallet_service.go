package services

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/facepay/backend/internal/audit"
	"github.com/facepay/backend/internal/models"
)

// WalletService owns user creation and every read over the wallet ledger.
// Balances are never stored: a balance is always COALESCE(SUM(amount), 0)
// over the user's ledger entries, computed inside whatever transaction
// needs it.
type WalletService struct {
	db        *sql.DB
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewWalletService(db *sql.DB, auditLogger *audit.Logger) *WalletService {
	return &WalletService{
		db:        db,
		audit:     auditLogger,
		validator: NewValidationHelper(),
	}
}

// CreateUserRequest represents the registration payload
// @Description User registration with initial wallet credit
type CreateUserRequest struct {
	StudentID      string `json:"student_id" validate:"required,min=2" example:"U2021-0042"` // External student code
	FullName       string `json:"full_name" validate:"required,min=2" example:"Maria Quispe"`
	Email          string `json:"email" validate:"required,email" example:"maria@example.edu"`
	InitialBalance int64  `json:"initial_balance" validate:"required,gt=0"` // minor units
}

// CreateUser inserts the user row and the initial topup ledger entry in one
// transaction. A uniqueness violation on student_id or email surfaces as
// ErrDuplicateIdentity with nothing persisted.
func (s *WalletService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user := &models.User{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		FullName:  req.FullName,
		Email:     req.Email,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, student_id, full_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		user.ID, user.StudentID, user.FullName, user.Email).Scan(&user.CreatedAt)
	if err != nil {
		return nil, translatePQError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger (user_id, amount, reason)
		VALUES ($1, $2, $3)`,
		user.ID, req.InitialBalance, models.LedgerReasonTopup)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.LogTopup(user.ID, req.InitialBalance)
	return user, nil
}

// GetBalance returns the derived balance for a user, or ErrUserNotFound.
func (s *WalletService) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(l.amount), 0)
		FROM users u
		LEFT JOIN wallet_ledger l ON l.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`,
		userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetUserAccount returns the user record with its derived balance.
func (s *WalletService) GetUserAccount(ctx context.Context, userID string) (*models.UserAccount, error) {
	var acct models.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.student_id, u.full_name, u.email, u.created_at,
		       COALESCE(SUM(l.amount), 0) AS balance
		FROM users u
		LEFT JOIN wallet_ledger l ON l.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`,
		userID).Scan(&acct.ID, &acct.StudentID, &acct.FullName, &acct.Email, &acct.CreatedAt, &acct.Balance)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetTransactions returns the user's most recent ledger entries joined to
// their originating orders, newest first, capped at limit.
func (s *WalletService) GetTransactions(ctx context.Context, userID string, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.amount, l.reason, l.created_at, o.id, o.status, o.total
		FROM wallet_ledger l
		LEFT JOIN orders o ON l.ref_id = o.id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.TransactionRecord{}
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(&rec.Amount, &rec.Reason, &rec.CreatedAt,
			&rec.OrderID, &rec.OrderStatus, &rec.OrderTotal); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RegisterUser handles user registration
// @Summary Register a pre-approved user with an initial wallet credit
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "Registration request"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Duplicate student code or email"
// @Router /users [post]
func (s *WalletService) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.CreateUser(r.Context(), req)
	if err != nil {
		SendServiceError(w, "WALLET", err)
		return
	}

	log.Printf("[WALLET] user %s created with initial balance %d", user.ID, req.InitialBalance)
	SendJSON(w, map[string]any{"ok": true, "user": user})
}

// GetUser handles the account lookup endpoint
// @Summary Get a user with their derived balance
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserAccount
// @Failure 404 {object} ErrorResponse
// @Router /user/{id} [get]
func (s *WalletService) GetUser(w http.ResponseWriter, r *http.Request) {
	acct, err := s.GetUserAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		SendServiceError(w, "WALLET", err)
		return
	}
	SendJSON(w, map[string]any{"ok": true, "user": acct})
}

// GetUserBalance handles the balance enquiry endpoint
// @Summary Get a user's derived wallet balance
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} object{balance=int64}
// @Failure 404 {object} ErrorResponse
// @Router /user/{id}/balance [get]
func (s *WalletService) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		SendServiceError(w, "WALLET", err)
		return
	}
	SendJSON(w, map[string]any{"balance": balance})
}

// GetUserTransactions handles the transaction history endpoint
// @Summary List a user's recent ledger entries with originating orders
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} object
// @Router /user/{id}/transactions [get]
func (s *WalletService) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := s.GetTransactions(r.Context(), chi.URLParam(r, "id"), 50)
	if err != nil {
		SendServiceError(w, "WALLET", err)
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.MarshalFields())
	}
	SendJSON(w, out)
}

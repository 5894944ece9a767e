package services

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/facepay/backend/internal/audit"
	"github.com/facepay/backend/internal/models"
)

// CheckoutService executes purchases against the wallet ledger. A checkout
// is a single database transaction: order, items, payment and ledger debit
// all commit together or not at all.
type CheckoutService struct {
	db        *sql.DB
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewCheckoutService(db *sql.DB, auditLogger *audit.Logger) *CheckoutService {
	return &CheckoutService{
		db:        db,
		audit:     auditLogger,
		validator: NewValidationHelper(),
	}
}

// CheckoutItem is one requested cart line. Quantities are positive whole
// units; the catalog has no fractional goods.
type CheckoutItem struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
}

// CheckoutRequest represents the checkout payload
// @Description Cart checkout against the wallet balance
type CheckoutRequest struct {
	UserID string         `json:"userId" validate:"required,uuid4"`
	Items  []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

type CheckoutResult struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Total     int64  `json:"total"`
}

// Checkout runs the full purchase as one transaction. The user row is
// locked first, which both validates existence and serializes concurrent
// checkouts for the same user so two in-flight purchases cannot both pass
// the balance check. Checkout is not idempotent; callers must not resubmit
// an ambiguous failure without confirming order state.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, items []CheckoutItem) (*CheckoutResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM wallet_ledger WHERE user_id = $1`,
		userID).Scan(&balance)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status) VALUES ($1, $2, $3)`,
		orderID, userID, models.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, item := range items {
		if item.Qty <= 0 {
			return nil, ErrInvalidItem
		}

		var unitPrice int64
		err = tx.QueryRowContext(ctx,
			`SELECT price FROM products WHERE id = $1 AND is_active = TRUE`,
			item.ProductID).Scan(&unitPrice)
		if err == sql.ErrNoRows {
			return nil, ErrProductUnavailable
		}
		if err != nil {
			return nil, err
		}

		// Price captured here; later catalog changes never touch this order.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, qty, unit_price)
			VALUES ($1, $2, $3, $4)`,
			orderID, item.ProductID, item.Qty, unitPrice)
		if err != nil {
			return nil, err
		}

		total += unitPrice * item.Qty
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET total = $1, status = $2 WHERE id = $3`,
		total, models.OrderStatusConfirmed, orderID)
	if err != nil {
		return nil, err
	}

	if total > balance {
		return nil, ErrInsufficientFunds
	}

	paymentID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, status, method)
		VALUES ($1, $2, $3, $4, $5)`,
		paymentID, orderID, total, models.OrderStatusPaid, models.PaymentMethodWallet)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger (user_id, amount, reason, ref_id)
		VALUES ($1, $2, $3, $4)`,
		userID, -total, models.LedgerReasonOrder, orderID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`,
		models.OrderStatusPaid, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.LogCheckout(userID, orderID, total, "PAID")
	return &CheckoutResult{OrderID: orderID, PaymentID: paymentID, Total: total}, nil
}

// GetOrder returns a user's order, used by the receipt flow.
func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders WHERE id = $1`,
		orderID).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// HandleCheckout handles the checkout endpoint
// @Summary Pay for a cart from the wallet balance
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Checkout request"
// @Success 200 {object} CheckoutResult
// @Failure 400 {object} ErrorResponse "Invalid item, inactive product or insufficient balance"
// @Failure 404 {object} ErrorResponse "Unknown user"
// @Router /checkout [post]
func (s *CheckoutService) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.Checkout(r.Context(), req.UserID, req.Items)
	if err != nil {
		SendServiceError(w, "CHECKOUT", err)
		return
	}

	log.Printf("[CHECKOUT] order %s paid, total %d", result.OrderID, result.Total)
	SendJSON(w, map[string]any{
		"ok":        true,
		"orderId":   result.OrderID,
		"paymentId": result.PaymentID,
		"total":     result.Total,
	})
}

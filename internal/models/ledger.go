package models

import (
	"database/sql"
	"time"
)

// Ledger reasons. The ledger is append-only; a user's balance is always
// the sum of their entries.
const (
	LedgerReasonTopup = "topup"
	LedgerReasonOrder = "order"
)

type LedgerEntry struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    int64     `json:"amount" db:"amount"` // signed, minor units
	Reason    string    `json:"reason" db:"reason"` // topup or order
	RefID     *string   `json:"ref_id,omitempty" db:"ref_id"` // originating order, if any
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransactionRecord is a ledger entry joined to its originating order,
// as returned by the transaction-history endpoint.
type TransactionRecord struct {
	Amount      int64          `json:"amount"`
	Reason      string         `json:"reason"`
	CreatedAt   time.Time      `json:"created_at"`
	OrderID     sql.NullString `json:"-"`
	OrderStatus sql.NullString `json:"-"`
	OrderTotal  sql.NullInt64  `json:"-"`
}

// MarshalFields returns the JSON-facing view with order fields omitted
// for entries that did not originate from an order.
func (t TransactionRecord) MarshalFields() map[string]any {
	out := map[string]any{
		"amount":     t.Amount,
		"reason":     t.Reason,
		"created_at": t.CreatedAt,
	}
	if t.OrderID.Valid {
		out["order_id"] = t.OrderID.String
		out["order_status"] = t.OrderStatus.String
		out["order_total"] = t.OrderTotal.Int64
	}
	return out
}

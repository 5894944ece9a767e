package models

import "time"

// Order statuses. An order only ever moves forward: pending at creation,
// confirmed once its total is fixed, paid once the wallet debit commits.
// Orders that fail checkout are rolled back, never left behind.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPaid      = "paid"
)

const PaymentMethodWallet = "wallet"

type Order struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Status    string    `json:"status" db:"status"`
	Total     int64     `json:"total" db:"total"` // sum of line totals, minor units
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type OrderItem struct {
	ID        int64  `json:"id" db:"id"`
	OrderID   string `json:"order_id" db:"order_id"`
	ProductID string `json:"product_id" db:"product_id"`
	Qty       int64  `json:"qty" db:"qty"`
	UnitPrice int64  `json:"unit_price" db:"unit_price"` // captured at order time
}

type Payment struct {
	ID        string    `json:"id" db:"id"`
	OrderID   string    `json:"order_id" db:"order_id"`
	Amount    int64     `json:"amount" db:"amount"`
	Status    string    `json:"status" db:"status"`
	Method    string    `json:"method" db:"method"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

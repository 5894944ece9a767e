package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogVerification records one biometric verification attempt, accepted or not.
func (a *Logger) LogVerification(userID string, score float64, accepted bool, reason string) {
	status := "ACCEPTED"
	var details any
	if !accepted {
		status = "REJECTED"
		details = map[string]string{"reason": reason}
	}
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "VERIFY",
		UserID:    userID,
		Score:     score,
		Status:    status,
		Details:   details,
	})
}

// LogEnrollment records a face template being created or replaced.
func (a *Logger) LogEnrollment(userID, templateID string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "ENROLL",
		UserID:    userID,
		Status:    "SUCCESS",
		Details:   map[string]string{"template_id": templateID},
	})
}

// LogCheckout records a wallet debit against an order.
func (a *Logger) LogCheckout(userID, orderID string, total int64, status string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "CHECKOUT",
		UserID:    userID,
		OrderID:   orderID,
		Amount:    total,
		Status:    status,
	})
}

// LogTopup records the initial balance credit at user creation.
func (a *Logger) LogTopup(userID string, amount int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "TOPUP",
		UserID:    userID,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}

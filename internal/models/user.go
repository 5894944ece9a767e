package models

import "time"

type User struct {
	ID        string    `json:"id" db:"id"`                                      // User ID (UUID)
	StudentID string    `json:"student_id" db:"student_id" example:"U2021-0042"` // External student code
	FullName  string    `json:"full_name" db:"full_name" example:"Maria Quispe"` // Display name
	Email     string    `json:"email" db:"email" example:"maria@example.edu"`    // Unique email
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserAccount is a user joined with their derived wallet balance.
type UserAccount struct {
	User
	Balance int64 `json:"balance" db:"balance"` // Sum of ledger entries, in minor units
}

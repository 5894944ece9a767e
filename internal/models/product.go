package models

import "time"

type Product struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" example:"Empanada de pollo"`
	Price     int64     `json:"price" db:"price"` // minor units
	ImageURL  string    `json:"image_url" db:"image_url"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a calendar category with a display color. Topics are
// presentational only: deleting one leaves events without a topic rather
// than cascading.
type Topic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

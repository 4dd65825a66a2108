package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone_number"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"
)

// Subscriber represents an email address that receives new-post notifications
type Subscriber struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubscribeRequest is the body of a subscribe/unsubscribe call
type SubscribeRequest struct {
	Email string `json:"email"`
}

package models

import "time"

const NotificationStatusSent = "sent"

// Notification is an append-only log entry; (UserID, Nonce) is unique.
type Notification struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Status    string    `json:"status" bson:"status"`
	Nonce     string    `json:"nonce" bson:"nonce"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

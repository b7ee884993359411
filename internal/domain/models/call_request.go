package models

import (
	"time"

	"github.com/google/uuid"
)

// CallRequest is an invitation from one user to another to meet in a room.
type CallRequest struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SenderID    uuid.UUID `json:"sender_id" db:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id" db:"recipient_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func NewCallRequest(senderID, recipientID uuid.UUID) *CallRequest {
	return &CallRequest{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		CreatedAt:   time.Now(),
	}
}

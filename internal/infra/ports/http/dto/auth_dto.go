package dto

import "github.com/google/uuid"

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID uuid.UUID `json:"userId"`
}

type GetMeResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type SendRequestRequest struct {
	RecipientID uuid.UUID `json:"recipientId"`
}

type SendRequestResponse struct {
	ID uuid.UUID `json:"id"`
}

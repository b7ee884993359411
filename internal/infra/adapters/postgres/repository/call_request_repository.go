package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qrave1/peerlink/internal/domain/models"
)

type CallRequestRepository interface {
	Create(ctx context.Context, req *models.CallRequest) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.CallRequest, error)
}

type callRequestRepo struct {
	db *sqlx.DB
}

func NewCallRequestRepo(db *sqlx.DB) CallRequestRepository {
	return &callRequestRepo{db: db}
}

func (r *callRequestRepo) Create(ctx context.Context, req *models.CallRequest) error {
	query := "INSERT INTO call_requests (id, sender_id, recipient_id, created_at) VALUES ($1, $2, $3, $4)"

	_, err := r.db.ExecContext(ctx, query, req.ID, req.SenderID, req.RecipientID, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create call request: %w", err)
	}

	return nil
}

func (r *callRequestRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.CallRequest, error) {
	var reqs []*models.CallRequest

	query := "SELECT id, sender_id, recipient_id, created_at FROM call_requests WHERE recipient_id = $1 ORDER BY created_at DESC"

	if err := r.db.SelectContext(ctx, &reqs, query, recipientID); err != nil {
		return nil, fmt.Errorf("list call requests: %w", err)
	}

	return reqs, nil
}

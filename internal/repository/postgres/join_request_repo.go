package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventsocials/internal/domain"
)

type joinRequestRepository struct {
	DB *sql.DB
}

func NewJoinRequestRepository(db *sql.DB) domain.JoinRequestRepository {
	return &joinRequestRepository{
		DB: db,
	}
}

func (r *joinRequestRepository) Create(ctx context.Context, jr *domain.JoinRequest) error {
	query := `
		INSERT INTO join_requests (event_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, jr.EventID, jr.UserID, jr.Status, jr.CreatedAt).
		Scan(&jr.ID)
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at
		FROM join_requests
		WHERE id = $1
	`
	return r.scanJoinRequest(r.DB.QueryRowContext(ctx, query, id))
}

func (r *joinRequestRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.JoinRequest, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at
		FROM join_requests
		WHERE event_id = $1 AND user_id = $2
	`
	return r.scanJoinRequest(r.DB.QueryRowContext(ctx, query, eventID, userID))
}

// UpdateStatusIfPending is the compare-and-swap that makes the pending ->
// terminal transition race-safe: the row is only written while still pending,
// so of two concurrent resolutions exactly one observes updated == true.
func (r *joinRequestRepository) UpdateStatusIfPending(ctx context.Context, id string, status domain.JoinRequestStatus) (bool, error) {
	query := `
		UPDATE join_requests
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *joinRequestRepository) scanJoinRequest(row *sql.Row) (*domain.JoinRequest, error) {
	jr := &domain.JoinRequest{}
	err := row.Scan(&jr.ID, &jr.EventID, &jr.UserID, &jr.Status, &jr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return jr, nil
}

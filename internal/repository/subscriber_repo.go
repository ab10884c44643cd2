package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/markdown-blog-api/internal/database"
	"github.com/markdown-blog-api/internal/models"
)

// subscriberRepo is the concrete implementation of SubscriberRepository
type subscriberRepo struct {
	db *database.DB
}

// NewSubscriberRepo creates a new subscriber repository
func NewSubscriberRepo(db *database.DB) SubscriberRepository {
	return &subscriberRepo{db: db}
}

// Create inserts a new subscriber. A duplicate email yields ErrConflict.
func (r *subscriberRepo) Create(ctx context.Context, subscriber *models.Subscriber) error {
	query := `
		INSERT INTO subscribers (id, email, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, subscriber.ID, subscriber.Email, subscriber.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("subscriber %s: %w", subscriber.Email, ErrConflict)
	}
	return err
}

// DeleteByEmail removes a subscriber
func (r *subscriberRepo) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscribers WHERE email = $1", email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("subscriber %s: %w", email, ErrNotFound)
	}
	return nil
}

// Exists checks if the email is subscribed
func (r *subscriberRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM subscribers WHERE email = $1)", email).Scan(&exists)
	return exists, err
}

// Count returns the total number of subscribers
func (r *subscriberRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscribers").Scan(&count)
	return count, err
}

// StreamAll streams every subscriber to callback in signup order
func (r *subscriberRepo) StreamAll(ctx context.Context, callback func(*models.Subscriber) error) error {
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, created_at FROM subscribers ORDER BY created_at")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return err
		}
		if err := callback(&s); err != nil {
			return err
		}
	}

	return rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

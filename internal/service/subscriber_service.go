package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// subscriberService is the concrete implementation of SubscriberService
type subscriberService struct {
	subscribers repository.SubscriberRepository
	log         zerolog.Logger
}

func newSubscriberService(subscribers repository.SubscriberRepository, log zerolog.Logger) *subscriberService {
	return &subscriberService{
		subscribers: subscribers,
		log:         log.With().Str("service", "subscriber").Logger(),
	}
}

// Subscribe registers an email address. Already-subscribed addresses yield repository.ErrConflict.
func (s *subscriberService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = validation.NormalizeEmail(email)
	if errs := validation.ValidateEmail(email); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, validation.Summary(errs))
	}

	exists, err := s.subscribers.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("subscriber %s: %w", email, repository.ErrConflict)
	}

	// The unique index still rejects a concurrent duplicate with ErrConflict
	subscriber := &models.Subscriber{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.subscribers.Create(ctx, subscriber); err != nil {
		return nil, err
	}

	s.log.Info().Str("subscriber_id", subscriber.ID).Msg("New subscriber")
	return subscriber, nil
}

// Unsubscribe removes an email address
func (s *subscriberService) Unsubscribe(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if errs := validation.ValidateEmail(email); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, validation.Summary(errs))
	}

	if err := s.subscribers.DeleteByEmail(ctx, email); err != nil {
		return err
	}

	s.log.Info().Msg("Subscriber removed")
	return nil
}

// Count returns the number of subscribers
func (s *subscriberService) Count(ctx context.Context) (int, error) {
	return s.subscribers.Count(ctx)
}

package repository

import (
	"context"

	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/database"
	"github.com/markdown-blog-api/internal/models"
	"github.com/rs/zerolog"
)

// PostRepository defines the persistence operations for posts.
// Ids are the directory-safe strings produced by slug.Derive.
type PostRepository interface {
	List(ctx context.Context) ([]*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	GetBinned(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, input *models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id string, input *models.PostInput) (*models.Post, error)
	SoftDelete(ctx context.Context, id string) error
}

// SubscriberRepository defines the interface for subscriber data operations
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *models.Subscriber) error
	DeleteByEmail(ctx context.Context, email string) error
	Exists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Subscriber) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post       PostRepository
	Subscriber SubscriberRepository
}

// New creates all repositories
func New(db *database.DB, storage *config.StorageConfig, log zerolog.Logger) (*Repositories, error) {
	posts, err := NewPostRepo(storage, log)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Post:       posts,
		Subscriber: NewSubscriberRepo(db),
	}, nil
}

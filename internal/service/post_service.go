package service

import (
	"context"
	"sort"
	"strings"

	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// postService is the concrete implementation of PostService
type postService struct {
	posts    repository.PostRepository
	notifier NotificationService
	log      zerolog.Logger
}

// newPostService creates a new PostService
func newPostService(posts repository.PostRepository, notifier NotificationService, log zerolog.Logger) *postService {
	return &postService{
		posts:    posts,
		notifier: notifier,
		log:      log.With().Str("service", "post").Logger(),
	}
}

// List returns all active posts, newest first unless sortBy is "title"
func (s *postService) List(ctx context.Context, sortBy string) ([]*models.Post, error) {
	if sortBy == "" {
		sortBy = "timestamp"
	}
	if !models.ValidSortFields[sortBy] {
		return nil, ErrInvalidSort
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	switch sortBy {
	case "title":
		sort.SliceStable(posts, func(i, j int) bool {
			return strings.ToLower(posts[i].Title) < strings.ToLower(posts[j].Title)
		})
	case "timestamp":
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Time().After(posts[j].Time())
		})
	}

	return posts, nil
}

// Get retrieves a post by id
func (s *postService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.Get(ctx, id)
}

// Create stores a new post and announces it to subscribers
func (s *postService) Create(ctx context.Context, input *models.PostInput) (*models.Post, error) {
	post, err := s.posts.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyNewPost(post)
	return post, nil
}

// Update overwrites a post, possibly moving it to a new id
func (s *postService) Update(ctx context.Context, id string, input *models.PostInput) (*models.Post, error) {
	return s.posts.Update(ctx, id, input)
}

// Delete moves a post to the bin
func (s *postService) Delete(ctx context.Context, id string) error {
	return s.posts.SoftDelete(ctx, id)
}

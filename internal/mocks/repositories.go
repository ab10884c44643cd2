package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/slug"
)

// MockPostRepository is an in-memory implementation of PostRepository
type MockPostRepository struct {
	mu        sync.Mutex
	Posts     map[string]*models.Post
	Bin       map[string]*models.Post
	ListError error
	Now       func() time.Time
}

// Verify interface compliance
var _ repository.PostRepository = (*MockPostRepository)(nil)

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		Posts: make(map[string]*models.Post),
		Bin:   make(map[string]*models.Post),
		Now:   time.Now,
	}
}

func (m *MockPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	ids := make([]string, 0, len(m.Posts))
	for id := range m.Posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		p := *m.Posts[id]
		posts = append(posts, &p)
	}
	return posts, nil
}

func (m *MockPostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	return m.get(m.Posts, id)
}

func (m *MockPostRepository) GetBinned(ctx context.Context, id string) (*models.Post, error) {
	return m.get(m.Bin, id)
}

func (m *MockPostRepository) get(store map[string]*models.Post, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slug.Valid(id) {
		return nil, fmt.Errorf("post id %q: %w", id, repository.ErrInvalidIdentity)
	}
	p, ok := store[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (m *MockPostRepository) Create(ctx context.Context, input *models.PostInput) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := slug.Derive(input.Title)
	if id == "" {
		return nil, repository.ErrInvalidIdentity
	}
	if _, exists := m.Posts[id]; exists {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrConflict)
	}

	post := m.newPost(id, input)
	m.Posts[id] = post
	out := *post
	return &out, nil
}

func (m *MockPostRepository) Update(ctx context.Context, id string, input *models.PostInput) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slug.Valid(id) {
		return nil, repository.ErrInvalidIdentity
	}
	newID := slug.Derive(input.Title)
	if newID == "" {
		return nil, repository.ErrInvalidIdentity
	}
	if _, exists := m.Posts[id]; !exists {
		return nil, fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	if newID != id {
		if _, exists := m.Posts[newID]; exists {
			return nil, fmt.Errorf("post %s: %w", newID, repository.ErrConflict)
		}
		delete(m.Posts, id)
	}

	post := m.newPost(newID, input)
	m.Posts[newID] = post
	out := *post
	return &out, nil
}

func (m *MockPostRepository) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slug.Valid(id) {
		return repository.ErrInvalidIdentity
	}
	p, exists := m.Posts[id]
	if !exists {
		return fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	delete(m.Posts, id)
	m.Bin[id] = p
	return nil
}

func (m *MockPostRepository) newPost(id string, input *models.PostInput) *models.Post {
	return &models.Post{
		ID:         id,
		Title:      input.Title,
		Author:     input.Author,
		Email:      input.Email,
		Timestamp:  models.NewTimestamp(m.Now()),
		Content:    input.Content,
		FontFamily: input.FontFamily,
		FontSize:   input.FontSize,
	}
}

// MockSubscriberRepository is a mock implementation of SubscriberRepository
type MockSubscriberRepository struct {
	mu          sync.Mutex
	Subscribers []*models.Subscriber
	InsertError error
	StreamError error
}

// Verify interface compliance
var _ repository.SubscriberRepository = (*MockSubscriberRepository)(nil)

func NewMockSubscriberRepository() *MockSubscriberRepository {
	return &MockSubscriberRepository{
		Subscribers: make([]*models.Subscriber, 0),
	}
}

func (m *MockSubscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}
	for _, s := range m.Subscribers {
		if s.Email == subscriber.Email {
			return fmt.Errorf("subscriber %s: %w", subscriber.Email, repository.ErrConflict)
		}
	}
	m.Subscribers = append(m.Subscribers, subscriber)
	return nil
}

func (m *MockSubscriberRepository) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.Subscribers {
		if s.Email == email {
			m.Subscribers = append(m.Subscribers[:i], m.Subscribers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscriber %s: %w", email, repository.ErrNotFound)
}

func (m *MockSubscriberRepository) Exists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.Subscribers {
		if s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSubscriberRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Subscribers), nil
}

func (m *MockSubscriberRepository) StreamAll(ctx context.Context, callback func(*models.Subscriber) error) error {
	m.mu.Lock()
	subs := append([]*models.Subscriber(nil), m.Subscribers...)
	streamErr := m.StreamError
	m.mu.Unlock()

	if streamErr != nil {
		return streamErr
	}
	for _, s := range subs {
		if err := callback(s); err != nil {
			return err
		}
	}
	return nil
}

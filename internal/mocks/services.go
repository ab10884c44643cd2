package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/notify"
	"github.com/markdown-blog-api/internal/service"
)

// MockNotificationService records announcements instead of sending them
type MockNotificationService struct {
	mu       sync.Mutex
	Notified []*models.Post
	Started  bool
	Stopped  bool
}

// Verify interface compliance
var _ service.NotificationService = (*MockNotificationService)(nil)

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{Notified: make([]*models.Post, 0)}
}

func (m *MockNotificationService) Start(ctx context.Context) {
	m.mu.Lock()
	m.Started = true
	m.mu.Unlock()
}

func (m *MockNotificationService) Stop(ctx context.Context) {
	m.mu.Lock()
	m.Stopped = true
	m.mu.Unlock()
}

func (m *MockNotificationService) NotifyNewPost(post *models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, post)
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamPostsFunc func(ctx context.Context, w http.ResponseWriter, format string) error
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamPostsFunc != nil {
		return m.StreamPostsFunc(ctx, w, format)
	}
	return nil
}

// MockSettingsService returns a fixed font list
type MockSettingsService struct {
	FontList []string
	Err      error
}

// Verify interface compliance
var _ service.SettingsService = (*MockSettingsService)(nil)

func NewMockSettingsService(fonts ...string) *MockSettingsService {
	return &MockSettingsService{FontList: fonts}
}

func (m *MockSettingsService) Fonts() ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.FontList, nil
}

// MockNotifier captures sent messages
type MockNotifier struct {
	mu      sync.Mutex
	Sent    []notify.Message
	SendErr func(msg notify.Message) error
	// SentCh receives every message after it is recorded, if non-nil
	SentCh chan notify.Message
}

// Verify interface compliance
var _ notify.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Sent: make([]notify.Message, 0)}
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	if m.SendErr != nil {
		if err := m.SendErr(msg); err != nil {
			if m.SentCh != nil {
				m.SentCh <- msg
			}
			return err
		}
	}

	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()

	if m.SentCh != nil {
		m.SentCh <- msg
	}
	return nil
}

// Messages returns a snapshot of the sent messages
func (m *MockNotifier) Messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.Sent...)
}

package service

import (
	"context"
	"net/http"

	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/notify"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// PostService defines the interface for post operations
type PostService interface {
	List(ctx context.Context, sortBy string) ([]*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, input *models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id string, input *models.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// SubscriberService defines the interface for subscription management
type SubscriberService interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	Count(ctx context.Context) (int, error)
}

// NotificationService dispatches new-post emails in the background
type NotificationService interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	NotifyNewPost(post *models.Post)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error
}

// SettingsService exposes editor settings
type SettingsService interface {
	Fonts() ([]string, error)
}

// Services holds all service interfaces
type Services struct {
	Post         PostService
	Subscriber   SubscriberService
	Notification NotificationService
	Export       ExportService
	Settings     SettingsService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, notifier notify.Notifier, cfg *config.Config, log zerolog.Logger) *Services {
	notificationSvc := newNotificationService(repos.Subscriber, notifier, cfg, log)

	return &Services{
		Post:         newPostService(repos.Post, notificationSvc, log),
		Subscriber:   newSubscriberService(repos.Subscriber, log),
		Notification: notificationSvc,
		Export:       newExportService(repos.Post, log),
		Settings:     newSettingsService(cfg.Storage.FontsFile(), log),
	}
}

package service

import (
	"context"
	"sync"

	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/notify"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/rs/zerolog"
)

const notificationQueueSize = 64

// notificationService fans new-post announcements out to subscribers
type notificationService struct {
	subscribers repository.SubscriberRepository
	notifier    notify.Notifier
	siteURL     string
	enabled     bool
	log         zerolog.Logger

	queue chan *models.Post
	// stopLoop ends the dispatcher loop; abortSends cancels deliveries in flight
	stopLoop   context.CancelFunc
	abortSends context.CancelFunc
	sendCtx    context.Context
	loopDone   chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
	// Semaphore: buffered channel to limit concurrent deliveries
	sem chan struct{}
}

func newNotificationService(subscribers repository.SubscriberRepository, notifier notify.Notifier, cfg *config.Config, log zerolog.Logger) *notificationService {
	maxWorkers := cfg.Notify.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	log.Info().Int("max_workers", maxWorkers).Bool("enabled", cfg.Notify.Enabled).Msg("Initializing notification service")

	return &notificationService{
		subscribers: subscribers,
		notifier:    notifier,
		siteURL:     cfg.Mail.SiteURL,
		enabled:     cfg.Notify.Enabled,
		log:         log.With().Str("service", "notification").Logger(),
		queue:       make(chan *models.Post, notificationQueueSize),
		sem:         make(chan struct{}, maxWorkers),
	}
}

// NotifyNewPost queues an announcement without blocking the caller.
// Announcements are dropped when the queue is full.
func (s *notificationService) NotifyNewPost(post *models.Post) {
	if !s.enabled {
		return
	}

	select {
	case s.queue <- post:
		s.log.Debug().Str("post_id", post.ID).Msg("Announcement queued")
	default:
		s.log.Warn().Str("post_id", post.ID).Msg("Notification queue full, dropping announcement")
	}
}

// Start runs the dispatcher until ctx is cancelled or Stop is called.
// Deliveries outlive ctx; only Stop's deadline aborts them.
func (s *notificationService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	loopCtx, stopLoop := context.WithCancel(ctx)
	sendCtx, abortSends := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.stopLoop, s.abortSends, s.sendCtx, s.loopDone = stopLoop, abortSends, sendCtx, done
	s.mu.Unlock()
	defer close(done)

	s.log.Info().Msg("Notification dispatcher started")

	for {
		select {
		case <-loopCtx.Done():
			s.log.Info().Int("pending", len(s.queue)).Msg("Notification dispatcher stopping")
			return
		case post := <-s.queue:
			s.dispatch(sendCtx, post)
		}
	}
}

// Stop ends the dispatcher, announces everything still queued and waits for
// deliveries to finish. When ctx expires first, remaining sends are cancelled.
func (s *notificationService) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	abort := s.abortSends
	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			abort()
		case <-finished:
		}
	}()

	s.stopLoop()
	<-s.loopDone
	drained := s.drain()

	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.log.Info().Int("drained", drained).Msg("Notification dispatcher stopped")
	case <-ctx.Done():
		s.log.Warn().Err(ctx.Err()).Int("pending", len(s.queue)).Msg("Notification dispatcher stopped before deliveries finished")
	}

	abort()
	s.running = false
}

// drain dispatches whatever is left in the queue under the delivery context
func (s *notificationService) drain() int {
	n := 0
	for {
		select {
		case post := <-s.queue:
			if s.sendCtx.Err() != nil {
				return n
			}
			s.dispatch(s.sendCtx, post)
			n++
		default:
			return n
		}
	}
}

// dispatch acquires a worker slot and announces post in the background
func (s *notificationService) dispatch(ctx context.Context, post *models.Post) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	s.wg.Add(1)
	go func(p *models.Post) {
		defer s.wg.Done()
		defer func() { <-s.sem }()

		defer func() {
			if r := recover(); r != nil {
				s.log.Error().
					Interface("panic", r).
					Str("post_id", p.ID).
					Msg("Announcement panicked - recovered")
			}
		}()
		s.announce(ctx, p)
	}(post)
}

// announce sends one message per subscriber; failures are logged and skipped
func (s *notificationService) announce(ctx context.Context, post *models.Post) {
	sent, failed := 0, 0

	err := s.subscribers.StreamAll(ctx, func(sub *models.Subscriber) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := notify.NewPostMessage(post, sub.Email, s.siteURL)
		if err := s.notifier.Send(ctx, msg); err != nil {
			failed++
			s.log.Error().Err(err).Str("post_id", post.ID).Str("subscriber_id", sub.ID).Msg("Failed to notify subscriber")
			return nil
		}
		sent++
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to read subscribers")
	}

	s.log.Info().
		Str("post_id", post.ID).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Announcement finished")
}

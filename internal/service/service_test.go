package service_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/mocks"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/notify"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/service"
	"github.com/rs/zerolog"
)

type testEnv struct {
	services    *service.Services
	posts       *mocks.MockPostRepository
	subscribers *mocks.MockSubscriberRepository
	notifier    *mocks.MockNotifier
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	settingsDir := t.TempDir()
	os.WriteFile(filepath.Join(settingsDir, "fonts.yml"), []byte("- Arial\n- Georgia\n"), 0o644)

	cfg := &config.Config{
		Storage: config.StorageConfig{SettingsDir: settingsDir},
		Mail:    config.MailConfig{SiteURL: "https://blog.test"},
		Notify:  config.NotifyConfig{Enabled: true, MaxWorkers: 2},
	}
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{
		posts:       mocks.NewMockPostRepository(),
		subscribers: mocks.NewMockSubscriberRepository(),
		notifier:    mocks.NewMockNotifier(),
	}
	repos := &repository.Repositories{Post: env.posts, Subscriber: env.subscribers}
	env.services = service.NewServices(repos, env.notifier, cfg, zerolog.Nop())
	return env
}

func postInput(title string) *models.PostInput {
	return &models.PostInput{Title: title, Content: "body of " + title, Author: "A", Email: "a@x.com"}
}

func TestPostService_ListSorting(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"beta", "Alpha", "gamma"} {
		at := base.Add(time.Duration(i) * time.Hour)
		env.posts.Now = func() time.Time { return at }
		if _, err := env.services.Post.Create(ctx, postInput(title)); err != nil {
			t.Fatalf("Create(%s) failed: %v", title, err)
		}
	}

	byTime, err := env.services.Post.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := ids(byTime); got != "gamma,alpha,beta" {
		t.Errorf("Expected newest first, got %s", got)
	}

	byTitle, err := env.services.Post.List(ctx, "title")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := ids(byTitle); got != "alpha,beta,gamma" {
		t.Errorf("Expected title order, got %s", got)
	}

	if _, err := env.services.Post.List(ctx, "author"); !errors.Is(err, service.ErrInvalidSort) {
		t.Errorf("Expected ErrInvalidSort, got %v", err)
	}
}

func TestPostService_ListPropagatesStorageError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.posts.ListError = &repository.StorageError{Op: "readdir", Path: "/posts", Err: os.ErrPermission}

	_, err := env.services.Post.List(context.Background(), "")
	if !errors.Is(err, repository.ErrStorage) {
		t.Errorf("Expected storage error, got %v", err)
	}
}

func TestPostService_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	created, err := env.services.Post.Create(ctx, postInput("Draft"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "draft" {
		t.Fatalf("Expected id draft, got %s", created.ID)
	}

	if _, err := env.services.Post.Create(ctx, postInput("DRAFT")); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	updated, err := env.services.Post.Update(ctx, "draft", postInput("Final"))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != "final" {
		t.Errorf("Expected id final, got %s", updated.ID)
	}
	if _, err := env.services.Post.Get(ctx, "draft"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for old id, got %v", err)
	}

	if err := env.services.Post.Delete(ctx, "final"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := env.posts.Bin["final"]; !ok {
		t.Error("Expected post in bin")
	}
	if err := env.services.Post.Delete(ctx, "final"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSubscriberService_Subscribe(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	sub, err := env.services.Subscriber.Subscribe(ctx, "  Reader@Example.com ")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sub.Email != "reader@example.com" {
		t.Errorf("Expected normalized email, got %s", sub.Email)
	}
	if sub.ID == "" || sub.CreatedAt.IsZero() {
		t.Errorf("Expected id and created_at, got %+v", sub)
	}

	if _, err := env.services.Subscriber.Subscribe(ctx, "READER@example.com"); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate, got %v", err)
	}

	if _, err := env.services.Subscriber.Subscribe(ctx, "nope"); !errors.Is(err, service.ErrInvalidEmail) {
		t.Errorf("Expected ErrInvalidEmail, got %v", err)
	}

	count, _ := env.services.Subscriber.Count(ctx)
	if count != 1 {
		t.Errorf("Expected 1 subscriber, got %d", count)
	}
}

func TestSubscriberService_SubscribeChecksExistingFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.services.Subscriber.Subscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Any insert now fails, so a conflict can only come from the lookup
	env.subscribers.InsertError = errors.New("insert should not run")

	_, err := env.services.Subscriber.Subscribe(ctx, "reader@example.com")
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict from lookup, got %v", err)
	}

	if _, err := env.services.Subscriber.Subscribe(ctx, "other@example.com"); err == nil || errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected insert error for new address, got %v", err)
	}
}

func TestSubscriberService_Unsubscribe(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.services.Subscriber.Subscribe(ctx, "reader@example.com")

	if err := env.services.Subscriber.Unsubscribe(ctx, "Reader@Example.com"); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if err := env.services.Subscriber.Unsubscribe(ctx, "reader@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := env.services.Subscriber.Unsubscribe(ctx, ""); !errors.Is(err, service.ErrInvalidEmail) {
		t.Errorf("Expected ErrInvalidEmail, got %v", err)
	}
}

func TestNotificationService_AnnouncesNewPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.notifier.SentCh = make(chan notify.Message, 10)
	env.notifier.SendErr = func(msg notify.Message) error {
		if msg.To == "broken@example.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}

	for _, email := range []string{"one@example.com", "broken@example.com", "two@example.com"} {
		if _, err := env.services.Subscriber.Subscribe(ctx, email); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	go env.services.Notification.Start(ctx)
	defer env.services.Notification.Stop(context.Background())

	if _, err := env.services.Post.Create(ctx, postInput("Hello World")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-env.notifier.SentCh:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for message %d", i+1)
		}
	}

	sent := env.notifier.Messages()
	if len(sent) != 2 {
		t.Fatalf("Expected 2 delivered messages, got %d", len(sent))
	}
	for _, msg := range sent {
		if msg.Subject != "New post: Hello World" {
			t.Errorf("Unexpected subject %q", msg.Subject)
		}
		if !strings.Contains(msg.Body, "https://blog.test/viewer?id=hello_world") {
			t.Errorf("Body missing link: %q", msg.Body)
		}
	}
}

func TestNotificationService_UpdateDoesNotAnnounce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.notifier.SentCh = make(chan notify.Message, 10)

	env.services.Subscriber.Subscribe(ctx, "one@example.com")
	env.services.Post.Create(ctx, postInput("First"))

	go env.services.Notification.Start(ctx)
	defer env.services.Notification.Stop(context.Background())

	select {
	case <-env.notifier.SentCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for create announcement")
	}

	env.services.Post.Update(ctx, "first", postInput("First Edited"))

	select {
	case msg := <-env.notifier.SentCh:
		t.Errorf("Unexpected announcement for update: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotificationService_Disabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Notify.Enabled = false })
	ctx := context.Background()
	env.notifier.SentCh = make(chan notify.Message, 10)

	env.services.Subscriber.Subscribe(ctx, "one@example.com")

	go env.services.Notification.Start(ctx)
	defer env.services.Notification.Stop(context.Background())

	env.services.Post.Create(ctx, postInput("Quiet"))

	select {
	case msg := <-env.notifier.SentCh:
		t.Errorf("Expected no messages, got %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotificationService_StopIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)

	// Stop before Start is a no-op
	env.services.Notification.Stop(context.Background())

	started := make(chan struct{})
	go func() {
		close(started)
		env.services.Notification.Start(context.Background())
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	env.services.Notification.Stop(context.Background())
	env.services.Notification.Stop(context.Background())
}

func TestNotificationService_StopDeliversQueuedPosts(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Notify.MaxWorkers = 1 })
	ctx := context.Background()

	env.services.Subscriber.Subscribe(ctx, "one@example.com")
	env.services.Subscriber.Subscribe(ctx, "two@example.com")

	// The first send blocks until released so the rest stay queued
	firstSend := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	env.notifier.SendErr = func(msg notify.Message) error {
		blocked := false
		once.Do(func() { blocked = true })
		if blocked {
			close(firstSend)
			<-release
		}
		return nil
	}

	go env.services.Notification.Start(ctx)

	for _, title := range []string{"One", "Two", "Three", "Four"} {
		if _, err := env.services.Post.Create(ctx, postInput(title)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	select {
	case <-firstSend:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the first delivery")
	}

	stopped := make(chan struct{})
	go func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		env.services.Notification.Stop(stopCtx)
		close(stopped)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	if got := len(env.notifier.Messages()); got != 8 {
		t.Errorf("Expected 8 delivered messages, got %d", got)
	}
}

func TestNotificationService_StopHonoursDeadline(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.services.Subscriber.Subscribe(ctx, "one@example.com")

	sending := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	env.notifier.SendErr = func(msg notify.Message) error {
		sending <- struct{}{}
		<-release
		return nil
	}

	go env.services.Notification.Start(ctx)
	env.services.Post.Create(ctx, postInput("Stuck"))

	select {
	case <-sending:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for delivery to start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	env.services.Notification.Stop(stopCtx)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop ignored its deadline, took %v", elapsed)
	}
}

func TestExportService_StreamPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.services.Post.Create(ctx, postInput("One"))
	env.services.Post.Create(ctx, postInput("Two"))

	w := httptest.NewRecorder()
	if err := env.services.Export.StreamPosts(ctx, w, "ndjson"); err != nil {
		t.Fatalf("StreamPosts failed: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Unexpected content type %s", ct)
	}

	lines := 0
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		var p models.Post
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			t.Fatalf("Invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("Expected 2 lines, got %d", lines)
	}

	w = httptest.NewRecorder()
	if err := env.services.Export.StreamPosts(ctx, w, "json"); err != nil {
		t.Fatalf("StreamPosts(json) failed: %v", err)
	}
	var posts []models.Post
	if err := json.Unmarshal(w.Body.Bytes(), &posts); err != nil || len(posts) != 2 {
		t.Errorf("Expected JSON array of 2 posts, got %q (%v)", w.Body.String(), err)
	}

	if err := env.services.Export.StreamPosts(ctx, httptest.NewRecorder(), "csv"); !errors.Is(err, service.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSettingsService_Fonts(t *testing.T) {
	env := newTestEnv(t, nil)

	fonts, err := env.services.Settings.Fonts()
	if err != nil {
		t.Fatalf("Fonts failed: %v", err)
	}
	if strings.Join(fonts, ",") != "Arial,Georgia" {
		t.Errorf("Unexpected fonts %v", fonts)
	}

	missing := newTestEnv(t, func(cfg *config.Config) { cfg.Storage.SettingsDir = filepath.Join(t.TempDir(), "none") })
	if _, err := missing.services.Settings.Fonts(); !errors.Is(err, service.ErrSettingsUnavailable) {
		t.Errorf("Expected ErrSettingsUnavailable, got %v", err)
	}
}

func ids(posts []*models.Post) string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return strings.Join(out, ",")
}

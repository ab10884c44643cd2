package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/markdown-blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	posts repository.PostRepository
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(posts repository.PostRepository, log zerolog.Logger) *exportService {
	return &exportService{
		posts: posts,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamPosts writes every active post in the requested format
func (s *exportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	if format != "ndjson" && format != "json" {
		return ErrUnsupportedFormat
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return err
	}

	s.log.Info().Str("format", format).Int("count", len(posts)).Msg("Starting posts export")

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=posts.json")
		return json.NewEncoder(w).Encode(posts)
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.ndjson")

	flusher, _ := w.(http.Flusher)
	for i, post := range posts {
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))

		// Flush every 100 records for streaming
		if (i+1)%100 == 0 && flusher != nil {
			flusher.Flush()
		}
	}

	s.log.Info().Int("count", len(posts)).Msg("Posts export completed")
	return nil
}

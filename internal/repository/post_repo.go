package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/slug"
	"github.com/rs/zerolog"
)

const (
	detailsFile = "details.json"
	contentFile = "content.md"
)

// postDetails is the on-disk shape of details.json
type postDetails struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Email      string `json:"email"`
	Timestamp  string `json:"timestamp"`
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
}

// storedDetails also accepts the older authorName/authorEmail naming
type storedDetails struct {
	postDetails
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
}

// postRepo stores each post as a directory named by its id
type postRepo struct {
	postsDir string
	binDir   string
	locks    *keyLocker
	log      zerolog.Logger
	now      func() time.Time
}

// NewPostRepo creates a filesystem-backed post repository, creating both roots if needed
func NewPostRepo(cfg *config.StorageConfig, log zerolog.Logger) (PostRepository, error) {
	for _, dir := range []string{cfg.PostsDir, cfg.BinDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newStorageError("mkdir", dir, err)
		}
	}

	return &postRepo{
		postsDir: cfg.PostsDir,
		binDir:   cfg.BinDir,
		locks:    newKeyLocker(),
		log:      log.With().Str("component", "post_store").Logger(),
		now:      time.Now,
	}, nil
}

// List returns every readable post under the posts root in directory order.
// Entries missing either file, or whose name is not a valid id, are skipped.
func (r *postRepo) List(ctx context.Context) ([]*models.Post, error) {
	entries, err := os.ReadDir(r.postsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.Post{}, nil
		}
		return nil, newStorageError("readdir", r.postsDir, err)
	}

	posts := make([]*models.Post, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if !slug.Valid(entry.Name()) {
			r.log.Warn().Str("dir", entry.Name()).Msg("Skipping invalid post directory")
			continue
		}

		post, err := readPost(filepath.Join(r.postsDir, entry.Name()), entry.Name())
		if err != nil {
			r.log.Warn().Err(err).Str("dir", entry.Name()).Msg("Skipping invalid post directory")
			continue
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// Get loads a single active post
func (r *postRepo) Get(ctx context.Context, id string) (*models.Post, error) {
	return r.load(r.postsDir, id)
}

// GetBinned loads a soft-deleted post from the bin
func (r *postRepo) GetBinned(ctx context.Context, id string) (*models.Post, error) {
	return r.load(r.binDir, id)
}

// Create writes a new post under the id derived from its title
func (r *postRepo) Create(ctx context.Context, input *models.PostInput) (*models.Post, error) {
	id := slug.Derive(input.Title)
	if id == "" {
		return nil, fmt.Errorf("title %q: %w", input.Title, ErrInvalidIdentity)
	}

	unlock := r.locks.Lock(id)
	defer unlock()

	if err := os.MkdirAll(r.postsDir, 0o755); err != nil {
		return nil, newStorageError("mkdir", r.postsDir, err)
	}

	dir := filepath.Join(r.postsDir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("post %s: %w", id, ErrConflict)
		}
		return nil, newStorageError("mkdir", dir, err)
	}

	post := r.newPost(id, input)
	if err := writePost(dir, post); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.log.Error().Err(rmErr).Str("id", id).Msg("Failed to remove partially written post")
		}
		return nil, err
	}

	r.log.Info().Str("id", id).Msg("Post created")
	return post, nil
}

// Update overwrites a post, renaming its directory first when the title maps to a new id
func (r *postRepo) Update(ctx context.Context, id string, input *models.PostInput) (*models.Post, error) {
	if !slug.Valid(id) {
		return nil, fmt.Errorf("post id %q: %w", id, ErrInvalidIdentity)
	}
	newID := slug.Derive(input.Title)

	keys := []string{id}
	if newID != "" {
		keys = append(keys, newID)
	}
	unlock := r.locks.Lock(keys...)
	defer unlock()

	oldDir := filepath.Join(r.postsDir, id)
	exists, err := dirExists(oldDir)
	if err != nil {
		return nil, newStorageError("stat", oldDir, err)
	}
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if newID == "" {
		return nil, fmt.Errorf("title %q: %w", input.Title, ErrInvalidIdentity)
	}

	newDir := filepath.Join(r.postsDir, newID)
	if newID != id {
		occupied, err := pathExists(newDir)
		if err != nil {
			return nil, newStorageError("stat", newDir, err)
		}
		if occupied {
			return nil, fmt.Errorf("post %s: %w", newID, ErrConflict)
		}
		if err := os.Rename(oldDir, newDir); err != nil {
			return nil, newStorageError("rename", oldDir, err)
		}
		r.log.Info().Str("from", id).Str("to", newID).Msg("Post renamed")
	}

	post := r.newPost(newID, input)
	if err := writePost(newDir, post); err != nil {
		return nil, err
	}

	r.log.Info().Str("id", newID).Msg("Post updated")
	return post, nil
}

// SoftDelete moves a post into the bin, replacing any binned post with the same id
func (r *postRepo) SoftDelete(ctx context.Context, id string) error {
	if !slug.Valid(id) {
		return fmt.Errorf("post id %q: %w", id, ErrInvalidIdentity)
	}

	unlock := r.locks.Lock(id)
	defer unlock()

	src := filepath.Join(r.postsDir, id)
	exists, err := dirExists(src)
	if err != nil {
		return newStorageError("stat", src, err)
	}
	if !exists {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	if err := os.MkdirAll(r.binDir, 0o755); err != nil {
		return newStorageError("mkdir", r.binDir, err)
	}

	dst := filepath.Join(r.binDir, id)
	if err := os.RemoveAll(dst); err != nil {
		return newStorageError("remove", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return newStorageError("rename", src, err)
	}

	r.log.Info().Str("id", id).Msg("Post moved to bin")
	return nil
}

func (r *postRepo) load(root, id string) (*models.Post, error) {
	if !slug.Valid(id) {
		return nil, fmt.Errorf("post id %q: %w", id, ErrInvalidIdentity)
	}

	post, err := readPost(filepath.Join(root, id), id)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w (%v)", id, ErrNotFound, err)
	}
	return post, nil
}

func (r *postRepo) newPost(id string, input *models.PostInput) *models.Post {
	return &models.Post{
		ID:         id,
		Title:      input.Title,
		Author:     input.Author,
		Email:      input.Email,
		Timestamp:  models.NewTimestamp(r.now()),
		Content:    input.Content,
		FontFamily: input.FontFamily,
		FontSize:   input.FontSize,
	}
}

// readPost loads details.json and content.md from dir
func readPost(dir, id string) (*models.Post, error) {
	raw, err := os.ReadFile(filepath.Join(dir, detailsFile))
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(dir, contentFile))
	if err != nil {
		return nil, err
	}

	var details storedDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("parse %s: %w", detailsFile, err)
	}
	if details.Author == "" {
		details.Author = details.AuthorName
	}
	if details.Email == "" {
		details.Email = details.AuthorEmail
	}

	return &models.Post{
		ID:         id,
		Title:      details.Title,
		Author:     details.Author,
		Email:      details.Email,
		Timestamp:  details.Timestamp,
		Content:    string(content),
		FontFamily: details.FontFamily,
		FontSize:   details.FontSize,
	}, nil
}

// writePost replaces both files of a post; metadata goes first
func writePost(dir string, post *models.Post) error {
	details, err := encodeDetails(&postDetails{
		Title:      post.Title,
		Author:     post.Author,
		Email:      post.Email,
		Timestamp:  post.Timestamp,
		FontFamily: post.FontFamily,
		FontSize:   post.FontSize,
	})
	if err != nil {
		return newStorageError("encode", filepath.Join(dir, detailsFile), err)
	}

	if err := writeFileAtomic(dir, detailsFile, details); err != nil {
		return newStorageError("write", filepath.Join(dir, detailsFile), err)
	}
	if err := writeFileAtomic(dir, contentFile, []byte(post.Content)); err != nil {
		return newStorageError("write", filepath.Join(dir, contentFile), err)
	}
	return nil
}

// encodeDetails produces two-space indented JSON without HTML escaping or a trailing newline
func encodeDetails(d *postDetails) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 raw, as JSON.stringify does.
// encoding/json always escapes them, even with HTML escaping off.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// other escape pairs pass through whole
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// writeFileAtomic writes to a hidden temp file in dir and renames it over name
func writeFileAtomic(dir, name string, data []byte) error {
	tmp := filepath.Join(dir, "."+name+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

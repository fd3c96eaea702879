// Package drafts keeps local copies of workflows that have not been saved to
// the workflow service yet.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrDraftNotFound indicates no draft exists under the given key.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrInvalidKey indicates a key that cannot be used as a storage name.
	ErrInvalidKey = errors.New("invalid draft key")

	// ErrUnsupportedURL indicates a store URL with an unknown scheme.
	ErrUnsupportedURL = errors.New("unsupported drafts url")
)

// Draft is a stored workflow. List leaves Workflow nil.
type Draft struct {
	Key      string           `json:"key"`
	Name     string           `json:"name"`
	SavedAt  time.Time        `json:"savedAt"`
	Workflow *models.Workflow `json:"-"`
}

// Store persists drafts by key.
type Store interface {
	Save(ctx context.Context, key string, workflow *models.Workflow) (*Draft, error)
	Load(ctx context.Context, key string) (*Draft, error)
	// List returns drafts newest first.
	List(ctx context.Context) ([]Draft, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks a backend from the URL scheme: file (or a bare path), redis,
// postgres.
func Open(ctx context.Context, logger *slog.Logger, rawURL string) (Store, error) { //nolint:ireturn
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	}

	if !strings.Contains(rawURL, "://") {
		return NewFileStore(rawURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}

	switch parsed.Scheme {
	case "file":
		return NewFileStore(parsed.Host + parsed.Path)
	case "redis", "rediss":
		return OpenRedis(ctx, rawURL)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, logger, rawURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, parsed.Scheme)
	}
}

// KeyFor returns the workflow id, or a fresh random key for unsaved workflows.
func KeyFor(w *models.Workflow) string {
	if w != nil && w.ID != "" && validKey(w.ID) == nil {
		return w.ID
	}

	return "draft-" + uuid.NewString()
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

func validKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}

type envelope struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	SavedAt  time.Time       `json:"savedAt"`
	Workflow json.RawMessage `json:"workflow"`
}

func encode(key string, w *models.Workflow, savedAt time.Time) (*Draft, []byte, error) {
	err := validKey(key)
	if err != nil {
		return nil, nil, err
	}

	workflow, err := models.EncodeWorkflow(w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode draft %s: %w", key, err)
	}

	draft := &Draft{Key: key, Name: w.Name, SavedAt: savedAt.UTC(), Workflow: w.Clone()}

	data, err := json.Marshal(envelope{Key: key, Name: w.Name, SavedAt: draft.SavedAt, Workflow: workflow})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode draft %s: %w", key, err)
	}

	return draft, data, nil
}

func decode(data []byte) (*Draft, error) {
	var env envelope

	err := json.Unmarshal(data, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}

	w, err := models.DecodeWorkflow(env.Workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", env.Key, err)
	}

	return &Draft{Key: env.Key, Name: env.Name, SavedAt: env.SavedAt, Workflow: w}, nil
}

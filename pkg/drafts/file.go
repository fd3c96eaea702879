package drafts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
)

// FileStore keeps one JSON file per draft under root.
type FileStore struct {
	root string
	now  func() time.Time
}

func NewFileStore(root string) (*FileStore, error) {
	err := os.MkdirAll(root, 0o750)
	if err != nil {
		return nil, fmt.Errorf("failed to create drafts directory: %w", err)
	}

	return &FileStore{root: root, now: time.Now}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, key+".json")
}

func (s *FileStore) Save(_ context.Context, key string, w *models.Workflow) (*Draft, error) {
	draft, data, err := encode(key, w, s.now())
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.root, key+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to write draft %s: %w", key, err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmp.Name(), s.path(key))
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return nil, fmt.Errorf("failed to write draft %s: %w", key, err)
	}

	return draft, nil
}

func (s *FileStore) Load(_ context.Context, key string) (*Draft, error) {
	err := validKey(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", key, err)
	}

	return decode(data)
}

func (s *FileStore) List(ctx context.Context) ([]Draft, error) {
	files, err := fs.Glob(os.DirFS(s.root), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list draft files: %w", err)
	}

	drafts := make([]Draft, 0, len(files))

	for _, file := range files {
		draft, err := s.Load(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		draft.Workflow = nil
		drafts = append(drafts, *draft)
	}

	sortNewestFirst(drafts)

	return drafts, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := validKey(key)
	if err != nil {
		return err
	}

	err = os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	return err
}

func (s *FileStore) Close() error {
	return nil
}

func sortNewestFirst(drafts []Draft) {
	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].SavedAt.Equal(drafts[j].SavedAt) {
			return drafts[i].Key < drafts[j].Key
		}

		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
}

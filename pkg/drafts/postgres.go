package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresStore keeps drafts in the flowcanvas_drafts table.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenPostgres connects, pings and migrates the schema.
func OpenPostgres(ctx context.Context, logger *slog.Logger, databaseURL string) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	err = newMigrationManager(logger, db, migrations()).run(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db, logger: logger.With("module", "drafts"), now: time.Now}, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, w *models.Workflow) (*Draft, error) {
	draft, data, err := encode(key, w, s.now())
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flowcanvas_drafts (key, name, payload, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET name = EXCLUDED.name, payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at
	`, key, draft.Name, data, draft.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft %s: %w", key, err)
	}

	s.logger.DebugContext(ctx, "draft saved", "key", key)

	return draft, nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) (*Draft, error) {
	err := validKey(key)
	if err != nil {
		return nil, err
	}

	var data []byte

	err = s.db.QueryRowContext(ctx, "SELECT payload FROM flowcanvas_drafts WHERE key = $1", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	return decode(data)
}

func (s *PostgresStore) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, name, saved_at FROM flowcanvas_drafts ORDER BY saved_at DESC, key ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	drafts := make([]Draft, 0)

	for rows.Next() {
		var draft Draft

		err = rows.Scan(&draft.Key, &draft.Name, &draft.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}

		draft.SavedAt = draft.SavedAt.UTC()
		drafts = append(drafts, draft)
	}

	return drafts, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	err := validKey(key)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM flowcanvas_drafts WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

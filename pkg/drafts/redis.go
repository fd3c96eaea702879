package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "flowcanvas:"

// RedisStore keeps drafts as:
//
//	<prefix>draft:<key>   => JSON envelope
//	<prefix>drafts        => ZSET of keys scored by save time
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// OpenRedis connects to a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) keyDraft(key string) string {
	return s.prefix + "draft:" + key
}

func (s *RedisStore) keyIndex() string {
	return s.prefix + "drafts"
}

func (s *RedisStore) Save(ctx context.Context, key string, w *models.Workflow) (*Draft, error) {
	draft, data, err := encode(key, w, s.now())
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keyDraft(key), data, 0)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(draft.SavedAt.UnixMilli()), Member: key})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to save draft %s: %w", key, err)
	}

	return draft, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Draft, error) {
	err := validKey(key)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.keyDraft(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	return decode(data)
}

func (s *RedisStore) List(ctx context.Context) ([]Draft, error) {
	keys, err := s.client.ZRevRange(ctx, s.keyIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	drafts := make([]Draft, 0, len(keys))

	for _, key := range keys {
		draft, err := s.Load(ctx, key)
		if errors.Is(err, ErrDraftNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		draft.Workflow = nil
		drafts = append(drafts, *draft)
	}

	sortNewestFirst(drafts)

	return drafts, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := validKey(key)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	deleted := pipe.Del(ctx, s.keyDraft(key))
	pipe.ZRem(ctx, s.keyIndex(), key)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}

	if deleted.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, key)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

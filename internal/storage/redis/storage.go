package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRoundResult(ctx context.Context, result *model.RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := roundsKey(s.cfg.RunID)

	// Newest result sits at the head of the list
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.MaxResults > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.cfg.MaxResults-1))
	}
	if s.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.HistoryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRoundResults(ctx context.Context, limit int) ([]*model.RoundResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	raw, err := s.client.LRange(ctx, roundsKey(s.cfg.RunID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.RoundResult, 0, len(raw))
	for _, item := range raw {
		var r model.RoundResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, err
		}
		results = append(results, &r)
	}
	return results, nil
}

func (s *Storage) CountRoundResults(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, roundsKey(s.cfg.RunID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

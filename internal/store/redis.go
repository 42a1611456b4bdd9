package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
)

// Redis persists both slots as JSON blobs under a key prefix. Blobs have no
// TTL: a teaching session ends when the teacher creates a new quiz, not by
// expiry.
type Redis struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedis creates a redis-backed store. An empty prefix defaults to "quizsnap".
func NewRedis(client *redis.Client, prefix string, logger zerolog.Logger) *Redis {
	if prefix == "" {
		prefix = "quizsnap"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func (r *Redis) LoadQuiz(ctx context.Context) (quiz.Master, bool) {
	data, ok := r.read(ctx, slotQuiz)
	if !ok {
		return nil, false
	}
	master, ok := decodeQuiz(data)
	if !ok {
		r.logger.Warn().Str("slot", slotQuiz).Msg("discarding malformed quiz blob")
	}
	return master, ok
}

func (r *Redis) SaveQuiz(ctx context.Context, master quiz.Master) error {
	return r.write(ctx, slotQuiz, master)
}

func (r *Redis) ClearQuiz(ctx context.Context) error {
	return r.client.Del(ctx, r.key(slotQuiz)).Err()
}

func (r *Redis) LoadBoard(ctx context.Context) ([]leaderboard.Entry, bool) {
	data, ok := r.read(ctx, slotBoard)
	if !ok {
		return nil, false
	}
	entries, ok := decodeBoard(data)
	if !ok {
		r.logger.Warn().Str("slot", slotBoard).Msg("discarding malformed leaderboard blob")
	}
	return entries, ok
}

func (r *Redis) SaveBoard(ctx context.Context, entries []leaderboard.Entry) error {
	return r.write(ctx, slotBoard, entries)
}

func (r *Redis) ClearBoard(ctx context.Context) error {
	return r.client.Del(ctx, r.key(slotBoard)).Err()
}

func (r *Redis) read(ctx context.Context, slot string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("slot", slot).Msg("read failed, treating as absent")
		return nil, false
	}
	return data, true
}

func (r *Redis) write(ctx context.Context, slot string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", slot, err)
	}
	if err := r.client.Set(ctx, r.key(slot), data, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	return nil
}

func (r *Redis) key(slot string) string {
	return fmt.Sprintf("%s:%s", r.prefix, slot)
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"focusd/internal/session"
	"focusd/internal/storage"
	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "focusd:record:"
	recordIndexKey  = "focusd:records" // sorted set, score = started_at unix nanos
)

type recordStore struct {
	client *redis.Client
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

func (s *recordStore) Add(ctx context.Context, rec session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, recordIndexKey, redis.Z{
		Score:  float64(rec.StartedAt.UnixNano()),
		Member: rec.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *recordStore) Get(ctx context.Context, id string) (*session.Record, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *recordStore) List(ctx context.Context, limit int) ([]session.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, recordIndexKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ids)
}

func (s *recordStore) ListDay(ctx context.Context, day string) ([]session.Record, error) {
	dayStart, err := time.ParseInLocation(storage.DayFormat, day, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	ids, err := s.client.ZRevRangeByScore(ctx, recordIndexKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(dayStart.UnixNano(), 10),
		Max: "(" + strconv.FormatInt(dayEnd.UnixNano(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, ids)
}

func (s *recordStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	max := "(" + strconv.FormatInt(cutoff.UnixNano(), 10)

	ids, err := s.client.ZRangeByScore(ctx, recordIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRemRangeByScore(ctx, recordIndexKey, "-inf", max)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return len(ids), nil
}

// fetch retrieves records by ID preserving the given order. IDs whose record
// key has vanished are skipped rather than failing the whole read.
func (s *recordStore) fetch(ctx context.Context, ids []string) ([]session.Record, error) {
	records := make([]session.Record, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var rec session.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

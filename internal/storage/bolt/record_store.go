package bolt

import (
	"context"
	"fmt"
	"time"

	"focusd/internal/session"
	"focusd/internal/storage"
	"go.etcd.io/bbolt"
)

type recordStore struct {
	db *bbolt.DB
}

func (s *recordStore) Add(ctx context.Context, rec session.Record) error {
	data, err := marshal(rec)
	if err != nil {
		return err
	}
	key := recordKey(rec.StartedAt, rec.ID)

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		records := tx.Bucket([]byte(bucketRecords))
		if records == nil {
			return fmt.Errorf("records bucket missing")
		}
		if err := records.Put([]byte(key), data); err != nil {
			return err
		}
		index := tx.Bucket([]byte(bucketByID))
		if index == nil {
			return fmt.Errorf("record index bucket missing")
		}
		return index.Put([]byte(rec.ID), []byte(key))
	})
}

func (s *recordStore) Get(ctx context.Context, id string) (*session.Record, error) {
	var rec *session.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		index := tx.Bucket([]byte(bucketByID))
		if index == nil {
			return storage.ErrNotFound
		}
		key := index.Get([]byte(id))
		if key == nil {
			return storage.ErrNotFound
		}
		value := tx.Bucket([]byte(bucketRecords)).Get(key)
		if value == nil {
			return storage.ErrNotFound
		}
		var result session.Record
		if err := unmarshal(value, &result); err != nil {
			return err
		}
		rec = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordStore) List(ctx context.Context, limit int) ([]session.Record, error) {
	records := make([]session.Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if limit > 0 && len(records) >= limit {
				return nil
			}
			var rec session.Record
			if err := unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *recordStore) ListDay(ctx context.Context, day string) ([]session.Record, error) {
	records := make([]session.Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var rec session.Record
			if err := unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.StartedAt.Format(storage.DayFormat) == day {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *recordStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	return deleted, s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		records := tx.Bucket([]byte(bucketRecords))
		index := tx.Bucket([]byte(bucketByID))
		if records == nil || index == nil {
			return nil
		}
		c := records.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var rec session.Record
			if err := unmarshal(v, &rec); err != nil {
				return err
			}
			// Keys are chronological, so the first kept record ends
			// the scan.
			if !rec.StartedAt.Before(cutoff) {
				return nil
			}
			if err := c.Delete(); err != nil {
				return err
			}
			if err := index.Delete([]byte(rec.ID)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
}

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	BucketSweeps = "sweeps"
)

var ErrNotFound = errors.New("sweep not found")

type Store struct {
	db       *bbolt.DB
	filePath string
}

// DefaultPath is $HOME/.abchart/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".abchart", "history.db"), nil
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketSweeps))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		filePath: path,
	}, nil
}

func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(rec SweepRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketSweeps))

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return b.Put([]byte(rec.ID), data)
	})
}

// List returns every record, newest first.
func (s *Store) List() ([]SweepRecord, error) {
	var items []SweepRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketSweeps)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item SweepRecord
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Get accepts a full ID or a unique prefix of one.
func (s *Store) Get(id string) (*SweepRecord, error) {
	var item SweepRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketSweeps)).Cursor()

		prefix := []byte(id)
		k, v := c.Seek(prefix)
		if len(prefix) == 0 || k == nil || !bytes.HasPrefix(k, prefix) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !bytes.Equal(k, prefix) {
			if next, _ := c.Next(); next != nil && bytes.HasPrefix(next, prefix) {
				return fmt.Errorf("ambiguous sweep id prefix %q", id)
			}
		}
		return json.Unmarshal(v, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

package kvdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meghashyamc/incsearch/config"
	"github.com/meghashyamc/incsearch/logger"
	bolt "go.etcd.io/bbolt"
)

type BoltDB struct {
	store  *bolt.DB
	logger logger.Logger
}

func New(logger logger.Logger, cfg *config.Config) (*BoltDB, error) {
	return Open(logger, filepath.Join(cfg.GetStoragePath(), cfg.GetKVDBPath()))
}

func Open(logger logger.Logger, kvDBPath string) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(kvDBPath), 0755); err != nil {
		logger.Error("failed to create key-value database directory", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to create key-value database directory: %w", err)
	}

	store, err := bolt.Open(kvDBPath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		logger.Error("failed to open database", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	boltDB := &BoltDB{
		store:  store,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

func (b *BoltDB) initBuckets() error {
	return b.store.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				b.logger.Error("failed to create bucket", "bucket", name, "err", err.Error())
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (b *BoltDB) Set(bucketName string, key string, value string) error {
	return b.SetBatch(bucketName, map[string]string{key: value})
}

// SetBatch writes all values in a single transaction.
func (b *BoltDB) SetBatch(bucketName string, values map[string]string) error {
	for key := range values {
		if key == "" {
			b.logger.Error("key cannot be empty", "bucket", bucketName)
			return &InvalidKeyError{
				Key:    key,
				Reason: "key cannot be empty",
			}
		}
	}

	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", bucketName)
			return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketName)
		}

		for key, value := range values {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				b.logger.Error("failed to set key", "key", key, "err", err.Error())
				return fmt.Errorf("failed to set key %s: %w", key, err)
			}
		}

		return nil
	})
}

func (b *BoltDB) Get(bucketName string, key string) (string, error) {
	if key == "" {
		b.logger.Error("key cannot be empty", "key", key)
		return "", &InvalidKeyError{
			Key:    key,
			Reason: "key cannot be empty",
		}
	}

	var value []byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", bucketName)
			return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketName)
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return &NotFoundError{Bucket: bucketName, Key: key}
		}

		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})

	if err != nil {
		var notFoundErr *NotFoundError
		if errors.As(err, &notFoundErr) {
			b.logger.Warn("key not found", "bucket", bucketName, "key", key)
			return "", notFoundErr
		}
		return "", err
	}

	return string(value), nil
}

func (b *BoltDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}

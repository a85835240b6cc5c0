package localcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krislybeauty/storefront/pkg/db"
)

// Entry is one cached blob row.
type Entry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"column:cache_key;primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Entry) TableName() string { return "storefront_cache_entries" }

// SQLStore persists blobs through GORM (sqlite or postgres). Writes run in a transaction.
type SQLStore struct {
	client    *db.Client
	db        *gorm.DB
	namespace string
}

// NewSQLStore constructs a store bound to the provided client and namespace.
func NewSQLStore(client *db.Client, namespace string) *SQLStore {
	return &SQLStore{client: client, db: client.DB(), namespace: namespace}
}

// Migrate creates the cache table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("migrating cache table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND cache_key = ?", s.namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set upserts the value for key.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := Entry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
	})
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Where("namespace = ? AND cache_key = ?", s.namespace, key).
			Delete(&Entry{}).Error
	})
}

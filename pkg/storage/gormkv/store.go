// Package gormkv stores dashboard documents in a SQL table through gorm.
package gormkv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// DriverNameSQLite identifies the pure-Go SQLite driver.
const DriverNameSQLite = "sqlite"

var (
	// ErrMissingDataSourceName indicates the DSN was omitted.
	ErrMissingDataSourceName = errors.New("gormkv: missing database data source name")
	// ErrUnsupportedDriver indicates the driver is not supported.
	ErrUnsupportedDriver = errors.New("gormkv: unsupported database driver")
)

// Config captures database connection configuration.
type Config struct {
	DriverName     string
	DataSourceName string
}

// Document is one stored key.
type Document struct {
	Key       string `gorm:"column:doc_key;primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Document) TableName() string { return "dashboard_documents" }

// Store implements dashboard.KVStore on a gorm database.
type Store struct {
	db *gorm.DB
}

var _ dashboard.KVStore = (*Store)(nil)

// Open connects to the database and migrates the documents table.
func Open(cfg Config) (*Store, error) {
	driver := strings.TrimSpace(cfg.DriverName)
	if driver == "" {
		driver = DriverNameSQLite
	}
	if driver != DriverNameSQLite {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	dsn := strings.TrimSpace(cfg.DataSourceName)
	if dsn == "" {
		return nil, ErrMissingDataSourceName
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gormkv: open sqlite database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormkv: database is required")
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("gormkv: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the stored value or dashboard.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("doc_key = ?", key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dashboard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gormkv: get %s: %w", key, err)
	}
	return doc.Value, nil
}

// Put upserts the value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	doc := Document{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("gormkv: put %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

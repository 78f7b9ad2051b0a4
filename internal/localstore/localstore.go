// Package localstore is the durable guest-side store. Cart and wishlist
// contents for unauthenticated visitors are held here as one JSON array per
// record key and survive gateway restarts.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trendora/storefront/internal/logging"
)

type Record struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "guest_records"
}

type Store struct {
	DB *gorm.DB
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Open picks the driver from the DSN: postgres URLs go through the postgres
// driver with a tuned pool, anything else is treated as a sqlite path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("guest store DSN is empty")
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open guest store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB from gorm: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping guest store: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate guest store: %w", err)
	}

	return &Store{DB: db}, nil
}

// Load reads the record for key into dst. A missing record or a value that no
// longer parses leaves dst untouched: a guest with no saved state and a guest
// with corrupt state both start from an empty collection. Corruption is
// logged, never returned.
func (s *Store) Load(ctx context.Context, key string, dst any) error {
	var rec Record
	if err := s.DB.WithContext(ctx).First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load %q: %w", key, err)
	}

	// Decode into a scratch value first. A type error midway through the
	// array would otherwise leave half of the record in dst.
	tmp := reflect.New(reflect.TypeOf(dst).Elem())
	if err := json.Unmarshal(rec.Value, tmp.Interface()); err != nil {
		logging.FromContext(ctx).Warn("guest record corrupt, starting empty", "key", key, "error", err)
		return nil
	}
	reflect.ValueOf(dst).Elem().Set(tmp.Elem())
	return nil
}

// Save overwrites the full record for key. Last write wins.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	rec := Record{Key: key, Value: data}
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Delete removes the record entirely. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.DB.WithContext(ctx).Delete(&Record{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

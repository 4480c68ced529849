package storage

import (
	"context"
	"errors"
	"time"

	"github.com/homura-labs/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL persists session values in the session_values table.
type SQL struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQL binds the store to the provided GORM handle.
func NewSQL(db *gorm.DB, ttl time.Duration) *SQL {
	return &SQL{db: db, ttl: ttl, now: time.Now}
}

func (s *SQL) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.db
	}
	return s.db.WithContext(ctx)
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var row models.SessionValue
	err := s.conn(ctx).
		Where("session_key = ? AND expires_at > ?", key, s.now().UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	now := s.now().UTC()
	ttl := s.ttl
	if ttl <= 0 {
		ttl = 100 * 365 * 24 * time.Hour
	}
	row := models.SessionValue{
		SessionKey: key,
		Value:      value,
		ExpiresAt:  now.Add(ttl),
		UpdatedAt:  now,
	}
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.conn(ctx).Where("session_key = ?", key).Delete(&models.SessionValue{}).Error
}

// PurgeExpired removes rows whose TTL elapsed and reports how many were dropped.
func (s *SQL) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&models.SessionValue{})
	return res.RowsAffected, res.Error
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

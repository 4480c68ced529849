package models

import "time"

// SessionValue is one key of a browser session's key/value bag.
type SessionValue struct {
	SessionKey string    `gorm:"column:session_key;primaryKey"`
	Value      string    `gorm:"column:value;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null;index"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (SessionValue) TableName() string { return "session_values" }

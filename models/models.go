package models

import (
	"time"

	"gorm.io/datatypes"
)

// Snapshot is a lifted file persisted for cache lookups and history
type Snapshot struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SessionID string `gorm:"type:varchar(36);index"`

	// Source identity
	Path     string `gorm:"type:varchar(512);index;not null"`
	Language string `gorm:"type:varchar(50);not null"`
	Digest   string `gorm:"type:varchar(64);index"` // SHA256 of source bytes

	// Lifted representation
	IR datatypes.JSON `gorm:"type:jsonb"`

	// Tree statistics
	NodeCount int `gorm:"default:0"`
	Depth     int `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Session *Session `gorm:"foreignKey:SessionID"`
}

// Session tracks one batch run over a source tree
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Root      string    `gorm:"type:varchar(512)"`
	StartedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time

	// Statistics
	ScannedCount int `gorm:"default:0"`
	LiftedCount  int `gorm:"default:0"`
	FailedCount  int `gorm:"default:0"`
}

package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionKindPoker = "poker"
	SessionKindRetro = "retro"
)

// Event is an append-only record of a mutation on a poker or retro session.
type Event struct {
	ID          uint           `gorm:"primaryKey"`
	SessionKind string         `gorm:"size:16;not null;index:idx_events_session"`
	SessionID   string         `gorm:"size:8;not null;index:idx_events_session"`
	Type        string         `gorm:"size:64;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `gorm:"not null"`
}

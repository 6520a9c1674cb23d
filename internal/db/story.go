package db

import "time"

type Story struct {
	ID             uint         `gorm:"primaryKey"`
	PokerSessionID uint         `gorm:"index:idx_stories_session_active;not null"`
	Description    string       `gorm:"size:500;not null"`
	IsActive       bool         `gorm:"index:idx_stories_session_active;not null;default:false"`
	CreatedAt      time.Time    `gorm:"not null"`
	UpdatedAt      time.Time    `gorm:"not null"`
	Votes          []Vote       `gorm:"constraint:OnDelete:CASCADE"`
	RevealState    *RevealState `gorm:"constraint:OnDelete:CASCADE"`
}

package db

import "time"

type RetroMeeting struct {
	ID             uint          `gorm:"primaryKey"`
	RetroSessionID uint          `gorm:"index:idx_retro_meetings_session_active;not null"`
	Title          string        `gorm:"size:200;not null"`
	IsActive       bool          `gorm:"index:idx_retro_meetings_session_active;not null;default:false"`
	CreatedAt      time.Time     `gorm:"not null"`
	UpdatedAt      time.Time     `gorm:"not null"`
	Columns        []RetroColumn `gorm:"constraint:OnDelete:CASCADE"`
	Items          []RetroItem   `gorm:"constraint:OnDelete:CASCADE"`
}

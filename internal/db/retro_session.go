package db

import "time"

type RetroSession struct {
	ID             uint           `gorm:"primaryKey"`
	SessionID      string         `gorm:"size:8;uniqueIndex;not null"`
	AdminTokenHash string         `gorm:"size:72;not null;default:''"`
	Open           bool           `gorm:"not null;default:false"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
	Meetings       []RetroMeeting `gorm:"constraint:OnDelete:CASCADE"`
}

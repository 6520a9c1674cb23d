package db

import "time"

type RetroItem struct {
	ID             uint      `gorm:"primaryKey"`
	RetroMeetingID uint      `gorm:"index;not null"`
	ColumnID       uint      `gorm:"index;not null"`
	Content        string    `gorm:"size:1000;not null"`
	AuthorName     string    `gorm:"size:64;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

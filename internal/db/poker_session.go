package db

import "time"

// PokerSession owns the stories of one planning poker board. Open sessions
// accept admin actions without a token.
type PokerSession struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"size:8;uniqueIndex;not null"`
	AdminTokenHash string    `gorm:"size:72;not null;default:''"`
	Open           bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
	Stories        []Story   `gorm:"constraint:OnDelete:CASCADE"`
}

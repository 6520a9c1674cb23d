package db

import "time"

// RevealState is the per-story reveal gate. Rows are created lazily the
// first time a story's votes are read or changed.
type RevealState struct {
	ID         uint      `gorm:"primaryKey"`
	StoryID    uint      `gorm:"uniqueIndex;not null"`
	IsRevealed bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

package db

import "time"

type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	StoryID   uint      `gorm:"index;not null;uniqueIndex:idx_votes_story_voter"`
	VoterName string    `gorm:"size:64;not null;uniqueIndex:idx_votes_story_voter"`
	VoteValue string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sprint-poker/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteSnapshot is the vote state of a session's active story. Story is nil
// when the session has no active story.
type VoteSnapshot struct {
	Story       *db.Story
	Votes       []db.Vote
	IsRevealed  bool
	LastUpdated time.Time
}

// VoteMap returns voter name to value.
func (v VoteSnapshot) VoteMap() map[string]string {
	out := make(map[string]string, len(v.Votes))
	for _, vote := range v.Votes {
		out[vote.VoterName] = vote.VoteValue
	}
	return out
}

func (s *Store) ActiveStory(ctx context.Context, sessionID string) (*db.Story, error) {
	ref, err := loadSession(s.db.WithContext(ctx), &db.PokerSession{}, sessionID, false)
	if err != nil {
		return nil, err
	}
	return activeStory(s.db.WithContext(ctx), ref)
}

func activeStory(tx *gorm.DB, ref sessionRef) (*db.Story, error) {
	var stories []db.Story
	err := tx.Where("poker_session_id = ? AND is_active = ?", ref.ID, true).
		Order("created_at desc, id desc").
		Limit(1).
		Find(&stories).Error
	if err != nil || len(stories) == 0 {
		return nil, err
	}
	return &stories[0], nil
}

// CreateStory replaces the session's active story with a new one.
func (s *Store) CreateStory(ctx context.Context, sessionID, description string) (*db.Story, error) {
	var story *db.Story
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, true)
		if err != nil {
			return err
		}
		story, err = createStory(tx, ref, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

func createStory(tx *gorm.DB, ref sessionRef, description string) (*db.Story, error) {
	description = strings.TrimSpace(description)
	if err := tx.Model(&db.Story{}).
		Where("poker_session_id = ? AND is_active = ?", ref.ID, true).
		Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate stories: %w", err)
	}
	story := db.Story{
		PokerSessionID: ref.ID,
		Description:    description,
		IsActive:       true,
	}
	if err := tx.Create(&story).Error; err != nil {
		return nil, fmt.Errorf("insert story: %w", err)
	}
	if err := recordEvent(tx, db.SessionKindPoker, ref.SessionID, EventStoryCreated, EventPayload{
		StoryID:     story.ID,
		Description: description,
	}); err != nil {
		return nil, err
	}
	return &story, nil
}

// revealState returns the reveal gate of a story, creating it unrevealed on
// first access.
func revealState(tx *gorm.DB, storyID uint) (db.RevealState, error) {
	var state db.RevealState
	result := tx.Where("story_id = ?", storyID).Limit(1).Find(&state)
	if result.Error != nil {
		return state, result.Error
	}
	if result.RowsAffected > 0 {
		return state, nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.RevealState{StoryID: storyID}).Error; err != nil {
		return state, err
	}
	err := tx.Where("story_id = ?", storyID).Take(&state).Error
	return state, err
}

// SubmitVote records or replaces voterName's vote on the active story.
func (s *Store) SubmitVote(ctx context.Context, sessionID, voterName, value string) (*db.Vote, error) {
	voterName = strings.TrimSpace(voterName)
	var vote db.Vote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, true)
		if err != nil {
			return err
		}
		story, err := activeStory(tx, ref)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrNoActiveStory
		}
		state, err := revealState(tx, story.ID)
		if err != nil {
			return err
		}
		if state.IsRevealed {
			return ErrAlreadyRevealed
		}
		vote = db.Vote{StoryID: story.ID, VoterName: voterName, VoteValue: value}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "story_id"}, {Name: "voter_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_value", "updated_at"}),
		}).Create(&vote).Error; err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}
		return recordEvent(tx, db.SessionKindPoker, ref.SessionID, EventVoteCast, EventPayload{
			StoryID:   story.ID,
			VoterName: voterName,
		})
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (s *Store) VoteSnapshot(ctx context.Context, sessionID string) (VoteSnapshot, error) {
	var snapshot VoteSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, false)
		if err != nil {
			return err
		}
		story, err := activeStory(tx, ref)
		if err != nil || story == nil {
			return err
		}
		snapshot, err = voteSnapshot(tx, story)
		return err
	})
	return snapshot, err
}

func voteSnapshot(tx *gorm.DB, story *db.Story) (VoteSnapshot, error) {
	snapshot := VoteSnapshot{Story: story}
	state, err := revealState(tx, story.ID)
	if err != nil {
		return snapshot, err
	}
	if err := tx.Where("story_id = ?", story.ID).Order("created_at asc, id asc").Find(&snapshot.Votes).Error; err != nil {
		return snapshot, err
	}
	snapshot.IsRevealed = state.IsRevealed
	snapshot.LastUpdated = state.UpdatedAt
	for _, vote := range snapshot.Votes {
		if vote.UpdatedAt.After(snapshot.LastUpdated) {
			snapshot.LastUpdated = vote.UpdatedAt
		}
	}
	return snapshot, nil
}

// RevealVotes opens the active story's votes. It reports true when they were
// already revealed, in which case nothing changes.
func (s *Store) RevealVotes(ctx context.Context, sessionID string) (bool, error) {
	already := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, true)
		if err != nil {
			return err
		}
		story, err := activeStory(tx, ref)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrNoActiveStory
		}
		state, err := revealState(tx, story.ID)
		if err != nil {
			return err
		}
		if state.IsRevealed {
			already = true
			return nil
		}
		if err := tx.Model(&state).Update("is_revealed", true).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&db.Vote{}).Where("story_id = ?", story.ID).Count(&count).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.SessionKindPoker, ref.SessionID, EventVotesRevealed, EventPayload{
			StoryID: story.ID,
			Count:   int(count),
		})
	})
	return already, err
}

// ResetVotes clears the active story's votes and hides them again.
func (s *Store) ResetVotes(ctx context.Context, sessionID string) (VoteSnapshot, error) {
	var snapshot VoteSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, true)
		if err != nil {
			return err
		}
		story, err := activeStory(tx, ref)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrNoActiveStory
		}
		snapshot, err = resetVotes(tx, ref, story)
		return err
	})
	return snapshot, err
}

func resetVotes(tx *gorm.DB, ref sessionRef, story *db.Story) (VoteSnapshot, error) {
	result := tx.Where("story_id = ?", story.ID).Delete(&db.Vote{})
	if result.Error != nil {
		return VoteSnapshot{}, fmt.Errorf("delete votes: %w", result.Error)
	}
	state, err := revealState(tx, story.ID)
	if err != nil {
		return VoteSnapshot{}, err
	}
	// Always write so the change indicator moves even when nothing was revealed.
	if err := tx.Model(&state).Updates(map[string]any{
		"is_revealed": false,
		"updated_at":  time.Now().UTC(),
	}).Error; err != nil {
		return VoteSnapshot{}, err
	}
	if err := recordEvent(tx, db.SessionKindPoker, ref.SessionID, EventVotesReset, EventPayload{
		StoryID: story.ID,
		Count:   int(result.RowsAffected),
	}); err != nil {
		return VoteSnapshot{}, err
	}
	return voteSnapshot(tx, story)
}

// NewStory starts a fresh round. With a description it creates a new active
// story with clean votes; without one it resets the current story, if any.
// The returned story is nil when no story was created.
func (s *Store) NewStory(ctx context.Context, sessionID, description string) (*db.Story, error) {
	description = strings.TrimSpace(description)
	var created *db.Story
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.PokerSession{}, sessionID, true)
		if err != nil {
			return err
		}
		if description != "" {
			created, err = createStory(tx, ref, description)
			if err != nil {
				return err
			}
			_, err = resetVotes(tx, ref, created)
			return err
		}
		story, err := activeStory(tx, ref)
		if err != nil || story == nil {
			return err
		}
		_, err = resetVotes(tx, ref, story)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

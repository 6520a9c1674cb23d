package store

import (
	"context"
	"encoding/json"

	"sprint-poker/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventSessionCreated = "session_created"
	EventStoryCreated   = "story_created"
	EventVoteCast       = "vote_cast"
	EventVotesRevealed  = "votes_revealed"
	EventVotesReset     = "votes_reset"
	EventMeetingCreated = "meeting_created"
	EventMeetingRenamed = "meeting_renamed"
	EventColumnAdded    = "column_added"
	EventColumnUpdated  = "column_updated"
	EventColumnDeleted  = "column_deleted"
	EventItemAdded      = "item_added"
	EventItemUpdated    = "item_updated"
	EventItemDeleted    = "item_deleted"
)

type EventPayload struct {
	StoryID     uint   `json:"story_id,omitempty"`
	Description string `json:"description,omitempty"`
	VoterName   string `json:"voter,omitempty"`
	MeetingID   uint   `json:"meeting_id,omitempty"`
	ColumnID    uint   `json:"column_id,omitempty"`
	ItemID      uint   `json:"item_id,omitempty"`
	Title       string `json:"title,omitempty"`
	AuthorName  string `json:"author,omitempty"`
	Count       int    `json:"count,omitempty"`
}

func recordEvent(tx *gorm.DB, kind, sessionID, eventType string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		SessionKind: kind,
		SessionID:   sessionID,
		Type:        eventType,
		Payload:     datatypes.JSON(data),
	}
	return tx.Create(&event).Error
}

// EventPage selects a window of a session's audit trail. Page is 1-based.
type EventPage struct {
	Page    int
	PerPage int
}

func (p EventPage) offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Events lists the audit trail of one session, oldest first, together with
// the total number of events. A zero PerPage returns everything.
func (s *Store) Events(ctx context.Context, kind, sessionID string, page EventPage) ([]db.Event, int64, error) {
	scope := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&db.Event{}).
			Where("session_kind = ? AND session_id = ?", kind, normalizeSessionID(sessionID))
	}
	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := scope().Order("created_at asc, id asc")
	if page.PerPage > 0 {
		query = query.Limit(page.PerPage).Offset(page.offset())
	}
	var events []db.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sprint-poker/internal/db"

	"gorm.io/gorm"
)

const DefaultMeetingTitle = "Retro Meeting"

var DefaultColumns = []string{
	"What went well",
	"What didn't go well",
	"What can be improved?",
}

// MeetingVersion changes whenever anything visible on the board changes.
// Deletions are caught by the counts.
type MeetingVersion struct {
	LastUpdated time.Time
	ColumnCount int
	ItemCount   int
}

// Key is empty when there is no meeting.
func (v MeetingVersion) Key() string {
	if v.LastUpdated.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%d:%d", v.LastUpdated.UnixMilli(), v.ColumnCount, v.ItemCount)
}

func Version(meeting *db.RetroMeeting) MeetingVersion {
	if meeting == nil {
		return MeetingVersion{}
	}
	version := MeetingVersion{LastUpdated: meeting.UpdatedAt, ColumnCount: len(meeting.Columns)}
	for _, column := range meeting.Columns {
		if column.UpdatedAt.After(version.LastUpdated) {
			version.LastUpdated = column.UpdatedAt
		}
		version.ItemCount += len(column.Items)
		for _, item := range column.Items {
			if item.UpdatedAt.After(version.LastUpdated) {
				version.LastUpdated = item.UpdatedAt
			}
		}
	}
	return version
}

// ActiveMeeting loads the session's active meeting with its columns and
// items. It returns nil without error when there is none.
func (s *Store) ActiveMeeting(ctx context.Context, sessionID string) (*db.RetroMeeting, error) {
	tx := s.db.WithContext(ctx)
	ref, err := loadSession(tx, &db.RetroSession{}, sessionID, false)
	if err != nil {
		return nil, err
	}
	return activeMeeting(tx, ref, true)
}

// EnsureActiveMeeting returns the active meeting, creating a default one
// first when the session has none.
func (s *Store) EnsureActiveMeeting(ctx context.Context, sessionID string) (*db.RetroMeeting, error) {
	var meeting *db.RetroMeeting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		meeting, err = activeMeeting(tx, ref, true)
		if err != nil || meeting != nil {
			return err
		}
		meeting, err = createMeeting(tx, ref, "", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func activeMeeting(tx *gorm.DB, ref sessionRef, withBoard bool) (*db.RetroMeeting, error) {
	query := tx.Where("retro_session_id = ? AND is_active = ?", ref.ID, true).
		Order("created_at desc, id desc").
		Limit(1)
	if withBoard {
		query = query.
			Preload("Columns", func(q *gorm.DB) *gorm.DB {
				return q.Order("sort_order asc, id asc")
			}).
			Preload("Columns.Items", func(q *gorm.DB) *gorm.DB {
				return q.Order("created_at asc, id asc")
			})
	}
	var meetings []db.RetroMeeting
	if err := query.Find(&meetings).Error; err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, nil
	}
	return &meetings[0], nil
}

func requireMeeting(tx *gorm.DB, ref sessionRef) (*db.RetroMeeting, error) {
	meeting, err := activeMeeting(tx, ref, false)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, ErrNoActiveMeeting
	}
	return meeting, nil
}

// CreateMeeting replaces the active meeting. Blank titles and column names
// fall back to the defaults.
func (s *Store) CreateMeeting(ctx context.Context, sessionID, title string, columns []string) (*db.RetroMeeting, error) {
	var meeting *db.RetroMeeting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		meeting, err = createMeeting(tx, ref, title, columns)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func createMeeting(tx *gorm.DB, ref sessionRef, title string, columns []string) (*db.RetroMeeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultMeetingTitle
	}
	var titles []string
	for _, column := range columns {
		if trimmed := strings.TrimSpace(column); trimmed != "" {
			titles = append(titles, trimmed)
		}
	}
	if len(titles) == 0 {
		titles = DefaultColumns
	}
	if err := tx.Model(&db.RetroMeeting{}).
		Where("retro_session_id = ? AND is_active = ?", ref.ID, true).
		Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate meetings: %w", err)
	}
	meeting := db.RetroMeeting{
		RetroSessionID: ref.ID,
		Title:          title,
		IsActive:       true,
	}
	for i, columnTitle := range titles {
		meeting.Columns = append(meeting.Columns, db.RetroColumn{Title: columnTitle, Order: i})
	}
	if err := tx.Create(&meeting).Error; err != nil {
		return nil, fmt.Errorf("insert meeting: %w", err)
	}
	if err := recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventMeetingCreated, EventPayload{
		MeetingID: meeting.ID,
		Title:     title,
		Count:     len(titles),
	}); err != nil {
		return nil, err
	}
	return activeMeeting(tx, ref, true)
}

func (s *Store) UpdateMeetingTitle(ctx context.Context, sessionID, title string) (*db.RetroMeeting, error) {
	title = strings.TrimSpace(title)
	var meeting *db.RetroMeeting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		current, err := requireMeeting(tx, ref)
		if err != nil {
			return err
		}
		if err := tx.Model(current).Update("title", title).Error; err != nil {
			return err
		}
		if err := recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventMeetingRenamed, EventPayload{
			MeetingID: current.ID,
			Title:     title,
		}); err != nil {
			return err
		}
		meeting, err = activeMeeting(tx, ref, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// AddColumn appends a column after the current last one.
func (s *Store) AddColumn(ctx context.Context, sessionID, title string) (*db.RetroColumn, error) {
	var column *db.RetroColumn
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		meeting, err := requireMeeting(tx, ref)
		if err != nil {
			return err
		}
		column, err = addColumn(tx, ref, meeting, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

func addColumn(tx *gorm.DB, ref sessionRef, meeting *db.RetroMeeting, title string) (*db.RetroColumn, error) {
	title = strings.TrimSpace(title)
	var last int
	if err := tx.Model(&db.RetroColumn{}).
		Where("retro_meeting_id = ?", meeting.ID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&last).Error; err != nil {
		return nil, err
	}
	column := db.RetroColumn{RetroMeetingID: meeting.ID, Title: title, Order: last + 1}
	if err := tx.Create(&column).Error; err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	if err := recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventColumnAdded, EventPayload{
		MeetingID: meeting.ID,
		ColumnID:  column.ID,
		Title:     title,
	}); err != nil {
		return nil, err
	}
	return &column, nil
}

// sessionMeetings selects the ids of every meeting owned by the session, so
// column and item lookups cannot cross sessions.
func sessionMeetings(tx *gorm.DB, ref sessionRef) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Model(&db.RetroMeeting{}).
		Select("id").
		Where("retro_session_id = ?", ref.ID)
}

func findColumn(tx *gorm.DB, ref sessionRef, columnID uint) (db.RetroColumn, error) {
	var column db.RetroColumn
	err := tx.Where("id = ? AND retro_meeting_id IN (?)", columnID, sessionMeetings(tx, ref)).Take(&column).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return column, ErrNotFound
	}
	return column, err
}

func findItem(tx *gorm.DB, ref sessionRef, itemID uint) (db.RetroItem, error) {
	var item db.RetroItem
	err := tx.Where("id = ? AND retro_meeting_id IN (?)", itemID, sessionMeetings(tx, ref)).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, ErrNotFound
	}
	return item, err
}

func (s *Store) UpdateColumn(ctx context.Context, sessionID string, columnID uint, title string) (*db.RetroColumn, error) {
	title = strings.TrimSpace(title)
	var column db.RetroColumn
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		column, err = findColumn(tx, ref, columnID)
		if err != nil {
			return err
		}
		if err := tx.Model(&column).Update("title", title).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventColumnUpdated, EventPayload{
			MeetingID: column.RetroMeetingID,
			ColumnID:  column.ID,
			Title:     title,
		})
	})
	if err != nil {
		return nil, err
	}
	return &column, nil
}

// DeleteColumn removes a column; its items go with it through the foreign
// key.
func (s *Store) DeleteColumn(ctx context.Context, sessionID string, columnID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		column, err := findColumn(tx, ref, columnID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&db.RetroColumn{}, column.ID).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventColumnDeleted, EventPayload{
			MeetingID: column.RetroMeetingID,
			ColumnID:  column.ID,
			Title:     column.Title,
		})
	})
}

// AddItem places a new item in a column of the active meeting.
func (s *Store) AddItem(ctx context.Context, sessionID string, columnID uint, content, authorName string) (*db.RetroItem, error) {
	var item *db.RetroItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		meeting, err := requireMeeting(tx, ref)
		if err != nil {
			return err
		}
		column, err := findColumn(tx, ref, columnID)
		if err != nil {
			return err
		}
		if column.RetroMeetingID != meeting.ID {
			return ErrNotFound
		}
		item, err = addItem(tx, ref, column, content, authorName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func addItem(tx *gorm.DB, ref sessionRef, column db.RetroColumn, content, authorName string) (*db.RetroItem, error) {
	content = strings.TrimSpace(content)
	authorName = strings.TrimSpace(authorName)
	item := db.RetroItem{
		RetroMeetingID: column.RetroMeetingID,
		ColumnID:       column.ID,
		Content:        content,
		AuthorName:     authorName,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventItemAdded, EventPayload{
		MeetingID:  column.RetroMeetingID,
		ColumnID:   column.ID,
		ItemID:     item.ID,
		AuthorName: authorName,
	}); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateItem(ctx context.Context, sessionID string, itemID uint, content string) (*db.RetroItem, error) {
	content = strings.TrimSpace(content)
	var item db.RetroItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		item, err = findItem(tx, ref, itemID)
		if err != nil {
			return err
		}
		if err := tx.Model(&item).Update("content", content).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventItemUpdated, EventPayload{
			MeetingID: item.RetroMeetingID,
			ColumnID:  item.ColumnID,
			ItemID:    item.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, sessionID string, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		item, err := findItem(tx, ref, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&db.RetroItem{}, item.ID).Error; err != nil {
			return err
		}
		return recordEvent(tx, db.SessionKindRetro, ref.SessionID, EventItemDeleted, EventPayload{
			MeetingID: item.RetroMeetingID,
			ColumnID:  item.ColumnID,
			ItemID:    item.ID,
		})
	})
}

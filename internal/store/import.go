package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"sprint-poker/internal/db"

	"gorm.io/gorm"
)

// Column sizes of the retro tables.
const (
	maxColumnTitleLength = 200
	maxItemContentLength = 1000
	maxAuthorNameLength  = 64
)

var ErrInvalidImport = errors.New("invalid import row")

// ImportRow is one retro item to import. Column is matched by title, case
// insensitively, against the active meeting.
type ImportRow struct {
	Column  string
	Content string
	Author  string
}

type ImportResult struct {
	ColumnsCreated int
	ItemsAdded     int
}

// ImportItems adds rows to the active meeting, creating it and any missing
// columns as needed. Rows with a blank column or content are skipped. The
// import is all or nothing: an oversized row fails it with ErrInvalidImport
// before anything is written, and any later failure rolls it back.
func (s *Store) ImportItems(ctx context.Context, sessionID string, rows []ImportRow) (ImportResult, error) {
	rows, err := cleanImportRows(rows)
	if err != nil {
		return ImportResult{}, err
	}
	var result ImportResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result = ImportResult{}
		ref, err := loadSession(tx, &db.RetroSession{}, sessionID, true)
		if err != nil {
			return err
		}
		meeting, err := activeMeeting(tx, ref, true)
		if err != nil {
			return err
		}
		if meeting == nil {
			if meeting, err = createMeeting(tx, ref, "", nil); err != nil {
				return err
			}
		}
		columns := make(map[string]db.RetroColumn, len(meeting.Columns))
		for _, column := range meeting.Columns {
			columns[strings.ToLower(column.Title)] = column
		}
		for _, row := range rows {
			key := strings.ToLower(row.Column)
			column, ok := columns[key]
			if !ok {
				created, err := addColumn(tx, ref, meeting, row.Column)
				if err != nil {
					return err
				}
				column = *created
				columns[key] = column
				result.ColumnsCreated++
			}
			if _, err := addItem(tx, ref, column, row.Content, row.Author); err != nil {
				return err
			}
			result.ItemsAdded++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// cleanImportRows trims every field, drops blank rows, fills in the author
// and checks sizes. Row numbers in errors are 1-based input positions.
func cleanImportRows(rows []ImportRow) ([]ImportRow, error) {
	cleaned := make([]ImportRow, 0, len(rows))
	for i, row := range rows {
		row = ImportRow{
			Column:  strings.TrimSpace(row.Column),
			Content: strings.TrimSpace(row.Content),
			Author:  strings.TrimSpace(row.Author),
		}
		if row.Column == "" || row.Content == "" {
			continue
		}
		if row.Author == "" {
			row.Author = "Anonymous"
		}
		switch {
		case utf8.RuneCountInString(row.Column) > maxColumnTitleLength:
			return nil, fmt.Errorf("%w: row %d: column title longer than %d characters", ErrInvalidImport, i+1, maxColumnTitleLength)
		case utf8.RuneCountInString(row.Content) > maxItemContentLength:
			return nil, fmt.Errorf("%w: row %d: content longer than %d characters", ErrInvalidImport, i+1, maxItemContentLength)
		case utf8.RuneCountInString(row.Author) > maxAuthorNameLength:
			return nil, fmt.Errorf("%w: row %d: author longer than %d characters", ErrInvalidImport, i+1, maxAuthorNameLength)
		}
		cleaned = append(cleaned, row)
	}
	return cleaned, nil
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

type AdminRequest struct {
	AdminToken string `json:"adminToken"`
}

type StoryRequest struct {
	Description string `json:"description" binding:"notblank,max=500"`
	AdminToken  string `json:"adminToken"`
}

type NewStoryRequest struct {
	Description string `json:"description" binding:"max=500"`
	AdminToken  string `json:"adminToken"`
}

type VoteRequest struct {
	VoterName string    `json:"voterName" binding:"notblank,max=64"`
	VoteValue VoteValue `json:"voteValue"`
}

type MeetingRequest struct {
	Title      string   `json:"title" binding:"max=200"`
	Columns    []string `json:"columns" binding:"max=20,dive,max=200"`
	AdminToken string   `json:"adminToken"`
}

type MeetingTitleRequest struct {
	Title      string `json:"title" binding:"notblank,max=200"`
	AdminToken string `json:"adminToken"`
}

type ColumnRequest struct {
	ColumnID   uint   `json:"columnId"`
	Title      string `json:"title" binding:"notblank,max=200"`
	AdminToken string `json:"adminToken"`
}

type ColumnDeleteRequest struct {
	ColumnID   uint   `json:"columnId"`
	AdminToken string `json:"adminToken"`
}

type ItemRequest struct {
	ColumnID   uint   `json:"columnId" binding:"required"`
	Content    string `json:"content" binding:"notblank,max=1000"`
	AuthorName string `json:"authorName" binding:"notblank,max=64"`
}

type ItemUpdateRequest struct {
	ItemID  uint   `json:"itemId" binding:"required"`
	Content string `json:"content" binding:"notblank,max=1000"`
}

type ItemDeleteRequest struct {
	ItemID uint `json:"itemId"`
}

// VoteValue is a card value. Clients send strings ("5", "?", "☕") or bare
// numbers; both are kept as text. Set reports whether the field was present
// and non-null.
type VoteValue struct {
	Value string
	Set   bool
}

func (v *VoteValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = VoteValue{}
		return nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		*v = VoteValue{Value: text, Set: true}
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err == nil {
		*v = VoteValue{Value: number.String(), Set: true}
		return nil
	}
	var flag bool
	if err := json.Unmarshal(trimmed, &flag); err == nil {
		*v = VoteValue{Value: strconv.FormatBool(flag), Set: true}
		return nil
	}
	return errors.New("vote value must be a string or number")
}

func (v VoteValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

// Package api holds the JSON shapes exchanged between the HTTP handlers and
// polling clients.
package api

import "time"

type CreateSessionResponse struct {
	SessionID  string `json:"sessionId"`
	AdminToken string `json:"adminToken"`
	Message    string `json:"message,omitempty"`
}

type StorySummary struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
}

type PokerSessionResponse struct {
	SessionID      string        `json:"sessionId"`
	HasActiveStory bool          `json:"hasActiveStory"`
	ActiveStory    *StorySummary `json:"activeStory"`
	IsAdmin        bool          `json:"isAdmin"`
}

type RetroSessionResponse struct {
	SessionID        string           `json:"sessionId"`
	HasActiveMeeting bool             `json:"hasActiveMeeting"`
	ActiveMeeting    *MeetingResponse `json:"activeMeeting"`
	IsAdmin          bool             `json:"isAdmin"`
}

type VerifyTokenResponse struct {
	IsValid bool `json:"isValid"`
}

// StoryResponse is the active story. ID is nil when the session has no
// active story.
type StoryResponse struct {
	ID          *uint  `json:"id"`
	Description string `json:"description"`
	LastUpdated int64  `json:"lastUpdated,omitempty"`
	Message     string `json:"message,omitempty"`
}

type VotesResponse struct {
	Votes       map[string]string `json:"votes"`
	IsRevealed  bool              `json:"isRevealed"`
	LastUpdated int64             `json:"lastUpdated"`
	VoteCount   int               `json:"voteCount"`
	Summary     *VoteSummary      `json:"summary,omitempty"`
}

type VoteAccepted struct {
	Message   string `json:"message"`
	VoterName string `json:"voterName"`
	VoteValue string `json:"voteValue"`
}

type RevealResponse struct {
	Message    string `json:"message"`
	IsRevealed bool   `json:"isRevealed"`
}

type ResetResponse struct {
	Message     string `json:"message"`
	LastUpdated int64  `json:"lastUpdated"`
	IsRevealed  bool   `json:"isRevealed"`
}

type NewStoryResponse struct {
	Message     string `json:"message"`
	StoryID     uint   `json:"storyId,omitempty"`
	Description string `json:"description,omitempty"`
}

type MeetingResponse struct {
	ID             uint             `json:"id"`
	RetroSessionID uint             `json:"retroSessionId"`
	Title          string           `json:"title"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Columns        []ColumnResponse `json:"columns"`
	LastUpdated    int64            `json:"lastUpdated"`
	ColumnCount    int              `json:"columnCount"`
	ItemCount      int              `json:"itemCount"`
}

type ColumnResponse struct {
	ID             uint           `json:"id"`
	RetroMeetingID uint           `json:"retroMeetingId"`
	Title          string         `json:"title"`
	Order          int            `json:"order"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Items          []ItemResponse `json:"items"`
}

type ItemResponse struct {
	ID             uint      `json:"id"`
	RetroMeetingID uint      `json:"retroMeetingId"`
	ColumnID       uint      `json:"columnId"`
	Content        string    `json:"content"`
	AuthorName     string    `json:"authorName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type EventResponse struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

type EventsResponse struct {
	SessionID  string          `json:"sessionId"`
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

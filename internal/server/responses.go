package server

import (
	"encoding/json"
	"time"

	"sprint-poker/internal/api"
	"sprint-poker/internal/db"
	"sprint-poker/internal/store"
)

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func storySummary(story *db.Story) *api.StorySummary {
	if story == nil {
		return nil
	}
	return &api.StorySummary{ID: story.ID, Description: story.Description}
}

func storyResponse(story *db.Story) api.StoryResponse {
	if story == nil {
		return api.StoryResponse{}
	}
	id := story.ID
	return api.StoryResponse{
		ID:          &id,
		Description: story.Description,
		LastUpdated: millis(story.UpdatedAt),
	}
}

func votesResponse(snapshot store.VoteSnapshot) api.VotesResponse {
	votes := snapshot.VoteMap()
	resp := api.VotesResponse{
		Votes:       votes,
		IsRevealed:  snapshot.IsRevealed,
		LastUpdated: millis(snapshot.LastUpdated),
		VoteCount:   len(votes),
	}
	if snapshot.IsRevealed {
		summary := api.Summarize(votes)
		resp.Summary = &summary
	}
	return resp
}

func meetingResponse(meeting *db.RetroMeeting) *api.MeetingResponse {
	if meeting == nil {
		return nil
	}
	version := store.Version(meeting)
	resp := &api.MeetingResponse{
		ID:             meeting.ID,
		RetroSessionID: meeting.RetroSessionID,
		Title:          meeting.Title,
		IsActive:       meeting.IsActive,
		CreatedAt:      meeting.CreatedAt,
		UpdatedAt:      meeting.UpdatedAt,
		Columns:        make([]api.ColumnResponse, 0, len(meeting.Columns)),
		LastUpdated:    millis(version.LastUpdated),
		ColumnCount:    version.ColumnCount,
		ItemCount:      version.ItemCount,
	}
	for _, column := range meeting.Columns {
		resp.Columns = append(resp.Columns, columnResponse(column))
	}
	return resp
}

func columnResponse(column db.RetroColumn) api.ColumnResponse {
	resp := api.ColumnResponse{
		ID:             column.ID,
		RetroMeetingID: column.RetroMeetingID,
		Title:          column.Title,
		Order:          column.Order,
		CreatedAt:      column.CreatedAt,
		UpdatedAt:      column.UpdatedAt,
		Items:          make([]api.ItemResponse, 0, len(column.Items)),
	}
	for _, item := range column.Items {
		resp.Items = append(resp.Items, itemResponse(item))
	}
	return resp
}

func itemResponse(item db.RetroItem) api.ItemResponse {
	return api.ItemResponse{
		ID:             item.ID,
		RetroMeetingID: item.RetroMeetingID,
		ColumnID:       item.ColumnID,
		Content:        item.Content,
		AuthorName:     item.AuthorName,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func eventsResponse(sessionID string, events []db.Event) api.EventsResponse {
	resp := api.EventsResponse{SessionID: sessionID, Events: make([]api.EventResponse, 0, len(events))}
	for _, event := range events {
		var payload any
		if len(event.Payload) > 0 {
			_ = json.Unmarshal(event.Payload, &payload)
		}
		resp.Events = append(resp.Events, api.EventResponse{
			ID:        event.ID,
			Type:      event.Type,
			Payload:   payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return resp
}

package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"sprint-poker/internal/api"
	"sprint-poker/internal/db"
	"sprint-poker/internal/store"

	"github.com/gin-gonic/gin"
)

var (
	columnNotFound = errorMessages{store.ErrNotFound: "Column not found"}
	itemNotFound   = errorMessages{store.ErrNotFound: "Item not found"}
)

func (s *Server) handleCreateRetroSession(c *gin.Context) {
	if !s.enforceRateLimit(c, "create_session") {
		return
	}
	creds, err := s.store.CreateRetroSession(c.Request.Context())
	if err != nil {
		respondError(c, err, nil, "Failed to create retro session")
		return
	}
	log.Printf("retro session created session_id=%s", creds.SessionID)
	c.JSON(http.StatusOK, api.CreateSessionResponse{
		SessionID:  creds.SessionID,
		AdminToken: creds.AdminToken,
		Message:    "Retro session created successfully",
	})
}

func (s *Server) handleGetRetroSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := sessionParam(c)
	session, err := s.store.RetroSession(ctx, sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to get retro session")
		return
	}
	meeting, err := s.store.ActiveMeeting(ctx, sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to get retro session")
		return
	}
	isAdmin, err := s.store.VerifyRetroAdmin(ctx, sessionID, c.Query("adminToken"))
	if err != nil {
		respondError(c, err, nil, "Failed to get retro session")
		return
	}
	c.JSON(http.StatusOK, api.RetroSessionResponse{
		SessionID:        session.SessionID,
		HasActiveMeeting: meeting != nil,
		ActiveMeeting:    meetingResponse(meeting),
		IsAdmin:          isAdmin,
	})
}

func (s *Server) handleVerifyRetroAdmin(c *gin.Context) {
	var req api.AdminRequest
	if !readBody(c, &req) {
		return
	}
	if strings.TrimSpace(req.AdminToken) == "" {
		writeError(c, http.StatusBadRequest, "Session ID and admin token are required")
		return
	}
	ok, err := s.store.VerifyRetroAdmin(c.Request.Context(), sessionParam(c), req.AdminToken)
	if err != nil {
		respondError(c, err, nil, "Failed to verify admin token")
		return
	}
	c.JSON(http.StatusOK, api.VerifyTokenResponse{IsValid: ok})
}

// handleGetMeeting answers null when there is no active meeting. The global
// board starts a default meeting instead.
func (s *Server) handleGetMeeting(c *gin.Context) {
	var (
		meeting *db.RetroMeeting
		err     error
	)
	if isGlobalRoute(c) {
		meeting, err = s.store.EnsureActiveMeeting(c.Request.Context(), store.GlobalSessionID)
	} else {
		meeting, err = s.store.ActiveMeeting(c.Request.Context(), sessionParam(c))
	}
	if err != nil {
		respondError(c, err, nil, "Failed to get retro meeting")
		return
	}
	c.JSON(http.StatusOK, meetingResponse(meeting))
}

func (s *Server) handleCreateMeeting(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.MeetingRequest
	if !readBody(c, &req) || !s.requireRetroAdmin(c, sessionID, req.AdminToken) {
		return
	}
	if !validate(c, &req, meetingMessages, "Invalid meeting") {
		return
	}
	meeting, err := s.store.CreateMeeting(c.Request.Context(), sessionID, req.Title, req.Columns)
	if err != nil {
		respondError(c, err, nil, "Failed to create retro meeting")
		return
	}
	log.Printf("retro meeting created session_id=%s meeting_id=%d columns=%d", sessionID, meeting.ID, len(meeting.Columns))
	c.JSON(http.StatusOK, meetingResponse(meeting))
}

func (s *Server) handleUpdateMeetingTitle(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.MeetingTitleRequest
	if !readBody(c, &req) || !s.requireRetroAdmin(c, sessionID, req.AdminToken) {
		return
	}
	if !validate(c, &req, meetingMessages, "Meeting title is required") {
		return
	}
	meeting, err := s.store.UpdateMeetingTitle(c.Request.Context(), sessionID, req.Title)
	if err != nil {
		respondError(c, err, errorMessages{
			store.ErrNoActiveMeeting: "No active meeting found",
		}, "Failed to update meeting title")
		return
	}
	c.JSON(http.StatusOK, meetingResponse(meeting))
}

func (s *Server) handleAddColumn(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ColumnRequest
	if !readBody(c, &req) || !s.requireRetroAdmin(c, sessionID, req.AdminToken) {
		return
	}
	if !validate(c, &req, columnMessages, "Column title is required") {
		return
	}
	column, err := s.store.AddColumn(c.Request.Context(), sessionID, req.Title)
	if err != nil {
		respondError(c, err, nil, "Failed to add retro column")
		return
	}
	log.Printf("retro column added session_id=%s column_id=%d order=%d", sessionID, column.ID, column.Order)
	c.JSON(http.StatusOK, columnResponse(*column))
}

func (s *Server) handleUpdateColumn(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ColumnRequest
	if !readBody(c, &req) || !s.requireRetroAdmin(c, sessionID, req.AdminToken) {
		return
	}
	if req.ColumnID == 0 {
		writeError(c, http.StatusBadRequest, "Column ID is required")
		return
	}
	if !validate(c, &req, columnMessages, "Column title is required") {
		return
	}
	column, err := s.store.UpdateColumn(c.Request.Context(), sessionID, req.ColumnID, req.Title)
	if err != nil {
		respondError(c, err, columnNotFound, "Failed to update retro column")
		return
	}
	c.JSON(http.StatusOK, columnResponse(*column))
}

func (s *Server) handleDeleteColumn(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ColumnDeleteRequest
	if !readBody(c, &req) {
		return
	}
	if req.AdminToken == "" {
		req.AdminToken = c.Query("adminToken")
	}
	if !s.requireRetroAdmin(c, sessionID, req.AdminToken) {
		return
	}
	columnID := req.ColumnID
	if columnID == 0 {
		columnID = queryID(c, "columnId")
	}
	if columnID == 0 {
		writeError(c, http.StatusBadRequest, "Valid column ID is required")
		return
	}
	if err := s.store.DeleteColumn(c.Request.Context(), sessionID, columnID); err != nil {
		respondError(c, err, columnNotFound, "Failed to delete retro column")
		return
	}
	log.Printf("retro column deleted session_id=%s column_id=%d", sessionID, columnID)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Column deleted successfully"})
}

func (s *Server) handleAddItem(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ItemRequest
	if !bindJSON(c, &req, itemMessages, "Item content is required") {
		return
	}
	item, err := s.store.AddItem(c.Request.Context(), sessionID, req.ColumnID, req.Content, req.AuthorName)
	if err != nil {
		respondError(c, err, columnNotFound, "Failed to add retro item")
		return
	}
	c.JSON(http.StatusOK, itemResponse(*item))
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ItemUpdateRequest
	if !bindJSON(c, &req, itemMessages, "Item content is required") {
		return
	}
	item, err := s.store.UpdateItem(c.Request.Context(), sessionID, req.ItemID, req.Content)
	if err != nil {
		respondError(c, err, itemNotFound, "Failed to update retro item")
		return
	}
	c.JSON(http.StatusOK, itemResponse(*item))
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.ItemDeleteRequest
	if !readBody(c, &req) {
		return
	}
	itemID := req.ItemID
	if itemID == 0 {
		itemID = queryID(c, "itemId")
	}
	if itemID == 0 {
		writeError(c, http.StatusBadRequest, "Valid item ID is required")
		return
	}
	if err := s.store.DeleteItem(c.Request.Context(), sessionID, itemID); err != nil {
		respondError(c, err, itemNotFound, "Failed to delete retro item")
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Item deleted successfully"})
}

func queryID(c *gin.Context, key string) uint {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Query(key)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

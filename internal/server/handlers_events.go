package server

import (
	"net/http"

	"sprint-poker/internal/db"
	"sprint-poker/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handlePokerEvents(c *gin.Context) {
	sessionID := sessionParam(c)
	if !s.requirePokerAdmin(c, sessionID, c.Query("adminToken"), nil) {
		return
	}
	s.writeEvents(c, db.SessionKindPoker, sessionID)
}

func (s *Server) handleRetroEvents(c *gin.Context) {
	sessionID := sessionParam(c)
	if !s.requireRetroAdmin(c, sessionID, c.Query("adminToken")) {
		return
	}
	s.writeEvents(c, db.SessionKindRetro, sessionID)
}

func (s *Server) writeEvents(c *gin.Context, kind, sessionID string) {
	page, perPage := parsePagination(c, defaultEventsPerPage, maxEventsPerPage)
	events, total, err := s.store.Events(c.Request.Context(), kind, sessionID, store.EventPage{Page: page, PerPage: perPage})
	if err != nil {
		respondError(c, err, nil, "Failed to list events")
		return
	}
	resp := eventsResponse(sessionID, events)
	resp.Pagination = buildPagination(page, perPage, total)
	c.JSON(http.StatusOK, resp)
}

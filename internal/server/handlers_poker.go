package server

import (
	"log"
	"net/http"
	"strings"

	"sprint-poker/internal/api"
	"sprint-poker/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreatePokerSession(c *gin.Context) {
	if !s.enforceRateLimit(c, "create_session") {
		return
	}
	creds, err := s.store.CreatePokerSession(c.Request.Context())
	if err != nil {
		respondError(c, err, nil, "Failed to create poker session")
		return
	}
	log.Printf("poker session created session_id=%s", creds.SessionID)
	c.JSON(http.StatusOK, api.CreateSessionResponse{
		SessionID:  creds.SessionID,
		AdminToken: creds.AdminToken,
		Message:    "Session created successfully",
	})
}

func (s *Server) handleGetPokerSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := sessionParam(c)
	session, err := s.store.PokerSession(ctx, sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to get poker session")
		return
	}
	story, err := s.store.ActiveStory(ctx, sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to get poker session")
		return
	}
	isAdmin, err := s.store.VerifyPokerAdmin(ctx, sessionID, c.Query("adminToken"))
	if err != nil {
		respondError(c, err, nil, "Failed to get poker session")
		return
	}
	c.JSON(http.StatusOK, api.PokerSessionResponse{
		SessionID:      session.SessionID,
		HasActiveStory: story != nil,
		ActiveStory:    storySummary(story),
		IsAdmin:        isAdmin,
	})
}

func (s *Server) handleVerifyPokerAdmin(c *gin.Context) {
	var req api.AdminRequest
	if !readBody(c, &req) {
		return
	}
	if strings.TrimSpace(req.AdminToken) == "" {
		writeError(c, http.StatusBadRequest, "Session ID and admin token are required")
		return
	}
	ok, err := s.store.VerifyPokerAdmin(c.Request.Context(), sessionParam(c), req.AdminToken)
	if err != nil {
		respondError(c, err, nil, "Failed to verify admin token")
		return
	}
	c.JSON(http.StatusOK, api.VerifyTokenResponse{IsValid: ok})
}

func (s *Server) handleGetStory(c *gin.Context) {
	story, err := s.store.ActiveStory(c.Request.Context(), sessionParam(c))
	if err != nil {
		respondError(c, err, nil, "Failed to get story")
		return
	}
	c.JSON(http.StatusOK, storyResponse(story))
}

func (s *Server) handleCreateStory(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.StoryRequest
	if !readBody(c, &req) {
		return
	}
	if !s.requirePokerAdmin(c, sessionID, req.AdminToken, storyAdminMessages) {
		return
	}
	if !validate(c, &req, storyMessages, "Story description is required") {
		return
	}
	story, err := s.store.CreateStory(c.Request.Context(), sessionID, req.Description)
	if err != nil {
		respondError(c, err, nil, "Failed to create story")
		return
	}
	log.Printf("story created session_id=%s story_id=%d", sessionID, story.ID)
	resp := storyResponse(story)
	resp.Message = "Story created successfully"
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetVotes(c *gin.Context) {
	snapshot, err := s.store.VoteSnapshot(c.Request.Context(), sessionParam(c))
	if err != nil {
		respondError(c, err, nil, "Failed to get votes")
		return
	}
	c.JSON(http.StatusOK, votesResponse(snapshot))
}

func (s *Server) handleSubmitVote(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.VoteRequest
	if !bindJSON(c, &req, voteMessages, "Voter name is required") {
		return
	}
	value, problem := validateVoteValue(req.VoteValue)
	if problem != "" {
		writeError(c, http.StatusBadRequest, problem)
		return
	}
	vote, err := s.store.SubmitVote(c.Request.Context(), sessionID, req.VoterName, value)
	if err != nil {
		respondError(c, err, errorMessages{
			store.ErrNoActiveStory: "No active story. Please wait for admin to create a story.",
		}, "Failed to submit vote")
		return
	}
	log.Printf("vote submitted session_id=%s story_id=%d voter=%s", sessionID, vote.StoryID, vote.VoterName)
	c.JSON(http.StatusOK, api.VoteAccepted{
		Message:   "Vote submitted successfully",
		VoterName: vote.VoterName,
		VoteValue: vote.VoteValue,
	})
}

func (s *Server) handleReveal(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.AdminRequest
	if !readBody(c, &req) || !s.requirePokerAdmin(c, sessionID, req.AdminToken, nil) {
		return
	}
	already, err := s.store.RevealVotes(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to reveal votes")
		return
	}
	message := "Votes revealed successfully"
	if already {
		message = "Votes are already revealed"
	} else {
		log.Printf("votes revealed session_id=%s", sessionID)
	}
	c.JSON(http.StatusOK, api.RevealResponse{Message: message, IsRevealed: true})
}

func (s *Server) handleReset(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.AdminRequest
	if !readBody(c, &req) || !s.requirePokerAdmin(c, sessionID, req.AdminToken, nil) {
		return
	}
	snapshot, err := s.store.ResetVotes(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, nil, "Failed to reset votes")
		return
	}
	log.Printf("votes reset session_id=%s story_id=%d", sessionID, snapshot.Story.ID)
	c.JSON(http.StatusOK, api.ResetResponse{
		Message:     "Votes reset successfully",
		LastUpdated: millis(snapshot.LastUpdated),
		IsRevealed:  snapshot.IsRevealed,
	})
}

func (s *Server) handleNewStory(c *gin.Context) {
	sessionID := sessionParam(c)
	var req api.NewStoryRequest
	if !readBody(c, &req) || !s.requirePokerAdmin(c, sessionID, req.AdminToken, nil) {
		return
	}
	if !validate(c, &req, storyMessages, "Story description is invalid") {
		return
	}
	story, err := s.store.NewStory(c.Request.Context(), sessionID, req.Description)
	if err != nil {
		respondError(c, err, nil, "Failed to create new story")
		return
	}
	if story == nil {
		c.JSON(http.StatusOK, api.NewStoryResponse{Message: "Votes reset for new story"})
		return
	}
	log.Printf("new story session_id=%s story_id=%d", sessionID, story.ID)
	c.JSON(http.StatusOK, api.NewStoryResponse{
		Message:     "New story created and votes reset",
		StoryID:     story.ID,
		Description: story.Description,
	})
}

package server

import (
	"sprint-poker/internal/store"

	"github.com/gin-gonic/gin"
)

// requirePokerAdmin writes the 403/404 response and returns false unless
// token grants admin rights on the poker session.
func (s *Server) requirePokerAdmin(c *gin.Context, sessionID, token string, overrides errorMessages) bool {
	if err := s.store.AuthorizePoker(c.Request.Context(), sessionID, token); err != nil {
		respondError(c, err, overrides, "Failed to verify admin token")
		return false
	}
	return true
}

func (s *Server) requireRetroAdmin(c *gin.Context, sessionID, token string) bool {
	if err := s.store.AuthorizeRetro(c.Request.Context(), sessionID, token); err != nil {
		respondError(c, err, nil, "Failed to verify admin token")
		return false
	}
	return true
}

var storyAdminMessages = errorMessages{
	store.ErrAdminTokenRequired: "Admin token is required to create stories",
}

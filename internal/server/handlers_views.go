package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"sprint-poker/internal/store"
	"sprint-poker/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHome(c *gin.Context) {
	templ.Handler(web.Home(web.HomeData{
		GlobalBoards:      s.cfg.GlobalBoards,
		GlobalSessionID:   store.GlobalSessionID,
		PollSingleSeconds: s.cfg.PollSingleSeconds,
		PollMultiSeconds:  s.cfg.PollMultiSeconds,
	})).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("health check failed err=%v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

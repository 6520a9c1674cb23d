package server

import (
	"context"
	"log"
	"net/http"

	"sprint-poker/internal/config"
	"sprint-poker/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type Server struct {
	store   *store.Store
	cfg     config.Config
	limiter *rateLimiter
}

type Option func(*Server)

// WithRedis enables the shared rate limiter. Without it every request is
// allowed.
func WithRedis(client *redis.Client) Option {
	return func(s *Server) {
		s.limiter = newRateLimiter(client, s.cfg.RateLimitQPS)
	}
}

func New(conn *gorm.DB, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		store: store.New(conn, store.WithTokenCost(cfg.AdminTokenCost)),
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = newRateLimiter(nil, cfg.RateLimitQPS)
	}
	return s
}

// Bootstrap creates the tokenless global boards when they are enabled.
func (s *Server) Bootstrap(ctx context.Context) error {
	if !s.cfg.GlobalBoards {
		return nil
	}
	if _, err := s.store.EnsureOpenPokerSession(ctx, store.GlobalSessionID); err != nil {
		return err
	}
	if _, err := s.store.EnsureOpenRetroSession(ctx, store.GlobalSessionID); err != nil {
		return err
	}
	log.Printf("global boards ready session_id=%s", store.GlobalSessionID)
	return nil
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(s.corsConfig()))

	route(r, "/", methods{http.MethodGet: s.handleHome})
	route(r, "/healthz", methods{http.MethodGet: s.handleHealth})

	poker := r.Group("/api/poker-session")
	route(poker, "/create", methods{http.MethodPost: s.handleCreatePokerSession})
	route(poker, "/:sessionId", methods{
		http.MethodGet:  s.handleGetPokerSession,
		http.MethodPost: s.handleVerifyPokerAdmin,
	})
	s.pokerRoutes(poker.Group("/:sessionId"))
	route(poker, "/:sessionId/events", methods{http.MethodGet: s.handlePokerEvents})

	retro := r.Group("/api/retro-session")
	route(retro, "/create", methods{http.MethodPost: s.handleCreateRetroSession})
	route(retro, "/:sessionId", methods{
		http.MethodGet:  s.handleGetRetroSession,
		http.MethodPost: s.handleVerifyRetroAdmin,
	})
	s.retroRoutes(retro.Group("/:sessionId"))
	route(retro, "/:sessionId/events", methods{http.MethodGet: s.handleRetroEvents})

	if s.cfg.GlobalBoards {
		api := r.Group("/api")
		s.pokerRoutes(api)
		s.retroRoutes(api.Group("/retro"))
	}
	return r
}

// pokerRoutes registers the board endpoints under a session group or, for
// the global board, directly under /api.
func (s *Server) pokerRoutes(g *gin.RouterGroup) {
	route(g, "/story", methods{
		http.MethodGet:  s.handleGetStory,
		http.MethodPost: s.handleCreateStory,
	})
	route(g, "/votes", methods{
		http.MethodGet:  s.handleGetVotes,
		http.MethodPost: s.handleSubmitVote,
	})
	route(g, "/reveal", methods{http.MethodPost: s.handleReveal})
	route(g, "/reset", methods{http.MethodPost: s.handleReset})
	route(g, "/new-story", methods{http.MethodPost: s.handleNewStory})
}

func (s *Server) retroRoutes(g *gin.RouterGroup) {
	route(g, "/meeting", methods{
		http.MethodGet:  s.handleGetMeeting,
		http.MethodPost: s.handleCreateMeeting,
		http.MethodPut:  s.handleUpdateMeetingTitle,
	})
	route(g, "/columns", methods{
		http.MethodPost:   s.handleAddColumn,
		http.MethodPut:    s.handleUpdateColumn,
		http.MethodDelete: s.handleDeleteColumn,
	})
	route(g, "/items", methods{
		http.MethodPost:   s.handleAddItem,
		http.MethodPut:    s.handleUpdateItem,
		http.MethodDelete: s.handleDeleteItem,
	})
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID", "Allow", "Retry-After"}
	return cfg
}

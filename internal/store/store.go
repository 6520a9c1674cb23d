// Package store is the data-access layer for poker and retro sessions. Every
// mutation that touches more than one row runs in a single transaction and
// locks the owning session row first, so concurrent admins serialize on the
// session.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNoActiveStory      = errors.New("no active story")
	ErrAlreadyRevealed    = errors.New("votes already revealed")
	ErrNoActiveMeeting    = errors.New("no active meeting")
	ErrAdminTokenRequired = errors.New("admin token is required")
	ErrInvalidAdminToken  = errors.New("invalid admin token")

	// ErrSessionNotFound matches ErrNotFound as well.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
)

// GlobalSessionID is the well-known id of the single-board poker and retro
// sessions that predate session links.
const GlobalSessionID = "GLOBAL00"

type Store struct {
	db        *gorm.DB
	tokenCost int
}

type Option func(*Store)

// WithTokenCost sets the bcrypt cost used to hash admin tokens.
func WithTokenCost(cost int) Option {
	return func(s *Store) {
		s.tokenCost = cost
	}
}

func New(conn *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:        conn,
		tokenCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// sessionRef is the subset of a poker or retro session row needed to scope
// child queries and check admin rights.
type sessionRef struct {
	ID             uint
	SessionID      string
	AdminTokenHash string
	Open           bool
}

func loadSession(tx *gorm.DB, model any, sessionID string, lock bool) (sessionRef, error) {
	var ref sessionRef
	query := tx.Model(model).Where("session_id = ?", normalizeSessionID(sessionID))
	if lock && tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Take(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ref, ErrSessionNotFound
		}
		return ref, err
	}
	return ref, nil
}

func authorize(ref sessionRef, token string) error {
	if ref.Open {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrAdminTokenRequired
	}
	if ref.AdminTokenHash == "" {
		return ErrInvalidAdminToken
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ref.AdminTokenHash), []byte(token)); err != nil {
		return ErrInvalidAdminToken
	}
	return nil
}

func normalizeSessionID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

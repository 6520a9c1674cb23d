package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sprint-poker/internal/db"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxCreateAttempts = 5

// Credentials are returned once when a session is created. The token is
// stored only as a hash.
type Credentials struct {
	SessionID  string
	AdminToken string
}

func (s *Store) CreatePokerSession(ctx context.Context) (Credentials, error) {
	return s.createSession(ctx, db.SessionKindPoker, &db.PokerSession{}, func(tx *gorm.DB, id, hash string) error {
		return tx.Create(&db.PokerSession{SessionID: id, AdminTokenHash: hash}).Error
	})
}

func (s *Store) CreateRetroSession(ctx context.Context) (Credentials, error) {
	return s.createSession(ctx, db.SessionKindRetro, &db.RetroSession{}, func(tx *gorm.DB, id, hash string) error {
		return tx.Create(&db.RetroSession{SessionID: id, AdminTokenHash: hash}).Error
	})
}

func (s *Store) createSession(ctx context.Context, kind string, model any, insert func(*gorm.DB, string, string) error) (Credentials, error) {
	token, err := newAdminToken()
	if err != nil {
		return Credentials{}, fmt.Errorf("generate admin token: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), s.tokenCost)
	if err != nil {
		return Credentials{}, fmt.Errorf("hash admin token: %w", err)
	}
	exists := func(ctx context.Context, id string) (bool, error) {
		var count int64
		err := s.db.WithContext(ctx).Model(model).Where("session_id = ?", id).Count(&count).Error
		return count > 0, err
	}
	// Two creators can pick the same free id; the unique index settles it and
	// the loser draws again.
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id, err := uniqueSessionID(ctx, exists, newSessionID)
		if err != nil {
			return Credentials{}, err
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := insert(tx, id, string(hash)); err != nil {
				return err
			}
			return recordEvent(tx, kind, id, EventSessionCreated, EventPayload{})
		})
		if err == nil {
			return Credentials{SessionID: id, AdminToken: token}, nil
		}
		if !isUniqueViolation(err) {
			return Credentials{}, err
		}
		log.Printf("session id collision kind=%s session_id=%s attempt=%d", kind, id, attempt+1)
	}
	return Credentials{}, errors.New("could not allocate session id")
}

// EnsureOpenPokerSession creates the tokenless poker board with the given id
// when it does not exist yet.
func (s *Store) EnsureOpenPokerSession(ctx context.Context, sessionID string) (*db.PokerSession, error) {
	record := db.PokerSession{}
	err := s.db.WithContext(ctx).
		Where(db.PokerSession{SessionID: normalizeSessionID(sessionID)}).
		Attrs(db.PokerSession{Open: true}).
		FirstOrCreate(&record).Error
	if err != nil && isUniqueViolation(err) {
		err = s.db.WithContext(ctx).Where("session_id = ?", normalizeSessionID(sessionID)).Take(&record).Error
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) EnsureOpenRetroSession(ctx context.Context, sessionID string) (*db.RetroSession, error) {
	record := db.RetroSession{}
	err := s.db.WithContext(ctx).
		Where(db.RetroSession{SessionID: normalizeSessionID(sessionID)}).
		Attrs(db.RetroSession{Open: true}).
		FirstOrCreate(&record).Error
	if err != nil && isUniqueViolation(err) {
		err = s.db.WithContext(ctx).Where("session_id = ?", normalizeSessionID(sessionID)).Take(&record).Error
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) PokerSession(ctx context.Context, sessionID string) (*db.PokerSession, error) {
	var record db.PokerSession
	err := s.db.WithContext(ctx).Where("session_id = ?", normalizeSessionID(sessionID)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) RetroSession(ctx context.Context, sessionID string) (*db.RetroSession, error) {
	var record db.RetroSession
	err := s.db.WithContext(ctx).Where("session_id = ?", normalizeSessionID(sessionID)).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AuthorizePoker returns nil when token grants admin rights on the session,
// ErrSessionNotFound for an unknown session and ErrAdminTokenRequired or
// ErrInvalidAdminToken otherwise.
func (s *Store) AuthorizePoker(ctx context.Context, sessionID, token string) error {
	ref, err := loadSession(s.db.WithContext(ctx), &db.PokerSession{}, sessionID, false)
	if err != nil {
		return err
	}
	return authorize(ref, token)
}

func (s *Store) AuthorizeRetro(ctx context.Context, sessionID, token string) error {
	ref, err := loadSession(s.db.WithContext(ctx), &db.RetroSession{}, sessionID, false)
	if err != nil {
		return err
	}
	return authorize(ref, token)
}

// VerifyPokerAdmin reports whether token is valid for the session. An
// unknown session is not an error here; it simply has no admin.
func (s *Store) VerifyPokerAdmin(ctx context.Context, sessionID, token string) (bool, error) {
	return verified(s.AuthorizePoker(ctx, sessionID, token))
}

func (s *Store) VerifyRetroAdmin(ctx context.Context, sessionID, token string) (bool, error) {
	return verified(s.AuthorizeRetro(ctx, sessionID, token))
}

func verified(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAdminTokenRequired), errors.Is(err, ErrInvalidAdminToken):
		return false, nil
	default:
		return false, err
	}
}

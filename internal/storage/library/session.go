// Handles active admin sessions backed by sessions.csv.

package library

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/maruel/ksid"

	"github.com/finoptiv/shelf/internal/csvdb"
	"github.com/finoptiv/shelf/internal/storage"
)

var (
	errSessionTokenHashRequired = errors.New("session token hash is required")
	// ErrSessionQuotaExceeded is returned when too many sessions are active.
	ErrSessionQuotaExceeded = errors.New("maximum number of active sessions exceeded")
)

// Session represents an active admin session.
type Session struct {
	ID        ksid.ID      `json:"id"`
	TokenHash string       `json:"-"`
	UserAgent string       `json:"user_agent"`
	IPAddress string       `json:"ip_address"`
	Created   storage.Time `json:"created"`
	LastUsed  storage.Time `json:"last_used"`
	ExpiresAt storage.Time `json:"expires_at"`
	RevokedAt storage.Time `json:"revoked_at,omitempty"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// GetID returns the session's ID.
func (s *Session) GetID() ksid.ID {
	return s.ID
}

// Validate checks that the session is well-formed.
func (s *Session) Validate() error {
	if s.TokenHash == "" {
		return errSessionTokenHashRequired
	}
	return nil
}

// MarshalRecord implements [csvdb.Row].
func (s *Session) MarshalRecord() []string {
	return []string{
		s.ID.String(),
		s.TokenHash,
		s.UserAgent,
		s.IPAddress,
		s.Created.String(),
		s.LastUsed.String(),
		s.ExpiresAt.String(),
		s.RevokedAt.String(),
	}
}

var sessionColumns = []string{"ID", "TokenHash", "UserAgent", "IPAddress", "Created", "LastUsed", "ExpiresAt", "RevokedAt"}

func decodeSession(fields map[string]string) (*Session, error) {
	s := &Session{
		TokenHash: fields["TokenHash"],
		UserAgent: fields["UserAgent"],
		IPAddress: fields["IPAddress"],
	}
	if v := fields["ID"]; v != "" {
		id, err := ksid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("bad ID: %w", err)
		}
		s.ID = id
	}
	var err error
	if s.Created, err = storage.ParseTime(fields["Created"]); err != nil {
		return nil, fmt.Errorf("bad Created: %w", err)
	}
	if s.LastUsed, err = storage.ParseTime(fields["LastUsed"]); err != nil {
		return nil, fmt.Errorf("bad LastUsed: %w", err)
	}
	if s.ExpiresAt, err = storage.ParseTime(fields["ExpiresAt"]); err != nil {
		return nil, fmt.Errorf("bad ExpiresAt: %w", err)
	}
	if s.RevokedAt, err = storage.ParseTime(fields["RevokedAt"]); err != nil {
		return nil, fmt.Errorf("bad RevokedAt: %w", err)
	}
	return s, nil
}

// SessionService handles session management.
type SessionService struct {
	table *csvdb.Table[*Session]
}

// NewSessionService creates a session service over the given CSV file.
func NewSessionService(tablePath string) (*SessionService, error) {
	table, err := csvdb.NewTable(tablePath, sessionColumns, decodeSession)
	if err != nil {
		return nil, err
	}
	return &SessionService{table: table}, nil
}

// CreateWithID creates a new session with a pre-specified ID, so the ID can
// be embedded in the JWT before the session row exists.
// maxSessions limits active sessions. Use 0 to disable the limit.
func (s *SessionService) CreateWithID(id ksid.ID, tokenHash, userAgent, ipAddress string, expiresAt storage.Time, maxSessions int) (*Session, error) {
	if tokenHash == "" {
		return nil, errSessionTokenHashRequired
	}
	if maxSessions > 0 && s.CountActive() >= maxSessions {
		return nil, ErrSessionQuotaExceeded
	}
	now := storage.Now()
	session := &Session{
		ID:        id,
		TokenHash: tokenHash,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		Created:   now,
		LastUsed:  now,
		ExpiresAt: expiresAt,
	}
	if err := s.table.Append(session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// Get retrieves a session by ID.
func (s *SessionService) Get(id ksid.ID) (*Session, error) {
	session := s.table.Get(id)
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return session, nil
}

// All returns an iterator over all sessions, including revoked and expired
// ones.
func (s *SessionService) All() iter.Seq[*Session] {
	return s.table.All()
}

// IsValid reports whether a session exists, is not revoked and has not
// expired.
func (s *SessionService) IsValid(id ksid.ID) bool {
	session := s.table.Get(id)
	if session == nil {
		return false
	}
	if !session.RevokedAt.IsZero() {
		return false
	}
	return session.ExpiresAt.After(storage.Now())
}

// Touch updates the LastUsed timestamp for a session.
func (s *SessionService) Touch(id ksid.ID) error {
	session := s.table.Get(id)
	if session == nil {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	session.LastUsed = storage.Now()
	_, err := s.table.Update(session)
	return err
}

// Revoke marks a session as revoked. Revoking twice is a no-op.
func (s *SessionService) Revoke(id ksid.ID) error {
	session := s.table.Get(id)
	if session == nil {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if !session.RevokedAt.IsZero() {
		return nil
	}
	session.RevokedAt = storage.Now()
	_, err := s.table.Update(session)
	return err
}

// CountActive returns the number of active (non-revoked, non-expired)
// sessions.
func (s *SessionService) CountActive() int {
	now := storage.Now()
	count := 0
	for session := range s.table.All() {
		if session.RevokedAt.IsZero() && session.ExpiresAt.After(now) {
			count++
		}
	}
	return count
}

// CleanupExpired removes sessions that have been expired for more than the
// given duration. Returns the number removed.
func (s *SessionService) CleanupExpired(olderThan time.Duration) (int, error) {
	cutoff := storage.ToTime(time.Now().Add(-olderThan))
	var toDelete []ksid.ID
	for session := range s.table.All() {
		if session.ExpiresAt.Before(cutoff) {
			toDelete = append(toDelete, session.ID)
		}
	}
	count := 0
	for _, id := range toDelete {
		if _, err := s.table.Delete(id); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

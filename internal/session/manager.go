package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/utils"
)

// Common errors
var (
	ErrNotProlongable = errors.New("session is hard-expired and cannot be prolonged")
	ErrInvalidSession = errors.New("invalid session")
)

// Config is the immutable session manager configuration.
type Config struct {
	Key            string
	Expires        time.Duration
	HardExpires    time.Duration
	SingleSession  bool
	WrongIPExpires bool
	Secured        bool
	CacheTTL       time.Duration
	CacheSize      int
	TokenCacheTTL  time.Duration
	TokenCacheSize int
}

// FromConfig maps the application config onto a manager Config.
func FromConfig(sc config.SessionConfig) Config {
	return Config{
		Key:            sc.Key,
		Expires:        sc.Expires.Std(),
		HardExpires:    sc.HardExpires.Std(),
		SingleSession:  sc.SingleSession,
		WrongIPExpires: sc.WrongIPExpires,
		Secured:        sc.Secured,
		CacheTTL:       sc.CacheTTL.Std(),
		CacheSize:      sc.CacheSize,
		TokenCacheTTL:  sc.TokenCacheTTL.Std(),
		TokenCacheSize: sc.TokenCacheSize,
	}
}

// Manager issues, validates, caches and expires sessions. Safe for
// concurrent use. The session row cache and the secure-token cache are kept
// separate because the token is checked on a different cadence than the row.
type Manager struct {
	cfg    Config
	db     *gorm.DB
	clock  clockwork.Clock
	cache  *expirable.LRU[string, Session]
	tokens *expirable.LRU[string, string]
}

func New(d *gorm.DB, cfg Config, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		cfg:    cfg,
		db:     d,
		clock:  clock,
		cache:  expirable.NewLRU[string, Session](cfg.CacheSize, nil, cfg.CacheTTL),
		tokens: expirable.NewLRU[string, string](cfg.TokenCacheSize, nil, cfg.TokenCacheTTL),
	}
}

func (m *Manager) Config() Config { return m.cfg }

// Clock exposes the manager's clock so callers compare expiry against the
// same time source sessions are validated with.
func (m *Manager) Clock() clockwork.Clock { return m.clock }

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Create issues a session for a freshly authenticated user. Under the
// single-session policy any other live session for the user is destroyed
// first, so at most one remains valid.
func (m *Manager) Create(userID, userEmail, clientIP string) (*Session, error) {
	if m.cfg.SingleSession {
		if err := m.InvalidateUserSessions(userID, "new login"); err != nil {
			return nil, err
		}
	}

	now := m.clock.Now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserEmail: userEmail,
		Created:   now,
		Active:    now,
		IP:        clientIP,
	}
	if m.cfg.Secured {
		token, err := randomToken()
		if err != nil {
			return nil, err
		}
		s.SecureToken = token
	}

	if err := m.db.Create(&s).Error; err != nil {
		return nil, err
	}

	m.cache.Add(s.ID, s)
	if m.cfg.Secured {
		m.tokens.Add(s.ID, s.SecureToken)
	}
	return &s, nil
}

// Lookup reads a session cache-first. Entries younger than the cache TTL are
// trusted without a database round trip.
func (m *Manager) Lookup(id string) (*Session, Status) {
	if s, ok := m.cache.Get(id); ok {
		return &s, StatusValid
	}

	var s Session
	err := m.db.First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, StatusNotFound
	}
	if err != nil {
		log.Printf("[session] lookup %s: %v", id, err)
		return nil, StatusError
	}

	m.cache.Add(id, s)
	return &s, StatusValid
}

// lookupToken reads the secure-token half through its own cache.
func (m *Manager) lookupToken(id string) (string, Status) {
	if token, ok := m.tokens.Get(id); ok {
		return token, StatusValid
	}

	var s Session
	err := m.db.Select("secure_token").First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", StatusNotFound
	}
	if err != nil {
		log.Printf("[session] token lookup %s: %v", id, err)
		return "", StatusError
	}

	m.tokens.Add(id, s.SecureToken)
	return s.SecureToken, StatusValid
}

// Validate classifies a session against the request's token and client IP.
// Pure given the injected clock; ordering matters: hard expiry beats
// everything, then token, then IP binding, then soft expiry.
func (m *Manager) Validate(s *Session, token, clientIP string) Status {
	if s == nil {
		return StatusNotFound
	}

	now := m.clock.Now()
	if s.Active.After(now) || s.Created.After(s.Active.Add(time.Second)) {
		// Timestamps from the future mean a corrupted row or a bad clock.
		return StatusError
	}
	if now.Sub(s.Active) > m.cfg.HardExpires {
		return StatusHardExpired
	}
	if m.cfg.Secured {
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.SecureToken)) != 1 {
			return StatusBadToken
		}
	}
	if m.cfg.WrongIPExpires && clientIP != "" && clientIP != s.IP {
		return StatusIPMismatch
	}
	if now.Sub(s.Active) > m.cfg.Expires {
		return StatusExpired
	}
	return StatusValid
}

// Authorize is Lookup plus Validate. On StatusExpired the session is still
// returned so the caller can offer prolongation.
func (m *Manager) Authorize(id, token, clientIP string) (*Session, Status) {
	s, st := m.Lookup(id)
	if st != StatusValid {
		return nil, st
	}
	if m.cfg.Secured && token != s.SecureToken {
		// The row cache may be stale after a token rotation; consult the
		// token cache before rejecting.
		fresh, tst := m.lookupToken(id)
		if tst == StatusValid {
			s.SecureToken = fresh
		}
	}
	st = m.Validate(s, token, clientIP)
	if st == StatusValid || st == StatusExpired {
		return s, st
	}
	return nil, st
}

// FindSessionByID adapts Authorize to the middleware-facing fetcher
// interface: valid and soft-expired sessions come back as data with an
// ExpiresAt the middleware can compare, everything else is an error.
func (m *Manager) FindSessionByID(id, token, clientIP string) (utils.SessionData, error) {
	s, st := m.Authorize(id, token, clientIP)
	if s == nil {
		return utils.SessionData{}, fmt.Errorf("%w: %s", ErrInvalidSession, st)
	}
	return utils.SessionData{
		SessionID: s.ID,
		UserID:    s.UserID,
		UserEmail: s.UserEmail,
		ExpiresAt: s.Active.Add(m.cfg.Expires),
	}, nil
}

// Prolong refreshes a soft-expired session. Hard-expired sessions require
// full re-authentication; still-valid sessions are refreshed as a no-op
// convenience.
func (m *Manager) Prolong(id, token, clientIP string) (*Session, error) {
	s, st := m.Lookup(id)
	if st != StatusValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, st)
	}

	switch m.Validate(s, token, clientIP) {
	case StatusValid, StatusExpired:
		// prolongable
	case StatusHardExpired:
		return nil, ErrNotProlongable
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, m.Validate(s, token, clientIP))
	}

	now := m.clock.Now()
	if err := m.db.Model(&Session{}).Where("id = ?", id).Update("active", now).Error; err != nil {
		return nil, err
	}
	s.Active = now
	m.cache.Add(id, *s)
	return s, nil
}

// Destroy removes a session (logout). Cache entries are purged
// synchronously so a destroyed session is never served stale.
func (m *Manager) Destroy(id string) error {
	if err := m.db.Delete(&Session{}, "id = ?", id).Error; err != nil {
		return err
	}
	m.db.Delete(&Variable{}, "session_id = ?", id)
	m.cache.Remove(id)
	m.tokens.Remove(id)
	return nil
}

// InvalidateUserSessions forcibly expires every live session of a user.
// Used on password or identity change and by the single-session policy.
func (m *Manager) InvalidateUserSessions(userID, reason string) error {
	var ids []string
	if err := m.db.Model(&Session{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := m.db.Delete(&Session{}, "id IN ?", ids).Error; err != nil {
		return err
	}
	m.db.Delete(&Variable{}, "session_id IN ?", ids)
	for _, id := range ids {
		m.cache.Remove(id)
		m.tokens.Remove(id)
	}
	log.Printf("[session] invalidated %d session(s) for user %s: %s", len(ids), userID, reason)
	return nil
}

// PurgeHardExpired removes sessions past the hard-expiry horizon. Run from
// the maintenance schedule, not the request path.
func (m *Manager) PurgeHardExpired() (int64, error) {
	horizon := m.clock.Now().Add(-m.cfg.HardExpires)
	res := m.db.Where("active < ?", horizon).Delete(&Session{})
	return res.RowsAffected, res.Error
}

// GetVariable reads one per-session variable.
func (m *Manager) GetVariable(sessionID, id string) (string, bool, error) {
	var v Variable
	err := m.db.First(&v, "session_id = ? AND id = ?", sessionID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.Value, true, nil
}

// SetVariable upserts one per-session variable.
func (m *Manager) SetVariable(sessionID, id, value string) error {
	v := Variable{SessionID: sessionID, ID: id, Value: value}
	return m.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&v).Error
}

// DeleteVariable removes one per-session variable.
func (m *Manager) DeleteVariable(sessionID, id string) error {
	return m.db.Delete(&Variable{}, "session_id = ? AND id = ?", sessionID, id).Error
}

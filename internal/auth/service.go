package auth

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/Gateward/GW-Backend/internal/authlog"
	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/session"
	"github.com/Gateward/GW-Backend/internal/suite"
)

var ErrUserExists = errors.New("user already exists")

// Service is the authentication engine: credential checks, the locking
// state machine, cached user lookups and audit logging. Safe for concurrent
// use; counter updates run as atomic SQL so concurrent failures for one
// user never lose an increment.
type Service struct {
	db       *gorm.DB
	cfg      *config.Config
	clock    clockwork.Clock
	sessions *session.Manager
	audit    *authlog.Writer
	settings suite.Settings

	users *expirable.LRU[string, User] // by email

	// suiteIDs maps account type to the interned suite id new credentials
	// are encrypted under. Built once at startup.
	suiteIDs map[string]uint

	chainMu sync.RWMutex
	chains  map[uint]suite.Chain // stored suites, loaded lazily
}

func NewService(d *gorm.DB, cfg *config.Config, clock clockwork.Clock, sessions *session.Manager, audit *authlog.Writer) (*Service, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Service{
		db:       d,
		cfg:      cfg,
		clock:    clock,
		sessions: sessions,
		audit:    audit,
		settings: config.Settings(),
		users:    expirable.NewLRU[string, User](cfg.Caches.UserSize, nil, cfg.Caches.UserTTL.Std()),
		suiteIDs: make(map[string]uint, len(cfg.AccountTypes)),
		chains:   make(map[uint]suite.Chain),
	}

	// Intern every configured suite up front so a bad chain is a startup
	// failure, and every account type resolves to a suite id.
	for accountType, policy := range cfg.AccountTypes {
		chain := suite.Chain(policy.Suite)
		id, err := suite.Intern(d, chain)
		if err != nil {
			return nil, fmt.Errorf("auth: interning suite for %q: %w", accountType, err)
		}
		s.suiteIDs[accountType] = id
		s.chainMu.Lock()
		s.chains[id] = chain
		s.chainMu.Unlock()
	}
	return s, nil
}

// Policy resolves the locking policy for an account type.
func (s *Service) Policy(accountType string) Policy {
	p := s.cfg.Policy(accountType)
	return Policy{
		MaxAttempts: p.MaxAttempts,
		LockWait:    p.LockWait.Std(),
		FailExpires: p.FailExpires.Std(),
	}
}

// SuiteID returns the interned suite id for an account type.
func (s *Service) SuiteID(accountType string) uint {
	if id, ok := s.suiteIDs[accountType]; ok {
		return id
	}
	return s.suiteIDs[s.cfg.DefaultAccountType]
}

// ChainFor returns the chain of an account type's configured suite.
func (s *Service) ChainFor(accountType string) suite.Chain {
	return suite.Chain(s.cfg.Policy(accountType).Suite)
}

// chainForSuite resolves a stored suite id to its chain, caching the parse.
func (s *Service) chainForSuite(id uint) (suite.Chain, error) {
	s.chainMu.RLock()
	chain, ok := s.chains[id]
	s.chainMu.RUnlock()
	if ok {
		return chain, nil
	}

	chain, err := suite.Load(s.db, id)
	if err != nil {
		return nil, err
	}
	s.chainMu.Lock()
	s.chains[id] = chain
	s.chainMu.Unlock()
	return chain, nil
}

// lookupUser reads a user through the email-keyed cache.
func (s *Service) lookupUser(email string) (*User, bool, error) {
	if u, ok := s.users.Get(email); ok {
		return &u, true, nil
	}

	var u User
	err := s.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	s.users.Add(email, u)
	return &u, true, nil
}

// invalidateUser drops the cached entry for an email. Every writer calls
// this synchronously before reporting success; TTL eviction alone is not
// enough for correctness-sensitive changes like locking.
func (s *Service) invalidateUser(email string) {
	s.users.Remove(email)
}

// delay sleeps the anti-enumeration wait: base wait plus uniform random
// jitter, with a different base when the user does not exist at all. The
// sleep is bounded above by wait + wait_random, so it can never become an
// unbounded stall.
func (s *Service) delay(userExists bool) {
	base := s.cfg.Auth.Wait.Std()
	if !userExists {
		base = s.cfg.Auth.WaitNoUser.Std()
	}
	jitter := time.Duration(0)
	if max := s.cfg.Auth.WaitRandom.Std(); max > 0 {
		jitter = rand.N(max)
	}
	s.clock.Sleep(base + jitter)
}

// Authenticate runs one authentication attempt and returns its terminal
// outcome, plus the freshly created session when the outcome is ResultOK.
func (s *Service) Authenticate(email, password, clientIP string) (Result, *session.Session) {
	u, exists, err := s.lookupUser(email)
	s.delay(exists && err == nil)
	if err != nil {
		log.Printf("[auth] user lookup for login failed: %v", err)
		return ResultSessionError, nil
	}
	if !exists {
		s.audit.Log("", clientIP, "login", false, "info", "unknown identity")
		return ResultBadPassword, nil
	}

	policy := s.Policy(u.AccountType)
	now := s.clock.Now()

	switch StateOf(u, policy, now) {
	case LockHard:
		s.audit.Log(u.ID, clientIP, "login", false, "warn", "account locked")
		return ResultLocked, nil
	case LockSoft:
		s.audit.Log(u.ID, clientIP, "login", false, "warn", "account soft-locked")
		return ResultSoftLocked, nil
	}

	ok, err := s.CheckPassword(u, password)
	if err != nil {
		// Malformed stored record or unusable suite: infrastructure, not a
		// user-facing detail.
		log.Printf("[auth] password check for %s: %v", u.ID, err)
		return ResultSessionError, nil
	}
	if !ok {
		s.recordFailure(u, clientIP, policy, now)
		s.audit.Log(u.ID, clientIP, "login", false, "info", "bad password")
		return ResultBadPassword, nil
	}

	if err := s.recordSuccess(u, clientIP, now); err != nil {
		log.Printf("[auth] recording successful login for %s: %v", u.ID, err)
		return ResultSessionError, nil
	}

	sess, err := s.sessions.Create(u.ID, u.Email, clientIP)
	if err != nil {
		log.Printf("[auth] session create for %s: %v", u.ID, err)
		s.audit.Log(u.ID, clientIP, "login", false, "error", "session create failed")
		return ResultSessionError, nil
	}

	s.audit.Log(u.ID, clientIP, "login", true, "info", "ok")
	return ResultOK, sess
}

// CheckPassword verifies a plaintext against the user's stored record under
// the user's persisted suite. Wrong password is (false, nil); errors mean
// the record or suite is unusable.
func (s *Service) CheckPassword(u *User, password string) (bool, error) {
	chain, err := s.chainForSuite(u.PasswordSuiteID)
	if err != nil {
		return false, err
	}
	rec, err := suite.ParseRecord(u.Password)
	if err != nil {
		return false, err
	}
	return chain.Check(password, rec, s.settings)
}

// recordFailure applies the failed-attempt transition atomically in SQL:
// the counter resets to 1 when the previous attempt is outside the
// fail-expires window, otherwise increments; reaching max_attempts sets
// soft_locked. Two concurrent failures can never both write the same stale
// counter value.
func (s *Service) recordFailure(u *User, clientIP string, p Policy, now time.Time) {
	err := s.db.Model(&User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"login_attempts": gorm.Expr(
			"CASE WHEN last_attempt IS NULL OR last_attempt < ? THEN 1 ELSE login_attempts + 1 END",
			now.Add(-p.FailExpires)),
		"last_attempt":   now,
		"last_failed_ip": clientIP,
	}).Error
	if err != nil {
		log.Printf("[auth] recording failed attempt for %s: %v", u.ID, err)
		return
	}

	// A stale timestamp from an expired lock must not block re-locking: the
	// lazy clear leaves soft_locked set, so the guard admits both NULL and
	// any value past the lock-wait horizon. A live lock is never re-stamped,
	// which keeps its window from being extended.
	err = s.db.Model(&User{}).
		Where("id = ? AND login_attempts >= ? AND (soft_locked IS NULL OR soft_locked < ?)",
			u.ID, p.MaxAttempts, now.Add(-p.LockWait)).
		Update("soft_locked", now).Error
	if err != nil {
		log.Printf("[auth] applying soft lock for %s: %v", u.ID, err)
	}

	s.invalidateUser(u.Email)
}

// recordSuccess resets the attempt counter, clears any soft lock (the lazy
// clear) and stamps the login.
func (s *Service) recordSuccess(u *User, clientIP string, now time.Time) error {
	err := s.db.Model(&User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"login_attempts": 0,
		"soft_locked":    nil,
		"last_ok_ip":     clientIP,
		"last_login":     now,
	}).Error
	if err != nil {
		return err
	}
	s.invalidateUser(u.Email)
	return nil
}

// CreateUser inserts a user with a password already encrypted under the
// account type's configured suite.
func (s *Service) CreateUser(u *User, plainPassword string) error {
	chain := s.ChainFor(u.AccountType)
	rec, err := chain.Encrypt(plainPassword, s.settings)
	if err != nil {
		return err
	}
	raw, err := rec.Marshal()
	if err != nil {
		return err
	}
	u.Password = raw
	u.PasswordSuiteID = s.SuiteID(u.AccountType)

	err = s.db.Create(u).Error
	if err != nil {
		var existing User
		if s.db.First(&existing, "email = ?", u.Email).Error == nil {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// SetPassword re-encrypts under the account type's current suite, persists
// the new record, synchronously invalidates the cached user and forcibly
// expires the user's sessions. The client re-authenticates with the new
// password.
func (s *Service) SetPassword(u *User, plainPassword string) error {
	chain := s.ChainFor(u.AccountType)
	rec, err := chain.Encrypt(plainPassword, s.settings)
	if err != nil {
		return err
	}
	raw, err := rec.Marshal()
	if err != nil {
		return err
	}

	err = s.db.Model(&User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"password":          raw,
		"password_suite_id": s.SuiteID(u.AccountType),
	}).Error
	if err != nil {
		return err
	}

	s.invalidateUser(u.Email)
	if err := s.sessions.InvalidateUserSessions(u.ID, "password change"); err != nil {
		log.Printf("[auth] invalidating sessions after password change for %s: %v", u.ID, err)
	}
	s.audit.Log(u.ID, "", "password-change", true, "info", "ok")
	return nil
}

// SetEmail moves the account to a confirmed new identity. The cached user is
// invalidated under both addresses and every session dies, identical to a
// password change.
func (s *Service) SetEmail(u *User, newEmail string) error {
	err := s.db.Model(&User{}).Where("id = ?", u.ID).Update("email", newEmail).Error
	if err != nil {
		return err
	}

	s.invalidateUser(u.Email)
	s.invalidateUser(newEmail)
	if err := s.sessions.InvalidateUserSessions(u.ID, "email change"); err != nil {
		log.Printf("[auth] invalidating sessions after email change for %s: %v", u.ID, err)
	}
	s.audit.Log(u.ID, "", "email-change", true, "info", "ok")
	return nil
}

// Lock applies the administrative hard lock. The attempt-counter logic
// never clears it.
func (s *Service) Lock(userID, adminID string) error {
	var u User
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		return err
	}
	now := s.clock.Now()
	if err := s.db.Model(&User{}).Where("id = ?", userID).Update("locked", now).Error; err != nil {
		return err
	}
	s.invalidateUser(u.Email)
	if err := s.sessions.InvalidateUserSessions(userID, "account locked"); err != nil {
		log.Printf("[auth] invalidating sessions after lock for %s: %v", userID, err)
	}
	s.audit.Log(userID, "", "lock", true, "warn", "locked by "+adminID)
	return nil
}

// Unlock clears both the hard lock and any soft-lock residue.
func (s *Service) Unlock(userID, adminID string) error {
	var u User
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		return err
	}
	err := s.db.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"locked":         nil,
		"soft_locked":    nil,
		"login_attempts": 0,
	}).Error
	if err != nil {
		return err
	}
	s.invalidateUser(u.Email)
	s.audit.Log(userID, "", "unlock", true, "warn", "unlocked by "+adminID)
	return nil
}

// FindByEmail is the cache-backed public lookup.
func (s *Service) FindByEmail(email string) (*User, bool, error) {
	return s.lookupUser(email)
}

// FindByID reads a user by primary key, bypassing the email cache.
func (s *Service) FindByID(id string) (*User, error) {
	var u User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

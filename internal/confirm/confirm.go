package confirm

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs the identity confirmation flows. Safe for concurrent use;
// attempt counting is done with atomic column updates, not read-modify-write
// in Go.
type Service struct {
	db        *gorm.DB
	clock     clockwork.Clock
	sender    Sender
	retention time.Duration
}

func NewService(d *gorm.DB, clock clockwork.Clock, sender Sender, retention time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if sender == nil {
		sender = LogSender{}
	}
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &Service{db: d, clock: clock, sender: sender, retention: retention}
}

// IdentityKind classifies the identity string shape before anything touches
// the database.
type IdentityKind int

const (
	KindBad IdentityKind = iota
	KindEmail
	KindPhone
)

func ClassifyIdentity(id string) IdentityKind {
	id = strings.TrimSpace(id)
	if id == "" {
		return KindBad
	}
	if at := strings.Index(id, "@"); at > 0 && at < len(id)-3 && strings.Contains(id[at:], ".") {
		return KindEmail
	}
	if strings.HasPrefix(id, "+") && len(id) >= 8 {
		digits := id[1:]
		for _, c := range digits {
			if c < '0' || c > '9' {
				return KindBad
			}
		}
		return KindPhone
	}
	return KindBad
}

func badIdentityFailure(id string) Failure {
	// Report the most specific malformed-input failure we can.
	if strings.Contains(id, "@") {
		return FailEmail
	}
	if strings.HasPrefix(id, "+") {
		return FailPhone
	}
	return FailID
}

const codeDigits = 6

func randomCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("code generation: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func randomToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// CreateOptions carries the optional staged fields for creation flows.
type CreateOptions struct {
	UserID            string
	StagedPassword    string
	StagedSuiteID     uint
	StagedAccountType string
}

// Create starts a confirmation flow for (identity, reason): generates a
// long opaque token for link confirmation and a short code for manual
// entry, persists both, and fires the notification send without blocking.
// A live unconfirmed flow for the same key reports FailExists instead of
// being silently replaced.
func (s *Service) Create(identity, reason string, expiresIn time.Duration, maxAttempts int, opts CreateOptions) (*Confirmation, Failure, error) {
	if ClassifyIdentity(identity) == KindBad {
		return nil, badIdentityFailure(identity), nil
	}

	now := s.clock.Now()

	var existing Confirmation
	err := s.db.First(&existing, "id = ? AND reason = ?", identity, reason).Error
	switch {
	case err == nil:
		if !existing.Confirmed && now.Before(existing.Expires) {
			return nil, FailExists, nil
		}
		// Stale or already-consumed flow: fall through and replace it.
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first flow for this key
	default:
		return nil, FailResult, err
	}

	code, err := randomCode()
	if err != nil {
		return nil, FailResult, err
	}
	token, err := randomToken()
	if err != nil {
		return nil, FailResult, err
	}

	c := Confirmation{
		ID:                identity,
		Reason:            reason,
		UserID:            opts.UserID,
		Code:              code,
		Token:             token,
		Attempts:          0,
		MaxAttempts:       maxAttempts,
		Created:           now,
		Expires:           now.Add(expiresIn),
		StagedPassword:    opts.StagedPassword,
		StagedSuiteID:     opts.StagedSuiteID,
		StagedAccountType: opts.StagedAccountType,
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error; err != nil {
		return nil, FailResult, err
	}

	s.dispatch(c)
	return &c, FailNone, nil
}

// dispatch fires the notification send and returns immediately. The request
// path never waits on delivery; the request id (or failure) lands later.
func (s *Service) dispatch(c Confirmation) {
	go func() {
		reqID, err := s.sender.Send("confirmation-"+c.Reason, map[string]string{
			"code":  c.Code,
			"token": c.Token,
		}, c.ID)
		if err != nil {
			log.Printf("[confirm] send to %s (%s) failed: %v", c.ID, c.Reason, err)
			return
		}
		err = s.db.Model(&Confirmation{}).
			Where("id = ? AND reason = ? AND token = ?", c.ID, c.Reason, c.Token).
			Update("req_id", reqID).Error
		if err != nil {
			log.Printf("[confirm] recording req_id for %s (%s) failed: %v", c.ID, c.Reason, err)
		}
	}()
}

// isToken decides whether the submitted credential is the long token or the
// short manual-entry code.
func isToken(credential string) bool {
	return len(credential) > codeDigits*2
}

// Verify checks a submitted code or token for (identity, reason).
//
// Exhausted attempts short-circuit before any comparison, so a correct code
// after exhaustion still reports too-many-requests. A matching credential
// marks the row confirmed but never deletes it; re-verifying a confirmed row
// with the same credential reports Confirmed again (idempotent), which lets
// a dependent action be retried against a still-valid confirmation.
func (s *Service) Verify(identity, credential, reason string) Result {
	if ClassifyIdentity(identity) == KindBad {
		return Result{Failure: badIdentityFailure(identity)}
	}
	if credential == "" {
		return Result{Failure: FailCode}
	}
	mismatchFailure := FailCode
	if isToken(credential) {
		mismatchFailure = FailToken
	} else {
		for _, c := range credential {
			if c < '0' || c > '9' {
				return Result{Failure: FailCode}
			}
		}
	}

	var row Confirmation
	err := s.db.First(&row, "id = ? AND reason = ?", identity, reason).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{Failure: FailNotFound}
	}
	if err != nil {
		log.Printf("[confirm] verify %s (%s): %v", identity, reason, err)
		return Result{Failure: FailResult}
	}

	now := s.clock.Now()
	matches := subtle.ConstantTimeCompare([]byte(credential), []byte(row.Code)) == 1 ||
		subtle.ConstantTimeCompare([]byte(credential), []byte(row.Token)) == 1

	if row.Confirmed {
		if matches {
			return Result{Confirmed: true, Failure: Confirmed, Expires: row.Expires}
		}
		return Result{Failure: mismatchFailure, Expires: row.Expires}
	}

	if now.After(row.Expires) {
		return Result{Failure: FailExpired, Expires: row.Expires}
	}

	// Exhaustion is checked before the comparison result is consulted.
	if row.Attempts >= row.MaxAttempts {
		return Result{Failure: FailTooMany, Expires: row.Expires}
	}

	if !matches {
		res := s.db.Model(&Confirmation{}).
			Where("id = ? AND reason = ?", identity, reason).
			Update("attempts", gorm.Expr("attempts + 1"))
		if res.Error != nil {
			log.Printf("[confirm] counting attempt for %s (%s): %v", identity, reason, res.Error)
			return Result{Failure: FailResult}
		}
		attempts := row.Attempts + 1
		if attempts >= row.MaxAttempts {
			return Result{Failure: FailTooMany, Expires: row.Expires}
		}
		return Result{
			Failure:      mismatchFailure,
			AttemptsLeft: row.MaxAttempts - attempts,
			Expires:      row.Expires,
		}
	}

	err = s.db.Model(&Confirmation{}).
		Where("id = ? AND reason = ?", identity, reason).
		Update("confirmed", true).Error
	if err != nil {
		log.Printf("[confirm] marking %s (%s) confirmed: %v", identity, reason, err)
		return Result{Failure: FailResult}
	}
	return Result{Confirmed: true, Expires: row.Expires}
}

// Get loads a confirmation row, typically to read staged fields after a
// successful Verify.
func (s *Service) Get(identity, reason string) (*Confirmation, error) {
	var row Confirmation
	if err := s.db.First(&row, "id = ? AND reason = ?", identity, reason).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetConfirmed loads a confirmation row for a dependent action. A row that
// exists but was never verified reports NotConfirmed, so no dependent action
// can run off an unproven flow.
func (s *Service) GetConfirmed(identity, reason string) (*Confirmation, Failure, error) {
	var row Confirmation
	err := s.db.First(&row, "id = ? AND reason = ?", identity, reason).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, FailNotFound, nil
	}
	if err != nil {
		return nil, FailResult, err
	}
	if !row.Confirmed {
		return nil, NotConfirmed, nil
	}
	return &row, FailNone, nil
}

// Delete consumes a confirmation. Called only after the dependent action
// (account creation, identity update) has itself succeeded.
func (s *Service) Delete(identity, reason string) error {
	return s.db.Delete(&Confirmation{}, "id = ? AND reason = ?", identity, reason).Error
}

// Purge removes expired, unconfirmed rows past the retention window.
// Confirmed rows are only ever removed by an explicit Delete.
func (s *Service) Purge() (int64, error) {
	horizon := s.clock.Now().Add(-s.retention)
	res := s.db.Where("expires < ? AND confirmed = ?", horizon, false).Delete(&Confirmation{})
	return res.RowsAffected, res.Error
}

package auth

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID              string         `gorm:"primaryKey" json:"-"`
	UID             string         `gorm:"uniqueIndex" json:"uid"` // public identifier
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	AccountType     string         `gorm:"default:'user'" json:"account_type"`
	Roles           pq.StringArray `gorm:"type:text[]" json:"roles"`
	PasswordSuiteID uint           `json:"-"`
	Password        string         `json:"-"` // suite record JSON, never plaintext
	LoginAttempts   int            `json:"-"`
	LastOKIP        string         `gorm:"column:last_ok_ip" json:"-"`
	LastFailedIP    string         `json:"-"`
	LastAttempt     *time.Time     `json:"-"`
	LastLogin       *time.Time     `json:"last_login"`
	SoftLocked      *time.Time     `json:"-"`
	Locked          *time.Time     `json:"-"`
}

func (User) TableName() string { return "app_auth.users" }

// Result is the terminal outcome of one authentication attempt. None are
// retried automatically; retry is a client action.
type Result string

const (
	ResultOK           Result = "auth/ok"
	ResultLocked       Result = "auth/locked"
	ResultSoftLocked   Result = "auth/soft-locked"
	ResultBadPassword  Result = "auth/bad-password"
	ResultSessionError Result = "auth/session-error"
)

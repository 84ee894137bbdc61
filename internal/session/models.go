package session

import "time"

type Session struct {
	ID          string    `gorm:"primaryKey" json:"-"`
	UserID      string    `gorm:"index;not null" json:"user_id"`
	UserEmail   string    `json:"user_email"`
	Created     time.Time `gorm:"not null" json:"created"`
	Active      time.Time `gorm:"not null" json:"active"`
	IP          string    `json:"-"`
	SecureToken string    `json:"-"`
}

func (Session) TableName() string { return "app_auth.sessions" }

// Variable is one per-session key/value pair.
type Variable struct {
	SessionID string `gorm:"primaryKey" json:"-"`
	ID        string `gorm:"primaryKey" json:"id"`
	Value     string `json:"value"`
}

func (Variable) TableName() string { return "app_auth.session_variables" }

// Status is the outcome of validating a session against a request.
type Status int

const (
	StatusValid Status = iota
	StatusExpired // soft-expired: prolongation allowed
	StatusHardExpired
	StatusIPMismatch
	StatusBadToken
	StatusNotFound
	StatusError // infrastructure failure, details stay server-side
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusHardExpired:
		return "hard-expired"
	case StatusIPMismatch:
		return "ip-mismatch"
	case StatusBadToken:
		return "bad-token"
	case StatusNotFound:
		return "not-found"
	default:
		return "session-error"
	}
}

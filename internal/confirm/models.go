package confirm

import "time"

// Reasons a confirmation can be issued for. A row is keyed by
// (identity, reason), so one identity can have independent flows in flight.
const (
	ReasonCreation = "creation"
	ReasonRecovery = "recovery"
	ReasonUnlock   = "unlock"
	ReasonChange   = "change"
)

type Confirmation struct {
	ID          string    `gorm:"primaryKey" json:"id"` // email or phone identity
	Reason      string    `gorm:"primaryKey" json:"reason"`
	UserID      string    `json:"user_id"`
	Code        string    `json:"-"`
	Token       string    `json:"-"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"-"`
	Created     time.Time `json:"created"`
	Expires     time.Time `json:"expires"`
	Confirmed   bool      `json:"confirmed"`
	ReqID       string    `json:"-"` // delivery request id, filled in asynchronously

	// Staged account fields, only used for creation: held here until the
	// identity is proven, then promoted into a real user row.
	StagedPassword    string `json:"-"`
	StagedSuiteID     uint   `json:"-"`
	StagedAccountType string `json:"-"`
}

func (Confirmation) TableName() string { return "app_auth.confirmations" }

// Failure is the caller-facing outcome vocabulary. When several conditions
// hold at once the highest-priority one (lowest listed here) is reported.
type Failure string

const (
	FailNone     Failure = ""
	FailResult   Failure = "bad-result"
	FailToken    Failure = "bad-token"
	FailCode     Failure = "bad-code"
	FailEmail    Failure = "bad-email"
	FailPhone    Failure = "bad-phone"
	FailID       Failure = "bad-id"
	FailNotFound Failure = "not-found"
	FailExpired  Failure = "expired"
	FailTooMany  Failure = "too-many-requests"
	FailExists   Failure = "exists"
	NotConfirmed Failure = "not-confirmed"
	Confirmed    Failure = "confirmed"
)

// Result is what Verify hands back to controllers.
type Result struct {
	Confirmed    bool      `json:"confirmed"`
	Failure      Failure   `json:"error,omitempty"`
	AttemptsLeft int       `json:"attempts_left"`
	Expires      time.Time `json:"expires"`
}

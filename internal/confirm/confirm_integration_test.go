package confirm_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/Gateward/GW-Backend/internal/confirm"
	"github.com/Gateward/GW-Backend/internal/db"
)

var (
	dbAvailable bool
	testSvc     *confirm.Service
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true
	confirm.Init()

	testSvc = confirm.NewService(db.DB, clockwork.NewRealClock(), confirm.LogSender{}, 2*time.Hour)

	os.Exit(m.Run())
}

// startFlow creates a confirmation flow for a fresh identity and registers
// cleanup for the row.
func startFlow(t *testing.T, reason string, maxAttempts int) *confirm.Confirmation {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	identity := fmt.Sprintf("it_%s@example.test", uuid.New().String()[:8])
	row, failure, err := testSvc.Create(identity, reason, 10*time.Minute, maxAttempts, confirm.CreateOptions{})
	if err != nil || failure != confirm.FailNone {
		t.Fatalf("failed to start flow: failure=%s err=%v", failure, err)
	}
	t.Cleanup(func() {
		db.DB.Where("id = ?", identity).Delete(&confirm.Confirmation{})
	})
	return row
}

// wrongCode returns a six-digit code guaranteed to differ from the given one.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

// TestVerifyIdempotentReconfirm verifies that a matching credential marks the
// row confirmed without deleting it, and that presenting the same credential
// again reports confirmed once more. A dependent action that dies mid-flight
// can therefore be retried against the same confirmation.
func TestVerifyIdempotentReconfirm(t *testing.T) {
	row := startFlow(t, confirm.ReasonRecovery, 3)

	res := testSvc.Verify(row.ID, row.Code, confirm.ReasonRecovery)
	if !res.Confirmed {
		t.Fatalf("expected first verify to confirm, got failure %q", res.Failure)
	}

	res = testSvc.Verify(row.ID, row.Code, confirm.ReasonRecovery)
	if !res.Confirmed {
		t.Fatalf("expected re-verify to confirm, got failure %q", res.Failure)
	}
	if res.Failure != confirm.Confirmed {
		t.Errorf("expected re-verify to report %q, got %q", confirm.Confirmed, res.Failure)
	}

	var count int64
	db.DB.Model(&confirm.Confirmation{}).
		Where("id = ? AND reason = ?", row.ID, confirm.ReasonRecovery).Count(&count)
	if count != 1 {
		t.Errorf("expected the confirmed row to survive re-verification, found %d rows", count)
	}

	// A wrong credential against a confirmed row is still refused.
	res = testSvc.Verify(row.ID, wrongCode(row.Code), confirm.ReasonRecovery)
	if res.Confirmed {
		t.Error("expected a wrong code refused even on a confirmed row")
	}
}

// TestVerifyExhaustionBeatsCorrectCode verifies that once the attempt budget
// is spent, the correct code no longer confirms.
func TestVerifyExhaustionBeatsCorrectCode(t *testing.T) {
	row := startFlow(t, confirm.ReasonRecovery, 2)

	for i := 0; i < 2; i++ {
		res := testSvc.Verify(row.ID, wrongCode(row.Code), confirm.ReasonRecovery)
		if res.Confirmed {
			t.Fatalf("attempt %d: wrong code must never confirm", i+1)
		}
	}

	res := testSvc.Verify(row.ID, row.Code, confirm.ReasonRecovery)
	if res.Confirmed {
		t.Fatal("expected the correct code refused after exhaustion")
	}
	if res.Failure != confirm.FailTooMany {
		t.Errorf("expected failure %q, got %q", confirm.FailTooMany, res.Failure)
	}
}

// TestGetConfirmedGatesDependentActions verifies the dependent-action lookup:
// an unverified flow reports not-confirmed, a missing one not-found, and only
// a proven flow hands the row out.
func TestGetConfirmedGatesDependentActions(t *testing.T) {
	row := startFlow(t, confirm.ReasonChange, 3)

	_, failure, err := testSvc.GetConfirmed(row.ID, confirm.ReasonChange)
	if err != nil {
		t.Fatalf("GetConfirmed before verification: %v", err)
	}
	if failure != confirm.NotConfirmed {
		t.Fatalf("expected %q before verification, got %q", confirm.NotConfirmed, failure)
	}

	if res := testSvc.Verify(row.ID, row.Code, confirm.ReasonChange); !res.Confirmed {
		t.Fatalf("expected verify to confirm, got failure %q", res.Failure)
	}

	got, failure, err := testSvc.GetConfirmed(row.ID, confirm.ReasonChange)
	if err != nil {
		t.Fatalf("GetConfirmed after verification: %v", err)
	}
	if failure != confirm.FailNone {
		t.Fatalf("expected no failure after verification, got %q", failure)
	}
	if got == nil || !got.Confirmed {
		t.Fatal("expected the confirmed row returned")
	}

	_, failure, err = testSvc.GetConfirmed("it_nobody@example.test", confirm.ReasonChange)
	if err != nil {
		t.Fatalf("GetConfirmed for missing flow: %v", err)
	}
	if failure != confirm.FailNotFound {
		t.Errorf("expected %q for a missing flow, got %q", confirm.FailNotFound, failure)
	}
}

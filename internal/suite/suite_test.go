package suite_test

import (
	"errors"
	"testing"

	"github.com/Gateward/GW-Backend/internal/suite"
)

// fastChains returns chains cheap enough for unit tests. Cost parameters are
// turned way down; correctness does not depend on them.
func fastChains() map[string]suite.Chain {
	return map[string]suite.Chain{
		"pbkdf2": {
			{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
		},
		"scrypt": {
			{Name: "scrypt", Params: suite.Options{"n": 1024, "r": 8, "p": 1}},
		},
		"scrypt-then-pbkdf2": {
			{Name: "scrypt", Params: suite.Options{"n": 1024, "r": 8, "p": 1}},
			{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
		},
		"plain": {
			{Name: "plain", Params: suite.Options{"suffix": "x", "salt_length": 8}},
		},
		"bcrypt": {
			{Name: "bcrypt", Params: suite.Options{"cost": 4}},
		},
		"pbkdf2-then-bcrypt": {
			{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
			{Name: "bcrypt", Params: suite.Options{"cost": 4}},
		},
	}
}

// TestEncryptCheckRoundTrip verifies that every supported chain accepts the
// password it encrypted and rejects a different one.
func TestEncryptCheckRoundTrip(t *testing.T) {
	settings := suite.Settings{Pepper: "unit-test-pepper"}

	for name, chain := range fastChains() {
		t.Run(name, func(t *testing.T) {
			rec, err := chain.Encrypt("correct horse", settings)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}

			ok, err := chain.Check("correct horse", rec, settings)
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if !ok {
				t.Error("expected correct password to verify")
			}

			ok, err = chain.Check("battery staple", rec, settings)
			if err != nil {
				t.Fatalf("Check with wrong password failed: %v", err)
			}
			if ok {
				t.Error("expected wrong password to be rejected")
			}
		})
	}
}

// TestReencryptDeterministic verifies that re-running a chain with the
// stored salts reproduces byte-identical output.
func TestReencryptDeterministic(t *testing.T) {
	settings := suite.Settings{}
	chain := suite.Chain{
		{Name: "scrypt", Params: suite.Options{"n": 1024, "r": 8, "p": 1}},
		{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
	}

	rec, err := chain.Encrypt("hunter2", settings)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	again, err := chain.Reencrypt("hunter2", rec, settings)
	if err != nil {
		t.Fatalf("Reencrypt failed: %v", err)
	}
	if again.Hash != rec.Hash {
		t.Errorf("expected identical hash, got %q vs %q", again.Hash, rec.Hash)
	}
	for i := range rec.Steps {
		if again.Steps[i].Salt != rec.Steps[i].Salt {
			t.Errorf("step %d: salt changed on reencrypt", i)
		}
	}
}

// TestFreshSaltPerEncrypt verifies that two independent encryptions of the
// same password use different salts (and so different hashes).
func TestFreshSaltPerEncrypt(t *testing.T) {
	settings := suite.Settings{}
	chain := suite.Chain{{Name: "pbkdf2", Params: suite.Options{"iterations": 10}}}

	a, err := chain.Encrypt("same password", settings)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := chain.Encrypt("same password", settings)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if a.Steps[0].Salt == "" {
		t.Fatal("expected a generated salt, got empty")
	}
	if len(a.Steps[0].Salt) != 16 {
		t.Errorf("expected default salt length 16, got %d", len(a.Steps[0].Salt))
	}
	if a.Steps[0].Salt == b.Steps[0].Salt {
		t.Error("expected distinct salts across independent encryptions")
	}
	if a.Hash == b.Hash {
		t.Error("expected distinct hashes across independent encryptions")
	}
}

// TestDenyNeverVerifies verifies the always-fail transform rejects even the
// password it was "encrypted" with.
func TestDenyNeverVerifies(t *testing.T) {
	settings := suite.Settings{}
	chain := suite.Chain{{Name: "deny"}}

	rec, err := chain.Encrypt("anything", settings)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	ok, err := chain.Check("anything", rec, settings)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if ok {
		t.Error("deny suite must never verify")
	}

	// Mid-chain deny would emit a constant into the next step, so it is
	// restricted to the final position.
	midChain := suite.Chain{
		{Name: "deny"},
		{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
	}
	if _, err := midChain.Encrypt("anything", settings); !errors.Is(err, suite.ErrNotFinalStep) {
		t.Errorf("expected ErrNotFinalStep for mid-chain deny, got %v", err)
	}
}

// TestCanonicalDedup verifies that two independently-built chains with the
// same algorithms and parameters serialize identically, including when one
// of them leaves parameters at their defaults.
func TestCanonicalDedup(t *testing.T) {
	explicit := suite.Chain{
		{Name: "scrypt", Params: suite.Options{"n": 32768, "r": 8, "p": 1, "key_length": 32, "salt_length": 16}},
	}
	defaulted := suite.Chain{
		{Name: "scrypt"},
	}

	a, err := explicit.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	b, err := defaulted.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if a != b {
		t.Errorf("expected identical canonical forms:\n%s\n%s", a, b)
	}
}

// TestCanonicalRoundTripStable verifies serialize -> parse -> serialize is
// byte-identical.
func TestCanonicalRoundTripStable(t *testing.T) {
	chain := suite.Chain{
		{Name: "scrypt", Params: suite.Options{"n": 1024}},
		{Name: "pbkdf2", Params: suite.Options{"iterations": 50000, "hmac": "sha512"}},
	}

	first, err := chain.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	parsed, err := suite.ParseChain(first)
	if err != nil {
		t.Fatalf("ParseChain failed: %v", err)
	}
	second, err := parsed.Canonical()
	if err != nil {
		t.Fatalf("Canonical after parse failed: %v", err)
	}
	if first != second {
		t.Errorf("canonical form not stable across round trip:\n%s\n%s", first, second)
	}
}

// TestMalformedRecord verifies malformed stored data surfaces typed errors
// instead of panics or silent false.
func TestMalformedRecord(t *testing.T) {
	if _, err := suite.ParseRecord("{"); !errors.Is(err, suite.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord for truncated JSON, got %v", err)
	}
	if _, err := suite.ParseRecord(`{"steps":[],"hash":""}`); !errors.Is(err, suite.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord for empty record, got %v", err)
	}

	settings := suite.Settings{}
	chain := suite.Chain{{Name: "pbkdf2", Params: suite.Options{"iterations": 10}}}
	rec, err := chain.Encrypt("pw", settings)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// A record encrypted under a different chain shape must not check.
	longer := suite.Chain{
		{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
		{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
	}
	if _, err := longer.Check("pw", rec, settings); !errors.Is(err, suite.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord for step-count mismatch, got %v", err)
	}
}

// TestMissingOption verifies an ill-typed configured option is reported as a
// DecodeError naming the algorithm and key.
func TestMissingOption(t *testing.T) {
	settings := suite.Settings{}
	chain := suite.Chain{{Name: "pbkdf2", Params: suite.Options{"iterations": "ten"}}}

	_, err := chain.Encrypt("pw", settings)
	var decodeErr *suite.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Algorithm != "pbkdf2" || decodeErr.Key != "iterations" {
		t.Errorf("unexpected DecodeError contents: %+v", decodeErr)
	}
}

// TestUnknownAlgorithm verifies an unregistered name fails fast.
func TestUnknownAlgorithm(t *testing.T) {
	chain := suite.Chain{{Name: "md5crypt"}}
	if _, err := chain.Encrypt("pw", suite.Settings{}); !errors.Is(err, suite.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
	if _, err := chain.Canonical(); !errors.Is(err, suite.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm from Canonical, got %v", err)
	}
}

// TestBcryptMustBeFinal verifies bcrypt is rejected anywhere but the last
// chain position.
func TestBcryptMustBeFinal(t *testing.T) {
	chain := suite.Chain{
		{Name: "bcrypt", Params: suite.Options{"cost": 4}},
		{Name: "pbkdf2", Params: suite.Options{"iterations": 10}},
	}
	if _, err := chain.Encrypt("pw", suite.Settings{}); !errors.Is(err, suite.ErrNotFinalStep) {
		t.Errorf("expected ErrNotFinalStep, got %v", err)
	}
}

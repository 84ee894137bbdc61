package suite

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// Options holds per-algorithm parameters, decoded from the config file or a
// stored password record.
type Options map[string]any

// Settings carries process-wide values shared by all algorithms. Only
// secrets that cannot be bound per-step (a master pepper) belong here;
// cryptographic parameters always travel through Options.
type Settings struct {
	Pepper string
}

// Step is one configured link of an encryption chain: an algorithm name plus
// the parameters bound to it.
type Step struct {
	Name   string  `json:"name" yaml:"name"`
	Params Options `json:"params,omitempty" yaml:"params"`
}

// Chain is an ordered list of encryption steps. The output bytes of each
// step feed the next; the final step's output is what gets stored.
type Chain []Step

// StepState is the per-user piece of one executed step: the salt it ran
// with. Shared parameters stay in the deduplicated suite row.
type StepState struct {
	Name string `json:"name"`
	Salt string `json:"salt,omitempty"`
}

// Record is the persisted form of an encrypted password: one StepState per
// chain step plus the base64 output of the final step. It lives in
// users.password as JSON; the chain itself is referenced via
// users.password_suite_id.
type Record struct {
	Steps []StepState `json:"steps"`
	Hash  string      `json:"hash"`
}

// DecodeError reports a missing or ill-typed algorithm option in a config
// chain or a stored record.
type DecodeError struct {
	Algorithm string
	Key       string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("algorithm %q: missing or invalid option %q", e.Algorithm, e.Key)
}

// saltChars is the charset used for freshly generated salts. Salts are
// plain text so records stay printable and diffable.
const saltChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	max := big.NewInt(int64(len(saltChars)))
	for i := range salt {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("salt generation: %w", err)
		}
		salt[i] = saltChars[n.Int64()]
	}
	return salt, nil
}

// mergedOptions layers the step's configured params over the algorithm
// defaults. The step's map is never mutated.
func mergedOptions(alg Algorithm, step Step) Options {
	opts := make(Options, len(alg.Defaults)+len(step.Params))
	for k, v := range alg.Defaults {
		opts[k] = v
	}
	for k, v := range step.Params {
		opts[k] = v
	}
	return opts
}

// Encrypt runs plain through every step of the chain, generating a fresh
// salt for any step that wants one, and returns the record to persist.
func (c Chain) Encrypt(plain string, settings Settings) (*Record, error) {
	return c.encrypt(plain, nil, settings)
}

// encrypt is the shared path for Encrypt and Check: when states is non-nil
// the stored salts are reused, which makes the derivation reproducible.
func (c Chain) encrypt(plain string, states []StepState, settings Settings) (*Record, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrMalformedRecord)
	}
	if states != nil && len(states) != len(c) {
		return nil, fmt.Errorf("%w: %d stored steps for a %d-step chain", ErrMalformedRecord, len(states), len(c))
	}

	input := []byte(plain)
	rec := &Record{Steps: make([]StepState, 0, len(c))}

	for i, step := range c {
		alg, err := Lookup(step.Name)
		if err != nil {
			return nil, err
		}
		if alg.FinalOnly && i != len(c)-1 {
			return nil, fmt.Errorf("%w: %s at position %d", ErrNotFinalStep, step.Name, i)
		}

		opts := mergedOptions(alg, step)

		var salt []byte
		if states != nil {
			salt = []byte(states[i].Salt)
		} else if n := saltLength(opts); n > 0 {
			salt, err = randomSalt(n)
			if err != nil {
				return nil, err
			}
		}

		out, err := alg.Encrypt(input, salt, opts, settings)
		if err != nil {
			return nil, err
		}

		rec.Steps = append(rec.Steps, StepState{Name: step.Name, Salt: string(salt)})
		input = out
	}

	rec.Hash = base64.StdEncoding.EncodeToString(input)
	return rec, nil
}

// Reencrypt re-runs the chain over plain reusing the salts of an existing
// record. With the same plaintext and salts the output is byte-identical,
// which is what password-change flows use to detect a suite reuse.
func (c Chain) Reencrypt(plain string, rec *Record, settings Settings) (*Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	return c.encrypt(plain, rec.Steps, settings)
}

// Check verifies plain against a stored record. A wrong password returns
// (false, nil); only malformed records or unusable configuration produce an
// error. The final comparison is constant time.
func (c Chain) Check(plain string, rec *Record, settings Settings) (bool, error) {
	if rec == nil || len(rec.Steps) != len(c) {
		return false, fmt.Errorf("%w: step count mismatch", ErrMalformedRecord)
	}

	stored, err := base64.StdEncoding.DecodeString(rec.Hash)
	if err != nil {
		return false, fmt.Errorf("%w: undecodable hash", ErrMalformedRecord)
	}

	last := c[len(c)-1]
	lastAlg, err := Lookup(last.Name)
	if err != nil {
		return false, err
	}

	// Custom check (bcrypt and friends): re-derive the input to the final
	// step, then let the algorithm compare against its own stored form.
	if lastAlg.Check != nil {
		input := []byte(plain)
		for i, step := range c[:len(c)-1] {
			alg, err := Lookup(step.Name)
			if err != nil {
				return false, err
			}
			input, err = alg.Encrypt(input, []byte(rec.Steps[i].Salt), mergedOptions(alg, step), settings)
			if err != nil {
				return false, err
			}
		}
		return lastAlg.Check(input, stored, mergedOptions(lastAlg, last), settings)
	}

	derived, err := c.encrypt(plain, rec.Steps, settings)
	if err != nil {
		return false, err
	}
	derivedBytes, err := base64.StdEncoding.DecodeString(derived.Hash)
	if err != nil {
		return false, fmt.Errorf("%w: undecodable derived hash", ErrMalformedRecord)
	}
	return subtle.ConstantTimeCompare(derivedBytes, stored) == 1, nil
}

// ParseRecord decodes a stored password column value.
func ParseRecord(raw string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.Hash == "" || len(rec.Steps) == 0 {
		return nil, fmt.Errorf("%w: missing steps or hash", ErrMalformedRecord)
	}
	return &rec, nil
}

// Marshal serializes a record for the users.password column.
func (r *Record) Marshal() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --------------------------------------------------------------------------
// Option accessors
// --------------------------------------------------------------------------

// intOpt reads an integer option, accepting the numeric types that YAML and
// JSON decoders produce. Missing or ill-typed values surface a DecodeError.
func intOpt(opts Options, alg, key string) (int, error) {
	v, ok := opts[key]
	if !ok {
		return 0, &DecodeError{Algorithm: alg, Key: key}
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, &DecodeError{Algorithm: alg, Key: key}
		}
		return int(n), nil
	default:
		return 0, &DecodeError{Algorithm: alg, Key: key}
	}
}

func strOpt(opts Options, alg, key string) (string, error) {
	v, ok := opts[key]
	if !ok {
		return "", &DecodeError{Algorithm: alg, Key: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &DecodeError{Algorithm: alg, Key: key}
	}
	return s, nil
}

// saltLength reads the salt_length option, treating absence as saltless.
func saltLength(opts Options) int {
	n, err := intOpt(opts, "", "salt_length")
	if err != nil {
		return 0
	}
	return n
}

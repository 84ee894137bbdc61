package suite

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnknownAlgorithm = errors.New("unknown encryption algorithm")
	ErrNotFinalStep     = errors.New("algorithm can only be used as the final chain step")
	ErrMalformedRecord  = errors.New("malformed password record")
)

// EncryptFunc derives the stored bytes for one chain step. It must be a pure
// function of input, salt, opts and settings: the same arguments always
// produce the same output, so a stored record can be re-derived at check time.
type EncryptFunc func(input, salt []byte, opts Options, settings Settings) ([]byte, error)

// CheckFunc verifies the final chain step against its stored bytes. Algorithms
// that leave it nil are checked by re-encrypting and comparing in constant
// time; algorithms with embedded salts (bcrypt) must supply their own.
type CheckFunc func(input, stored []byte, opts Options, settings Settings) (bool, error)

// Algorithm is one registered encryption step kind. New algorithms are added
// by registering a record like this one; callers dispatch by name, never by
// concrete type.
type Algorithm struct {
	Encrypt EncryptFunc
	Check   CheckFunc

	// Defaults are merged under the configured params of every step.
	Defaults Options

	// SharedKeys lists the param keys that identify the suite (and therefore
	// participate in canonical serialization and dedup). Per-user state like
	// salts is never part of a suite.
	SharedKeys []string

	// FinalOnly marks algorithms whose output cannot feed a following step.
	FinalOnly bool
}

// algorithmRegistry holds registered algorithms by name.
// New algorithms can be registered without modifying this file.
var algorithmRegistry = make(map[string]Algorithm)

// Register registers an algorithm under a name. It should be called from
// init() in each algorithm file, or at startup before any chain is used.
func Register(name string, alg Algorithm) {
	algorithmRegistry[name] = alg
}

// Lookup returns the algorithm registered under name.
func Lookup(name string) (Algorithm, error) {
	alg, ok := algorithmRegistry[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
	return alg, nil
}

package suite

import (
	"encoding/json"
	"fmt"
)

// canonicalStep is the serialized shape of one chain step. Params maps are
// marshaled with sorted keys by encoding/json, which is what makes the
// output canonical.
type canonicalStep struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Canonical serializes the chain to its canonical JSON form: every step
// carries exactly its shared parameter keys (defaults filled in), numbers
// are normalized, keys are sorted. Two chains with the same algorithms and
// parameters always produce identical bytes, so the password_suites table
// can deduplicate on a unique constraint.
func (c Chain) Canonical() (string, error) {
	steps := make([]canonicalStep, 0, len(c))
	for _, step := range c {
		alg, err := Lookup(step.Name)
		if err != nil {
			return "", err
		}
		opts := mergedOptions(alg, step)

		var params map[string]any
		if len(alg.SharedKeys) > 0 {
			params = make(map[string]any, len(alg.SharedKeys))
			for _, key := range alg.SharedKeys {
				v, ok := opts[key]
				if !ok {
					return "", &DecodeError{Algorithm: step.Name, Key: key}
				}
				params[key] = normalizeNumber(v)
			}
		}
		steps = append(steps, canonicalStep{Name: step.Name, Params: params})
	}

	b, err := json.Marshal(steps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseChain decodes a canonical (or hand-written) suite JSON back into a
// chain. Re-serializing the result reproduces the canonical bytes.
func ParseChain(raw string) (Chain, error) {
	var steps []canonicalStep
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	chain := make(Chain, 0, len(steps))
	for _, s := range steps {
		chain = append(chain, Step{Name: s.Name, Params: Options(s.Params)})
	}
	return chain, nil
}

// normalizeNumber collapses the numeric spread of JSON and YAML decoders so
// that 32768, int64(32768) and float64(32768) all serialize as "32768".
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	case float32:
		if float64(n) == float64(int64(n)) {
			return int64(n)
		}
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return v
	}
}

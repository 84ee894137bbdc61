package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/Gateward/GW-Backend/internal/suite"
)

// Common errors
var (
	ErrNoAccountTypes     = errors.New("config: at least one account type is required")
	ErrUnknownDefaultType = errors.New("config: default_account_type has no matching account_types entry")
	ErrBadExpiry          = errors.New("config: session hard_expires must be greater than expires")
)

// Duration wraps time.Duration so YAML values like "10m" decode directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ConfirmPolicy bounds one identity-confirmation flow.
type ConfirmPolicy struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Expires     Duration `yaml:"expires"`
}

// AccountPolicy is the per-account-type bundle: locking policy, confirmation
// policy and the password suite new credentials are encrypted under.
type AccountPolicy struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	LockWait     Duration      `yaml:"lock_wait"`
	FailExpires  Duration      `yaml:"fail_expires"`
	Confirmation ConfirmPolicy `yaml:"confirmation"`
	Suite        []suite.Step  `yaml:"suite"`
}

// SessionConfig mirrors the session manager knobs.
type SessionConfig struct {
	Key            string   `yaml:"key"`
	Expires        Duration `yaml:"expires"`
	HardExpires    Duration `yaml:"hard_expires"`
	SingleSession  bool     `yaml:"single_session"`
	WrongIPExpires bool     `yaml:"wrong_ip_expires"`
	Secured        bool     `yaml:"secured"`
	CacheTTL       Duration `yaml:"cache_ttl"`
	CacheSize      int      `yaml:"cache_size"`
	TokenCacheTTL  Duration `yaml:"token_cache_ttl"`
	TokenCacheSize int      `yaml:"token_cache_size"`
}

// DelayConfig configures the anti-enumeration waits: every authentication
// attempt sleeps Wait plus up to WaitRandom; unknown users sleep WaitNoUser
// plus up to WaitRandom instead.
type DelayConfig struct {
	Wait       Duration `yaml:"wait"`
	WaitRandom Duration `yaml:"wait_random"`
	WaitNoUser Duration `yaml:"wait_nouser"`

	// Per-IP throttle on the credential endpoints, on top of the
	// per-account locking policy.
	RatePerMinute int `yaml:"rate_per_minute"`
	RateBurst     int `yaml:"rate_burst"`
}

// CacheConfig bounds the user read-through caches.
type CacheConfig struct {
	UserTTL  Duration `yaml:"user_ttl"`
	UserSize int      `yaml:"user_size"`
}

// ConfirmConfig drives the background purge of stale confirmations.
type ConfirmConfig struct {
	PurgeSchedule string   `yaml:"purge_schedule"`
	Retention     Duration `yaml:"retention"`
}

type Config struct {
	DefaultAccountType string                   `yaml:"default_account_type"`
	AccountTypes       map[string]AccountPolicy `yaml:"account_types"`
	Session            SessionConfig            `yaml:"session"`
	Auth               DelayConfig              `yaml:"auth"`
	Caches             CacheConfig              `yaml:"caches"`
	Confirm            ConfirmConfig            `yaml:"confirm"`
}

// Policy resolves the account policy for an account type, falling back to
// the default type. Every stored account type is guaranteed a policy.
func (c *Config) Policy(accountType string) AccountPolicy {
	if p, ok := c.AccountTypes[accountType]; ok {
		return p
	}
	return c.AccountTypes[c.DefaultAccountType]
}

// Load reads and validates the YAML config file. Invalid configuration is a
// startup failure, never a silent fallback.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.AccountTypes) == 0 {
		return ErrNoAccountTypes
	}
	if _, ok := c.AccountTypes[c.DefaultAccountType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDefaultType, c.DefaultAccountType)
	}
	if c.Session.HardExpires <= c.Session.Expires {
		return ErrBadExpiry
	}

	for name, policy := range c.AccountTypes {
		if policy.MaxAttempts <= 0 {
			return fmt.Errorf("config: account type %q: max_attempts must be positive", name)
		}
		if len(policy.Suite) == 0 {
			return fmt.Errorf("config: account type %q: empty password suite", name)
		}
		// Canonicalizing exercises algorithm lookup and option decoding, so
		// an unregistered algorithm or bad parameter fails here, at startup.
		if _, err := suite.Chain(policy.Suite).Canonical(); err != nil {
			return fmt.Errorf("config: account type %q: %w", name, err)
		}
	}

	if c.Session.Key == "" {
		c.Session.Key = "session_id"
	}
	if c.Session.CacheSize == 0 {
		c.Session.CacheSize = 4096
	}
	if c.Session.TokenCacheSize == 0 {
		c.Session.TokenCacheSize = 2048
	}
	if c.Caches.UserSize == 0 {
		c.Caches.UserSize = 4096
	}
	if c.Auth.RatePerMinute == 0 {
		c.Auth.RatePerMinute = 30
	}
	if c.Auth.RateBurst == 0 {
		c.Auth.RateBurst = 10
	}
	if c.Confirm.PurgeSchedule == "" {
		c.Confirm.PurgeSchedule = "*/10 * * * *"
	}
	if c.Confirm.Retention == 0 {
		c.Confirm.Retention = Duration(2 * time.Hour)
	}
	return nil
}

// Settings builds the process-wide suite settings. The pepper is a secret
// and comes from the environment, not the config file.
func Settings() suite.Settings {
	return suite.Settings{Pepper: os.Getenv("AUTH_PEPPER")}
}

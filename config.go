package idtoken

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cybergodev/idtoken/internal/signing"
)

// EnvPrefix is prepended to every environment variable read by LoadConfigFromEnv.
const EnvPrefix = "IDTOKEN_"

// Config represents token processor configuration
type Config struct {
	// Algorithm signs issued tokens
	Algorithm Algorithm `yaml:"algorithm" json:"algorithm" env:"ALGORITHM"`

	// PermittedAlgorithms is the verification allow-list. Empty means [Algorithm].
	// Every entry must belong to the same family as Algorithm.
	PermittedAlgorithms []Algorithm `yaml:"permitted_algorithms" json:"permitted_algorithms" env:"PERMITTED_ALGORITHMS" envSeparator:","`

	// Issuer is written to "iss" and required on verification
	Issuer string `yaml:"issuer" json:"issuer" env:"ISSUER"`

	// TokenTTL is the lifetime of issued tokens
	TokenTTL time.Duration `yaml:"token_ttl" json:"token_ttl" env:"TOKEN_TTL"`

	// IssuedAtTolerance bounds the age of a token's "iat" claim on verification
	IssuedAtTolerance time.Duration `yaml:"issued_at_tolerance" json:"issued_at_tolerance" env:"ISSUED_AT_TOLERANCE"`

	// SigningKey is the HMAC secret or PEM private key
	SigningKey string `yaml:"signing_key" json:"-" env:"SIGNING_KEY"`

	// SigningKeyFile is read when SigningKey is empty
	SigningKeyFile string `yaml:"signing_key_file" json:"signing_key_file" env:"SIGNING_KEY_FILE"`

	// VerificationKey is the PEM public key for RS* algorithms. HMAC processors
	// and RSA processors holding a private key derive it when empty.
	VerificationKey string `yaml:"verification_key" json:"-" env:"VERIFICATION_KEY"`

	// VerificationKeyFile is read when VerificationKey is empty
	VerificationKeyFile string `yaml:"verification_key_file" json:"verification_key_file" env:"VERIFICATION_KEY_FILE"`

	// RequireStrongSecret rejects HMAC secrets that fail the weak-key heuristics
	RequireStrongSecret bool `yaml:"require_strong_secret" json:"require_strong_secret" env:"REQUIRE_STRONG_SECRET"`

	// EnableRateLimit enables per-audience rate limiting for token issuance
	EnableRateLimit bool `yaml:"enable_rate_limit" json:"enable_rate_limit" env:"ENABLE_RATE_LIMIT"`

	// RateLimitRate specifies the maximum number of tokens per window
	RateLimitRate int `yaml:"rate_limit_rate" json:"rate_limit_rate" env:"RATE_LIMIT_RATE"`

	// RateLimitWindow defines the time window for rate limiting
	RateLimitWindow time.Duration `yaml:"rate_limit_window" json:"rate_limit_window" env:"RATE_LIMIT_WINDOW"`

	// EnableReplayProtection accepts each token ID (jti) at most once until the token expires
	EnableReplayProtection bool `yaml:"enable_replay_protection" json:"enable_replay_protection" env:"ENABLE_REPLAY_PROTECTION"`

	// ReplayCacheSize bounds the number of token IDs remembered
	ReplayCacheSize int `yaml:"replay_cache_size" json:"replay_cache_size" env:"REPLAY_CACHE_SIZE"`

	// ReplayCleanupInterval defines how often expired token IDs are forgotten
	ReplayCleanupInterval time.Duration `yaml:"replay_cleanup_interval" json:"replay_cleanup_interval" env:"REPLAY_CLEANUP_INTERVAL"`
}

// DefaultConfig returns a configuration with HS256 and the default lifetimes.
// Issuer and a key must still be supplied.
func DefaultConfig() Config {
	return Config{
		Algorithm:         HS256,
		TokenTTL:          10 * time.Minute,
		IssuedAtTolerance: DefaultIssuedAtTolerance,
		RateLimitRate:     100,
		RateLimitWindow:   time.Minute,

		ReplayCacheSize:       100000,
		ReplayCleanupInterval: 5 * time.Minute,
	}
}

// LoadConfigFile reads a YAML configuration file on top of DefaultConfig.
// Unknown keys are rejected.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return cfg, nil
}

// LoadConfigFromEnv overlays IDTOKEN_* environment variables onto base.
// The given dotenv files (".env" when none are given) are loaded first;
// missing files are ignored and variables already set in the process win.
func LoadConfigFromEnv(base Config, envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := base
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}

	if !c.Algorithm.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrUnsupportedAlgorithm, c.Algorithm)
	}

	for _, alg := range c.PermittedAlgorithms {
		if !alg.Valid() {
			return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrUnsupportedAlgorithm, alg)
		}
		if alg.Family() != c.Algorithm.Family() {
			return fmt.Errorf("%w: permitted algorithm %s is not in the %s family of %s",
				ErrInvalidConfig, alg, c.Algorithm.Family(), c.Algorithm)
		}
	}

	if c.Issuer == "" {
		return fmt.Errorf("%w: issuer is required", ErrInvalidConfig)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token TTL must be positive", ErrInvalidConfig)
	}

	if c.IssuedAtTolerance < 0 {
		return fmt.Errorf("%w: issued-at tolerance must not be negative", ErrInvalidConfig)
	}

	if c.SigningKey != "" && c.SigningKeyFile != "" {
		return fmt.Errorf("%w: signing key and signing key file are mutually exclusive", ErrInvalidConfig)
	}
	if c.VerificationKey != "" && c.VerificationKeyFile != "" {
		return fmt.Errorf("%w: verification key and verification key file are mutually exclusive", ErrInvalidConfig)
	}
	if c.SigningKey == "" && c.SigningKeyFile == "" && c.VerificationKey == "" && c.VerificationKeyFile == "" {
		return fmt.Errorf("%w: %w: no signing or verification key configured", ErrInvalidConfig, ErrInvalidKey)
	}

	if c.EnableRateLimit && (c.RateLimitRate <= 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("%w: rate limit rate and window must be positive", ErrInvalidConfig)
	}

	if c.EnableReplayProtection && (c.ReplayCacheSize <= 0 || c.ReplayCleanupInterval <= 0) {
		return fmt.Errorf("%w: replay cache size and cleanup interval must be positive", ErrInvalidConfig)
	}

	return nil
}

// Permitted returns the verification allow-list.
func (c *Config) Permitted() []Algorithm {
	if len(c.PermittedAlgorithms) == 0 {
		return []Algorithm{c.Algorithm}
	}
	out := make([]Algorithm, len(c.PermittedAlgorithms))
	copy(out, c.PermittedAlgorithms)
	return out
}

// Keys resolves the signing and verification key material. Either may be
// empty: a processor without a signing key can only verify.
func (c *Config) Keys() (signingKey, verificationKey []byte, err error) {
	signingKey, err = resolveKey(c.SigningKey, c.SigningKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("signing key: %w", err)
	}
	verificationKey, err = resolveKey(c.VerificationKey, c.VerificationKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("verification key: %w", err)
	}

	if len(verificationKey) == 0 && len(signingKey) > 0 {
		switch c.Algorithm.Family() {
		case signing.FamilyHMAC:
			verificationKey = bytes.Clone(signingKey)
		case signing.FamilyRSA:
			verificationKey, err = signing.PublicKeyPEM(signingKey)
			if err != nil {
				return nil, nil, fmt.Errorf("signing key: %w", err)
			}
		}
	}

	return signingKey, verificationKey, nil
}

func resolveKey(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return data, nil
}

package idtoken

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Issuer = testIssuer
	cfg.SigningKey = testSecretKey
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, HS256, cfg.Algorithm)
	assert.Equal(t, 10*time.Minute, cfg.TokenTTL)
	assert.Equal(t, DefaultIssuedAtTolerance, cfg.IssuedAtTolerance)
	assert.Empty(t, cfg.Issuer)
	assert.Empty(t, cfg.SigningKey)
	assert.False(t, cfg.EnableRateLimit)

	assert.Error(t, cfg.Validate(), "issuer and key must be supplied")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"verify only", func(c *Config) { c.SigningKey = ""; c.VerificationKey = testSecretKey }, nil},
		{"same family allow-list", func(c *Config) { c.PermittedAlgorithms = []Algorithm{HS256, HS512} }, nil},
		{"zero algorithm", func(c *Config) { c.Algorithm = 0 }, ErrUnsupportedAlgorithm},
		{"invalid permitted algorithm", func(c *Config) { c.PermittedAlgorithms = []Algorithm{Algorithm(99)} }, ErrUnsupportedAlgorithm},
		{"mixed family allow-list", func(c *Config) { c.PermittedAlgorithms = []Algorithm{HS256, RS256} }, ErrInvalidConfig},
		{"missing issuer", func(c *Config) { c.Issuer = "" }, ErrInvalidConfig},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, ErrInvalidConfig},
		{"negative tolerance", func(c *Config) { c.IssuedAtTolerance = -time.Second }, ErrInvalidConfig},
		{"no key", func(c *Config) { c.SigningKey = "" }, ErrInvalidKey},
		{"key and key file", func(c *Config) { c.SigningKeyFile = "key.pem" }, ErrInvalidConfig},
		{"verification key and file", func(c *Config) {
			c.VerificationKey = testSecretKey
			c.VerificationKeyFile = "key.pem"
		}, ErrInvalidConfig},
		{"rate limit without rate", func(c *Config) { c.EnableRateLimit = true; c.RateLimitRate = 0 }, ErrInvalidConfig},
		{"rate limit without window", func(c *Config) { c.EnableRateLimit = true; c.RateLimitWindow = 0 }, ErrInvalidConfig},
		{"replay protection", func(c *Config) { c.EnableReplayProtection = true }, nil},
		{"replay cache without size", func(c *Config) { c.EnableReplayProtection = true; c.ReplayCacheSize = 0 }, ErrInvalidConfig},
		{"replay cache without interval", func(c *Config) {
			c.EnableReplayProtection = true
			c.ReplayCleanupInterval = 0
		}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	var nilConfig *Config
	assert.ErrorIs(t, nilConfig.Validate(), ErrInvalidConfig)
}

func TestConfigPermitted(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, []Algorithm{HS256}, cfg.Permitted())

	cfg.PermittedAlgorithms = []Algorithm{HS384, HS256}
	permitted := cfg.Permitted()
	assert.Equal(t, []Algorithm{HS384, HS256}, permitted)

	permitted[0] = HS512
	assert.Equal(t, HS384, cfg.PermittedAlgorithms[0])
}

func TestConfigKeys(t *testing.T) {
	dir := t.TempDir()
	privatePEM, publicPEM := rsaKeys(t)

	privateFile := filepath.Join(dir, "private.pem")
	require.NoError(t, os.WriteFile(privateFile, privatePEM, 0o600))
	publicFile := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(publicFile, publicPEM, 0o600))

	t.Run("hmac secret doubles as verification key", func(t *testing.T) {
		cfg := testConfig()
		signKey, verifyKey, err := cfg.Keys()
		require.NoError(t, err)
		assert.Equal(t, []byte(testSecretKey), signKey)
		assert.Equal(t, []byte(testSecretKey), verifyKey)
	})

	t.Run("rsa public key derived from private key file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Algorithm = RS256
		cfg.SigningKey = ""
		cfg.SigningKeyFile = privateFile

		signKey, verifyKey, err := cfg.Keys()
		require.NoError(t, err)
		assert.Equal(t, privatePEM, signKey)

		tokenString, err := Issue(RS256, testIssuer, testAudience, testExp, testNonce, signKey, testNow)
		require.NoError(t, err)
		token, err := Parse(tokenString)
		require.NoError(t, err)
		assert.NoError(t, token.Verify(verifyKey, defaultVerifyOptions(RS256)))
	})

	t.Run("explicit verification key file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Algorithm = RS512
		cfg.SigningKey = ""
		cfg.VerificationKeyFile = publicFile

		signKey, verifyKey, err := cfg.Keys()
		require.NoError(t, err)
		assert.Empty(t, signKey)
		assert.Equal(t, publicPEM, verifyKey)
	})

	t.Run("missing key file", func(t *testing.T) {
		cfg := testConfig()
		cfg.SigningKey = ""
		cfg.SigningKeyFile = filepath.Join(dir, "missing.pem")

		_, _, err := cfg.Keys()
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("rsa private key that does not parse", func(t *testing.T) {
		cfg := testConfig()
		cfg.Algorithm = RS256

		_, _, err := cfg.Keys()
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idtoken.yaml")
	content := `algorithm: HS512
permitted_algorithms: [HS512, HS384]
issuer: https://auth.example.com
token_ttl: 5m
issued_at_tolerance: 90s
signing_key_file: /etc/idtoken/secret
require_strong_secret: true
enable_rate_limit: true
rate_limit_rate: 20
enable_replay_protection: true
replay_cache_size: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, HS512, cfg.Algorithm)
	assert.Equal(t, []Algorithm{HS512, HS384}, cfg.PermittedAlgorithms)
	assert.Equal(t, "https://auth.example.com", cfg.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 90*time.Second, cfg.IssuedAtTolerance)
	assert.Equal(t, "/etc/idtoken/secret", cfg.SigningKeyFile)
	assert.True(t, cfg.RequireStrongSecret)
	assert.True(t, cfg.EnableReplayProtection)
	assert.Equal(t, 500, cfg.ReplayCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.ReplayCleanupInterval, "unset keys keep their defaults")
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, 20, cfg.RateLimitRate)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow, "unset keys keep defaults")
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("issuer: a\nsecret_key: b\n"), 0o600))
	_, err = LoadConfigFile(unknown)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	badAlg := filepath.Join(dir, "alg.yaml")
	require.NoError(t, os.WriteFile(badAlg, []byte("algorithm: none\n"), 0o600))
	_, err = LoadConfigFile(badAlg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	cfg, err := LoadConfigFile(empty)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IDTOKEN_ALGORITHM", "RS384")
	t.Setenv("IDTOKEN_PERMITTED_ALGORITHMS", "RS384,RS256")
	t.Setenv("IDTOKEN_ISSUER", "https://env.example.com")
	t.Setenv("IDTOKEN_TOKEN_TTL", "2m")
	t.Setenv("IDTOKEN_ENABLE_RATE_LIMIT", "true")

	base := DefaultConfig()
	base.SigningKeyFile = "/keys/private.pem"

	cfg, err := LoadConfigFromEnv(base, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, RS384, cfg.Algorithm)
	assert.Equal(t, []Algorithm{RS384, RS256}, cfg.PermittedAlgorithms)
	assert.Equal(t, "https://env.example.com", cfg.Issuer)
	assert.Equal(t, 2*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, "/keys/private.pem", cfg.SigningKeyFile, "base values survive")
	assert.Equal(t, DefaultIssuedAtTolerance, cfg.IssuedAtTolerance)
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "IDTOKEN_ISSUER=https://dotenv.example.com\nIDTOKEN_RATE_LIMIT_RATE=7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Process variables take precedence over the file.
	t.Setenv("IDTOKEN_RATE_LIMIT_RATE", "9")
	t.Cleanup(func() { os.Unsetenv("IDTOKEN_ISSUER") })

	cfg, err := LoadConfigFromEnv(DefaultConfig(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", cfg.Issuer)
	assert.Equal(t, 9, cfg.RateLimitRate)
}

func TestLoadConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("IDTOKEN_ALGORITHM", "ES256")

	_, err := LoadConfigFromEnv(DefaultConfig(), filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

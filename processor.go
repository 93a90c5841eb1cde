package idtoken

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybergodev/idtoken/internal/logging"
	"github.com/cybergodev/idtoken/internal/replay"
	"github.com/cybergodev/idtoken/internal/security"
	"github.com/cybergodev/idtoken/internal/signing"
)

// reservedClaims are set by the Processor and cannot be supplied as extra claims.
var reservedClaims = [...]string{
	ClaimIssuer, ClaimAudience, ClaimExpiry, ClaimIssuedAt, ClaimNonce, ClaimID,
}

// Processor issues and verifies tokens for a single issuer and key pair.
// It is safe for concurrent use.
type Processor struct {
	algorithm         Algorithm
	permitted         []Algorithm
	issuer            string
	tokenTTL          time.Duration
	issuedAtTolerance time.Duration
	signingKey        *security.SecureBytes
	verificationKey   *security.SecureBytes

	logger      *zap.Logger
	clock       Clock
	metrics     *Metrics
	rateLimiter *RateLimiter
	ownsLimiter bool
	replayGuard *replay.Guard

	mu     sync.RWMutex
	closed bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the time source used for issuance and verification.
func WithClock(clock Clock) Option {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithMetrics reports issuance and verification outcomes to m.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithRateLimiter limits issuance per audience with rl. The caller keeps
// ownership: Close does not close rl.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(p *Processor) {
		p.rateLimiter = rl
	}
}

// New creates a Processor from cfg.
func New(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	p := &Processor{
		algorithm:         cfg.Algorithm,
		permitted:         cfg.Permitted(),
		issuer:            cfg.Issuer,
		tokenTTL:          cfg.TokenTTL,
		issuedAtTolerance: cfg.IssuedAtTolerance,
		logger:            zap.NewNop(),
		clock:             SystemClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String(logging.FieldComponent, "idtoken"))

	signingKey, verificationKey, err := cfg.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	defer security.ZeroBytes(signingKey)
	defer security.ZeroBytes(verificationKey)

	if err := p.checkKeys(cfg, signingKey, verificationKey); err != nil {
		return nil, err
	}

	if len(signingKey) > 0 {
		p.signingKey = security.NewSecureBytesFromSlice(signingKey)
	}
	if len(verificationKey) > 0 {
		p.verificationKey = security.NewSecureBytesFromSlice(verificationKey)
	}

	if p.rateLimiter == nil && cfg.EnableRateLimit {
		p.rateLimiter = NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitWindow)
		p.ownsLimiter = true
	}

	if cfg.EnableReplayProtection {
		replayConfig := replay.DefaultConfig()
		replayConfig.MaxSize = cfg.ReplayCacheSize
		replayConfig.CleanupInterval = cfg.ReplayCleanupInterval
		p.replayGuard = replay.NewGuard(replay.NewMemoryStore(replayConfig.MaxSize, p.clock.Now), replayConfig, p.logger)
	}

	p.logger.Debug("processor created",
		zap.String(logging.FieldAlgorithm, p.algorithm.String()),
		zap.String(logging.FieldIssuer, p.issuer),
		zap.Bool("replay_protection", p.replayGuard != nil))

	runtime.SetFinalizer(p, (*Processor).finalize)
	return p, nil
}

func (p *Processor) checkKeys(cfg Config, signingKey, verificationKey []byte) error {
	switch p.algorithm.Family() {
	case signing.FamilyHMAC:
		if len(signingKey) == 0 {
			break
		}
		if security.IsWeakKey(signingKey) {
			if cfg.RequireStrongSecret {
				return fmt.Errorf("%w: %w: HMAC secret is too weak", ErrInvalidConfig, ErrInvalidKey)
			}
			p.logger.Warn("weak HMAC secret configured",
				zap.String(logging.FieldAlgorithm, p.algorithm.String()),
				zap.Int("key_length", len(signingKey)))
		}
	case signing.FamilyRSA:
		if len(signingKey) > 0 {
			if _, err := signing.ParseRSAPrivateKey(signingKey); err != nil {
				return fmt.Errorf("signing key: %w", err)
			}
		}
		if len(verificationKey) > 0 {
			if _, err := signing.ParseRSAPublicKey(verificationKey); err != nil {
				return fmt.Errorf("verification key: %w", err)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, p.algorithm)
	}
	return nil
}

// Algorithm returns the algorithm issued tokens are signed with.
func (p *Processor) Algorithm() Algorithm {
	return p.algorithm
}

// Issuer returns the configured issuer.
func (p *Processor) Issuer() string {
	return p.issuer
}

// Issue creates a token for audience bound to nonce.
func (p *Processor) Issue(ctx context.Context, audience, nonce string) (string, error) {
	return p.IssueWithClaims(ctx, audience, nonce, ClaimSet{})
}

// IssueWithClaims creates a token carrying extra claims after the standard
// ones. Extra claims may not use reserved names (iss, aud, exp, iat, nonce, jti).
func (p *Processor) IssueWithClaims(ctx context.Context, audience, nonce string, extra ClaimSet) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	for _, name := range reservedClaims {
		if extra.Has(name) {
			return "", fmt.Errorf("%w: %q", ErrReservedClaim, name)
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.checkClosed(); err != nil {
		return "", err
	}
	if p.signingKey == nil {
		return "", fmt.Errorf("%w: processor has no signing key", ErrInvalidKey)
	}

	if p.rateLimiter != nil && !p.rateLimiter.Allow("aud:"+audience) {
		p.metrics.issuanceRateLimited()
		p.logger.Info("token issuance rate limited", zap.String(logging.FieldAudience, audience))
		return "", ErrRateLimitExceeded
	}

	now := p.clock.Now()
	tokenID := uuid.NewString()

	payload := NewClaimSet(6 + extra.Len())
	payload.Set(ClaimIssuer, p.issuer)
	payload.Set(ClaimAudience, audience)
	payload.Set(ClaimExpiry, now.Add(p.tokenTTL).Unix())
	payload.Set(ClaimIssuedAt, now.Unix())
	payload.Set(ClaimNonce, nonce)
	payload.Set(ClaimID, tokenID)
	for _, name := range extra.Keys() {
		value, _ := extra.Get(name)
		payload.Set(name, value)
	}

	token, err := signToken(p.algorithm, payload, p.signingKey.Bytes())
	if err != nil {
		p.logger.Error("token signing failed",
			zap.String(logging.FieldAlgorithm, p.algorithm.String()),
			zap.String(logging.FieldKind, Kind(err)),
			zap.NamedError(logging.FieldError, err))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	p.metrics.tokenIssued(p.algorithm)
	p.logger.Debug("token issued",
		zap.String(logging.FieldAlgorithm, p.algorithm.String()),
		zap.String(logging.FieldAudience, audience),
		zap.String(logging.FieldTokenID, tokenID))

	return token.Raw(), nil
}

// Verify parses tokenString and checks it against the processor's issuer,
// allow-list and key, and the given audience and nonce.
func (p *Processor) Verify(ctx context.Context, tokenString, audience, nonce string) (*Token, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.checkClosed(); err != nil {
		return nil, err
	}
	if p.verificationKey == nil {
		return nil, fmt.Errorf("%w: processor has no verification key", ErrInvalidKey)
	}

	token, err := Parse(tokenString)
	if err != nil {
		kind := Kind(err)
		p.metrics.verification(kind)
		var pe *ParseError
		if errors.As(err, &pe) {
			p.logger.Debug("token parse failed",
				zap.String(logging.FieldKind, kind),
				zap.String(logging.FieldSegment, pe.Segment),
				zap.NamedError(logging.FieldError, err))
		}
		return nil, err
	}

	err = token.Verify(p.verificationKey.Bytes(), VerifyOptions{
		Issuer:            p.issuer,
		Audience:          audience,
		Nonce:             nonce,
		Algorithms:        p.permitted,
		IssuedAtTolerance: p.issuedAtTolerance,
		Now:               p.clock.Now(),
	})
	if err != nil {
		kind := Kind(err)
		p.metrics.verification(kind)
		var ve *ValidationError
		if errors.As(err, &ve) {
			p.logger.Info("token rejected",
				zap.String(logging.FieldKind, kind),
				zap.String(logging.FieldField, ve.Field),
				zap.String(logging.FieldAudience, audience))
		} else {
			p.logger.Error("token verification failed",
				zap.String(logging.FieldKind, kind),
				zap.NamedError(logging.FieldError, err))
		}
		return nil, err
	}

	if err := p.checkReplay(token); err != nil {
		kind := Kind(err)
		p.metrics.verification(kind)
		p.logger.Warn("token replay rejected",
			zap.String(logging.FieldKind, kind),
			zap.String(logging.FieldAudience, audience),
			zap.NamedError(logging.FieldError, err))
		return nil, err
	}

	p.metrics.verification(Kind(nil))
	p.logger.Debug("token verified", zap.String(logging.FieldAudience, audience))
	return token, nil
}

// checkReplay records the token's jti when replay protection is enabled.
// A token without a string jti cannot be tracked and is rejected.
func (p *Processor) checkReplay(token *Token) error {
	if p.replayGuard == nil {
		return nil
	}

	id, ok := token.payload.String(ClaimID)
	if !ok || id == "" {
		return &ValidationError{Field: ClaimID, Message: "missing or not a string", Err: ErrTokenReplayed}
	}
	expiresAt, _ := token.ExpiresAt()

	err := p.replayGuard.Check(id, expiresAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, replay.ErrReplayed):
		return &ValidationError{Field: ClaimID, Message: "already used", Err: ErrTokenReplayed}
	default:
		return err
	}
}

// Close securely clears the keys. It returns ErrProcessorClosed when called twice.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrProcessorClosed
	}

	if p.signingKey != nil {
		p.signingKey.Destroy()
		p.signingKey = nil
	}
	if p.verificationKey != nil {
		p.verificationKey.Destroy()
		p.verificationKey = nil
	}

	if p.rateLimiter != nil && p.ownsLimiter {
		p.rateLimiter.Close()
	}
	p.rateLimiter = nil

	if p.replayGuard != nil {
		_ = p.replayGuard.Close()
		p.replayGuard = nil
	}

	p.closed = true
	runtime.SetFinalizer(p, nil)
	return nil
}

// finalize is called by the garbage collector to ensure resources are cleaned up
func (p *Processor) finalize() {
	if !p.closed {
		_ = p.Close()
	}
}

func (p *Processor) checkClosed() error {
	if p.closed {
		return ErrProcessorClosed
	}
	return nil
}

// IsClosed returns true if the processor has been closed
func (p *Processor) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

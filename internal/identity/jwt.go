package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 is for local development only.
	MethodHS256 SigningMethod = "hs256"
)

const (
	kindID      = "id"
	kindSession = "session"

	defaultIDTokenTTL    = time.Hour
	minHMACSecretLength  = 32
	maxCustomClaimsBytes = 1000
)

// reservedClaims cannot be set as custom claims.
var reservedClaims = map[string]struct{}{
	"iss": {}, "aud": {}, "sub": {}, "exp": {}, "iat": {}, "nbf": {}, "jti": {},
	"auth_time": {}, "knd": {}, "email": {}, "email_verified": {}, "phone_number": {}, "claims": {},
}

// Config configures a JWTProvider.
type Config struct {
	SigningMethod SigningMethod
	// PrivateKey is an Ed25519 key (raw or PEM) or the HS256 secret.
	PrivateKey []byte
	Issuer     string
	Audience   string
	IDTokenTTL time.Duration
	Leeway     time.Duration
	KeyID      string
}

type tokenClaims struct {
	Kind          string         `json:"knd"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Phone         string         `json:"phone_number,omitempty"`
	AuthTime      int64          `json:"auth_time,omitempty"`
	Custom        map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider implements Provider with signed JWTs. ID tokens and session
// artifacts share a key but carry a kind claim, so neither is accepted in
// place of the other.
type JWTProvider struct {
	cfg       Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	accounts  AccountStore
	now       func() time.Time
}

// NewJWTProvider validates cfg and returns a provider backed by accounts.
func NewJWTProvider(cfg Config, accounts AccountStore) (*JWTProvider, error) {
	if accounts == nil {
		return nil, errors.New("identity: account store is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("identity: issuer and audience are required")
	}
	if cfg.IDTokenTTL == 0 {
		cfg.IDTokenTTL = defaultIDTokenTTL
	}
	if cfg.IDTokenTTL < 0 {
		return nil, errors.New("identity: invalid ID token TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("identity: invalid leeway")
	}

	p := &JWTProvider{cfg: cfg, accounts: accounts, now: time.Now}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < minHMACSecretLength {
			return nil, fmt.Errorf("identity: hs256 secret must be at least %d bytes", minHMACSecretLength)
		}
		p.method = jwt.SigningMethodHS256
		p.signKey = cfg.PrivateKey
		p.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		p.method = jwt.SigningMethodEdDSA
		p.signKey = priv
		p.verifyKey = priv.Public()
	default:
		return nil, errors.New("identity: unsupported signing method")
	}
	return p, nil
}

// WithClock returns a copy of p that reads time from now. Intended for tests.
func (p *JWTProvider) WithClock(now func() time.Time) *JWTProvider {
	cp := *p
	cp.now = now
	return &cp
}

func (p *JWTProvider) VerifyIDToken(ctx context.Context, raw string) (*Token, error) {
	claims, err := p.parse(raw, kindID)
	if err != nil {
		return nil, err
	}
	return claims.token(), nil
}

func (p *JWTProvider) VerifySessionCookie(ctx context.Context, cookie string) (*Token, error) {
	claims, err := p.parse(cookie, kindSession)
	if err != nil {
		return nil, err
	}
	return claims.token(), nil
}

// CreateSessionCookie verifies idToken and mints a session artifact that
// expires after expiresIn. Claims are snapshotted at minting time.
func (p *JWTProvider) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if expiresIn < MinSessionDuration || expiresIn > MaxSessionDuration {
		return "", ErrInvalidSessionDuration
	}
	claims, err := p.parse(idToken, kindID)
	if err != nil {
		return "", err
	}

	now := p.now()
	session := *claims
	session.Kind = kindSession
	session.RegisteredClaims = p.registered(claims.Subject, now, expiresIn)
	return p.sign(&session)
}

// IssueIDToken upserts the account for id and signs an ID token carrying the
// account's current custom claims.
func (p *JWTProvider) IssueIDToken(ctx context.Context, id Identity) (string, error) {
	if strings.TrimSpace(id.UID) == "" {
		return "", errors.New("identity: uid is required")
	}
	rec, err := p.accounts.Upsert(ctx, id)
	if err != nil {
		return "", fmt.Errorf("identity: upsert account: %w", err)
	}

	now := p.now()
	claims := &tokenClaims{
		Kind:             kindID,
		Email:            rec.Email,
		EmailVerified:    rec.EmailVerified,
		Phone:            rec.Phone,
		AuthTime:         now.Unix(),
		RegisteredClaims: p.registered(rec.UID, now, p.cfg.IDTokenTTL),
	}
	if len(rec.CustomClaims) > 0 {
		claims.Custom = CopyClaims(rec.CustomClaims)
	}
	return p.sign(claims)
}

func (p *JWTProvider) GetUser(ctx context.Context, uid string) (*UserRecord, error) {
	return p.accounts.Get(ctx, uid)
}

// SetCustomUserClaims replaces uid's custom claims. Callers that want to keep
// unrelated claims must merge them first.
func (p *JWTProvider) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	if err := ValidateCustomClaims(claims); err != nil {
		return err
	}
	return p.accounts.SetClaims(ctx, uid, claims)
}

// ValidateCustomClaims enforces reserved names and the serialized size cap.
func ValidateCustomClaims(claims map[string]any) error {
	for k := range claims {
		if _, ok := reservedClaims[k]; ok {
			return fmt.Errorf("%w: %s", ErrReservedClaim, k)
		}
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("identity: encode claims: %w", err)
	}
	if len(b) > maxCustomClaimsBytes {
		return ErrClaimsTooLarge
	}
	return nil
}

func (p *JWTProvider) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    p.cfg.Issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{p.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (p *JWTProvider) sign(claims *tokenClaims) (string, error) {
	t := jwt.NewWithClaims(p.method, claims)
	if p.cfg.KeyID != "" {
		t.Header["kid"] = p.cfg.KeyID
	}
	signed, err := t.SignedString(p.signKey)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

func (p *JWTProvider) parse(raw, kind string) (*tokenClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithIssuer(p.cfg.Issuer),
		jwt.WithAudience(p.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(p.cfg.Leeway),
		jwt.WithTimeFunc(p.now),
	)
	claims := &tokenClaims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if p.cfg.KeyID != "" {
			if kid, _ := t.Header["kid"].(string); kid != p.cfg.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return p.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *tokenClaims) token() *Token {
	t := &Token{
		UID:           c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Phone:         c.Phone,
		Claims:        CopyClaims(c.Custom),
	}
	if c.AuthTime > 0 {
		t.AuthTime = time.Unix(c.AuthTime, 0)
	}
	if c.IssuedAt != nil {
		t.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		t.ExpiresAt = c.ExpiresAt.Time
	}
	return t
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("identity: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("identity: invalid ed25519 private key type")
	}
	return edKey, nil
}

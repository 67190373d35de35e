package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

var (
	// ErrMalformedToken indicates the token structure cannot be parsed.
	ErrMalformedToken = errors.New("jwt: malformed token")
	// ErrInvalidSignature indicates the signature does not verify against the active key.
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	// ErrTokenExpired indicates the token elapsed its validity window. Expiry
	// is reported even for correctly signed tokens.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// TokenClaims is the wire claim set shared by access and refresh tokens.
// Subject carries the user id and ID the per-issuance jti used for
// revocation. Access tokens additionally carry sid/role/email so a request
// can be authorized without a session lookup.
type TokenClaims struct {
	Type      domain.TokenType `json:"type"`
	SessionID string           `json:"sid,omitempty"`
	Role      domain.UserRole  `json:"role,omitempty"`
	Email     string           `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// CodecConfig selects the signing family and token lifetimes. Exactly one
// family is active: HS256 requires Secret, RS256 requires Keys.
type CodecConfig struct {
	Algorithm       string
	Secret          []byte
	Keys            KeyProvider
	SigningKID      string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenCodec encodes, decodes, signs, and verifies the token wire format,
// and mints access/refresh pairs.
type TokenCodec struct {
	cfg    CodecConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenCodec validates the signing configuration and constructs a codec.
// A family/key mismatch is rejected here: it is a configuration error, never
// a runtime one.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	var method jwt.SigningMethod

	switch strings.ToUpper(strings.TrimSpace(cfg.Algorithm)) {
	case "HS256":
		if len(cfg.Secret) == 0 {
			return nil, fmt.Errorf("jwt: HS256 requires a shared secret")
		}
		method = jwt.SigningMethodHS256
	case "RS256":
		if cfg.Keys == nil {
			return nil, fmt.Errorf("jwt: RS256 requires a key provider")
		}
		if _, err := cfg.Keys.GetSigningKey(); err != nil {
			return nil, fmt.Errorf("jwt: load signing key: %w", err)
		}
		method = jwt.SigningMethodRS256
	default:
		return nil, fmt.Errorf("jwt: unsupported algorithm %q", cfg.Algorithm)
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("jwt: access token ttl must be shorter than refresh token ttl")
	}

	codec := &TokenCodec{cfg: cfg, method: method}
	codec.now = func() time.Time { return time.Now().UTC() }
	return codec, nil
}

// WithClock overrides the codec clock for deterministic tests.
func (c *TokenCodec) WithClock(clock func() time.Time) *TokenCodec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.cfg.AccessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (c *TokenCodec) RefreshTokenTTL() time.Duration {
	return c.cfg.RefreshTokenTTL
}

// TokenPair bundles a freshly minted access and refresh token. The two
// tokens share subject and session but never a jti.
type TokenPair struct {
	AccessToken    string
	RefreshToken   string
	AccessTokenID  string
	RefreshTokenID string
	SessionID      string
	ExpiresIn      int
}

// IssuePair mints an access+refresh token pair for the user bound to the
// supplied session. No persistence happens here; recording the refresh jti
// against the session is the caller's responsibility.
func (c *TokenCodec) IssuePair(user domain.User, sessionID string) (*TokenPair, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("jwt: user id is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("jwt: session id is required")
	}

	now := c.now()
	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()

	accessClaims := &TokenClaims{
		Type:      domain.TokenTypeAccess,
		SessionID: sessionID,
		Role:      user.Role,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.AccessTokenTTL)),
			ID:        accessJTI,
		},
	}

	refreshClaims := &TokenClaims{
		Type:      domain.TokenTypeRefresh,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.RefreshTokenTTL)),
			ID:        refreshJTI,
		},
	}

	access, err := c.Encode(accessClaims)
	if err != nil {
		return nil, fmt.Errorf("jwt: sign access token: %w", err)
	}

	refresh, err := c.Encode(refreshClaims)
	if err != nil {
		return nil, fmt.Errorf("jwt: sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:    access,
		RefreshToken:   refresh,
		AccessTokenID:  accessJTI,
		RefreshTokenID: refreshJTI,
		SessionID:      sessionID,
		ExpiresIn:      int(c.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Encode signs the provided claims with the active scheme and returns the
// compact URL-safe encoding.
func (c *TokenCodec) Encode(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("jwt: claims required")
	}

	token := jwt.NewWithClaims(c.method, claims)

	switch c.method {
	case jwt.SigningMethodHS256:
		return token.SignedString(c.cfg.Secret)
	default:
		signingKey, err := c.cfg.Keys.GetSigningKey()
		if err != nil {
			return "", fmt.Errorf("jwt: get signing key: %w", err)
		}
		if kid := strings.TrimSpace(c.cfg.SigningKID); kid != "" {
			token.Header["kid"] = kid
		}
		return token.SignedString(signingKey)
	}
}

// Decode parses and verifies a token string. Failure kinds are distinct:
// ErrMalformedToken when the structure cannot be parsed, ErrInvalidSignature
// when the signature does not verify, ErrTokenExpired when the validity
// window has elapsed.
func (c *TokenCodec) Decode(tokenString string) (*TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuer(c.cfg.Issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return nil, ErrMalformedToken
	}

	return claims, nil
}

// RemainingTTL returns how long the token stays naturally valid from the
// codec's current clock. Blacklist entries use this so they expire exactly
// when the token itself would have.
func (c *TokenCodec) RemainingTTL(claims *TokenClaims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	ttl := claims.ExpiresAt.Time.Sub(c.now())
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (interface{}, error) {
	switch c.method {
	case jwt.SigningMethodHS256:
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.cfg.Secret, nil
	default:
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, _ := t.Header["kid"].(string)
		kid = strings.TrimSpace(kid)
		if kid == "" {
			kid = c.cfg.SigningKID
		}

		return c.cfg.Keys.GetVerificationKey(kid)
	}
}

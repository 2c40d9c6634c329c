package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-auth-service/internal/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenCodec issues and verifies the signed access/refresh token pair.
// The two token types are signed with distinct secrets and carry a "typ"
// discriminator, so a refresh token presented where an access token is
// expected fails verification and vice versa.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenCodec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh signing secrets must differ")
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token bound to one session via the
// "sid" claim. The returned jti doubles as the session's non-secret
// access-token fingerprint.
func (c *TokenCodec) IssueAccess(user model.AuthUser, sessionID string) (string, string, error) {
	now := time.Now().UTC()
	jti := uuid.NewString()

	token, err := signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      TokenTypeAccess,
		"jti":      jti,
		"sid":      sessionID,
		"iat":      now.Unix(),
		"exp":      now.Add(c.accessTTL).Unix(),
	}, c.accessSecret)
	if err != nil {
		return "", "", err
	}

	return token, jti, nil
}

// IssueRefresh signs a longer-lived refresh token. It deliberately carries
// no session id: refresh resolution goes through the owning user's active
// sessions and the stored hash, so a forged-but-signed session reference
// can never shortcut that check.
func (c *TokenCodec) IssueRefresh(user model.AuthUser) (string, error) {
	now := time.Now().UTC()

	return signToken(jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      TokenTypeRefresh,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(c.refreshTTL).Unix(),
	}, c.refreshSecret)
}

func (c *TokenCodec) VerifyAccess(token string) (*model.AuthClaims, error) {
	return verifyToken(token, TokenTypeAccess, c.accessSecret, model.ErrInvalidAccessToken)
}

func (c *TokenCodec) VerifyRefresh(token string) (*model.AuthClaims, error) {
	return verifyToken(token, TokenTypeRefresh, c.refreshSecret, model.ErrInvalidRefreshToken)
}

func signToken(claims jwt.MapClaims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verifyToken checks signature, expiry and type discriminator. Every
// failure collapses to the same sentinel so callers cannot learn which
// check rejected the token.
func verifyToken(tokenString string, expectedType string, secret []byte, sentinel error) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, sentinel
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, sentinel
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != expectedType {
		return nil, sentinel
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	claims.SessionID, _ = claimsMap["sid"].(string)

	if claims.UserID == "" {
		return nil, sentinel
	}

	return claims, nil
}

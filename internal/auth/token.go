// Package auth issues and verifies identity tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"time"

	"socialgraph/internal/authz"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "socialgraph-api"
	tokenAudience = "socialgraph-client"
	// TokenTTL is how long an issued token stays valid.
	TokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and verifies HS256 identity tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken returns a signed token for the identity.
func (t *TokenIssuer) IssueToken(id authz.Identity) (string, error) {
	if !id.IsAuthenticated() {
		return "", errors.New("cannot issue a token for an anonymous identity")
	}
	now := t.now()
	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the identity it carries.
func (t *TokenIssuer) Parse(tokenString string) (authz.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return authz.Anonymous(), ErrInvalidToken
	}

	userID, err := strconv.ParseUint(c.Subject, 10, bits.UintSize)
	if err != nil || userID == 0 {
		return authz.Anonymous(), ErrInvalidToken
	}
	return authz.Identity{UserID: uint(userID), Username: c.Username}, nil
}

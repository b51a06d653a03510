package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every token the verifier refuses.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens for one issuer/audience pair.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokens(secret, issuer, audience string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GenerateToken generates a JWT token for the given user
func (t *Tokens) GenerateToken(userID, username string) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken validates a JWT token and returns the claims
func (t *Tokens) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != t.issuer {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid token issuer"))
	}
	if !slices.Contains(claims.Audience, t.audience) {
		return nil, errors.Join(ErrInvalidToken, errors.New("invalid token audience"))
	}
	if claims.UserID == "" {
		return nil, errors.Join(ErrInvalidToken, errors.New("missing user id"))
	}
	return claims, nil
}

// Verify resolves a token to the user id it was issued for.
func (t *Tokens) Verify(tokenString string) (string, error) {
	claims, err := t.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

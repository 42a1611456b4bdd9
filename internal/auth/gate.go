// Package auth guards the teacher-only actions. Entry is a single shared
// secret checked by verbatim comparison; a short-lived signed token then
// marks the kiosk session as teacher-authorized so the upload dashboard and
// the "new quiz" action do not re-prompt on every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrWrongPassword is returned on a failed teacher login. The caller is
	// expected to clear the password field and stay where it is.
	ErrWrongPassword = errors.New("wrong teacher password")
	// ErrInvalidToken is returned for missing, malformed or expired tokens.
	ErrInvalidToken = errors.New("invalid teacher token")
)

// Claims carried by a kiosk teacher token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Gate validates the shared teacher secret and issues session tokens.
type Gate struct {
	secret   string
	tokenKey []byte
	tokenTTL time.Duration
	issuer   string
}

// GateConfig configures the teacher gate.
type GateConfig struct {
	Secret   string
	TokenKey []byte
	TokenTTL time.Duration // default: 8 hours, one school day
	Issuer   string
}

// NewGate builds a gate. Secret and TokenKey must be non-empty.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("teacher secret must be configured")
	}
	if len(cfg.TokenKey) == 0 {
		return nil, fmt.Errorf("token key must be configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "quizsnap"
	}
	return &Gate{
		secret:   cfg.Secret,
		tokenKey: cfg.TokenKey,
		tokenTTL: cfg.TokenTTL,
		issuer:   cfg.Issuer,
	}, nil
}

// Check compares the submitted password against the shared secret. The
// comparison is deliberately a plain equality: the secret is a classroom
// convention, not a credential worth hashing.
func (g *Gate) Check(password string) error {
	if password != g.secret {
		return ErrWrongPassword
	}
	return nil
}

// Issue returns a signed teacher token for this kiosk session.
func (g *Gate) Issue(now time.Time) (string, error) {
	claims := Claims{
		Role: "teacher",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   "teacher",
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.tokenKey)
}

// Verify checks a teacher token and returns ErrInvalidToken on any failure.
func (g *Gate) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.tokenKey, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Role != "teacher" {
		return ErrInvalidToken
	}
	return nil
}

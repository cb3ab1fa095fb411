package api

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PrintTokenTTL bounds how long a print link stays valid once minted
const PrintTokenTTL = 15 * time.Minute

// printClaims scopes a signed print link to a single case and caller
type printClaims struct {
	CaseID   string `json:"caseId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrNoPrintTokenSecret is returned when PRINT_TOKEN_SECRET is unset; print
// pages then only open through an authenticated session.
var ErrNoPrintTokenSecret = errors.New("PRINT_TOKEN_SECRET is not set")

func printTokenSecret() ([]byte, error) {
	secret := os.Getenv("PRINT_TOKEN_SECRET")
	if secret == "" {
		return nil, ErrNoPrintTokenSecret
	}
	return []byte(secret), nil
}

// NewPrintToken mints a short-lived token that opens the printable pages for
// one case outside of the SPA's bearer session (browser print windows carry
// no Authorization header).
func NewPrintToken(caseID string, user AuthUser) (string, error) {
	secret, err := printTokenSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := printClaims{
		CaseID:   caseID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "barangay-portal-api",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(PrintTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParsePrintToken validates a print token and returns the case it is scoped
// to along with the identity it was minted for.
func ParsePrintToken(token string) (string, AuthUser, error) {
	claims := &printClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return printTokenSecret()
	})
	if err != nil {
		return "", AuthUser{}, err
	}
	if !parsed.Valid {
		return "", AuthUser{}, fmt.Errorf("invalid print token")
	}
	return claims.CaseID, AuthUser{Username: claims.Username, Role: claims.Role}, nil
}

package jwt

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	DefaultTTL = 24 * time.Hour
	issuer     = "go-storefront"
	devSecret  = "dev-only-storefront-secret"
)

// Principal is the user a token speaks for.
type Principal struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RoleCode     string    `json:"role_code"`
	Privileges   []string  `json:"privileges"`
	TokenVersion string    `json:"token_version"`
}

// Claims represents the JWT claims structure
type Claims struct {
	Principal
	jwt.RegisteredClaims
}

var (
	mu       sync.RWMutex
	secret   []byte
	tokenTTL = DefaultTTL
)

// Configure sets the signing secret and token lifetime. Without it the
// JWT_SECRET environment variable is used, then a development default.
func Configure(signingSecret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(signingSecret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func signingKey() ([]byte, time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	if len(secret) > 0 {
		return secret, tokenTTL
	}
	if env := os.Getenv("JWT_SECRET"); env != "" {
		return []byte(env), tokenTTL
	}
	return []byte(devSecret), tokenTTL
}

func GenerateToken(p Principal) (string, error) {
	key, ttl := signingKey()
	now := time.Now()
	claims := &Claims{
		Principal: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func ValidateToken(tokenString string) (*Claims, error) {
	key, _ := signingKey()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

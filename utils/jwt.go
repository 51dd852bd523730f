package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/feyndora/backend/config"
)

const (
	tokenIssuer     = "feyndora"
	defaultTokenTTL = 72 * time.Hour
)

// Claims carries the learner identity inside a session token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenTTL is the session lifetime from TokenTTLHours.
func TokenTTL() time.Duration {
	if h := config.Get().TokenTTLHours; h > 0 {
		return time.Duration(h) * time.Hour
	}
	return defaultTokenTTL
}

// GenerateToken issues a session token for a learner and reports when it expires.
func GenerateToken(userID uint, username string) (string, time.Time, error) {
	return signToken(userID, username, time.Now(), TokenTTL())
}

func signToken(userID uint, username string, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, errors.New("token subject is empty")
	}
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Get().JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer and expiry, and that the subject matches the user id.
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(config.Get().JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 || claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, errors.New("token subject does not match user")
	}
	return claims, nil
}

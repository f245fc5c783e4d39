package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/roza-in/server/config"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "roza-dev-secret"
	}
	return []byte(secret)
}

// Claims carried by platform tokens. Role is one of "patient", "doctor",
// "hospital_admin", "platform_admin"; HospitalID scopes staff tokens to
// their tenant.
type TokenClaims struct {
	Subject    string
	Role       string
	HospitalID string
}

// GenerateToken creates a signed JWT for the given subject with role and
// tenant claims. The token expires after the specified duration.
func GenerateToken(tc TokenClaims, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  tc.Subject,
		"role": tc.Role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	if tc.HospitalID != "" {
		claims["hospital_id"] = tc.HospitalID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ExtractClaims validates a token string and returns its platform claims.
func ExtractClaims(tokenString string) (TokenClaims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return TokenClaims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return TokenClaims{}, errors.New("token does not contain a valid 'sub' claim")
	}

	tc := TokenClaims{Subject: sub}
	if role, ok := claims["role"].(string); ok {
		tc.Role = role
	}
	if hid, ok := claims["hospital_id"].(string); ok {
		tc.HospitalID = hid
	}
	return tc, nil
}

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen минимальная длина секрета в байтах
const MinSecretLen = 32

const issuerName = "voxel-sandbox"

// ErrInvalidToken токен не прошёл проверку
var ErrInvalidToken = errors.New("недействительный токен")

// Claims представляет JWT claims администратора
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет токены админ-API
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer создаёт издателя по секрету в base64
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("секрет должен быть в base64: %w", err)
	}
	if len(decoded) < MinSecretLen {
		return nil, fmt.Errorf("секрет должен быть не короче %d байт", MinSecretLen)
	}
	return &TokenIssuer{secret: decoded}, nil
}

// Issue создаёт токен для subject со сроком жизни ttl
func (ti *TokenIssuer) Issue(subject string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		IsAdmin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuerName,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate проверяет подпись и срок действия токена
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(issuerName))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecureSecret генерирует новый секрет в base64
func GenerateSecureSecret() (string, error) {
	b := make([]byte, MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

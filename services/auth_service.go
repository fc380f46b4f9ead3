package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wya-server/utils/errors"
)

// CronScope is the only scope accepted on the cron routes.
const CronScope = "cron"

// CronAuth signs and verifies the HS256 tokens the scheduler presents.
type CronAuth struct {
	secret []byte
}

func NewCronAuth(secret string) *CronAuth {
	return &CronAuth{secret: []byte(secret)}
}

// IssueToken mints a scheduler token valid for ttl.
func (a *CronAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"scope": CronScope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}

// Verify returns the token subject when the token is valid and carries the cron scope.
func (a *CronAuth) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.ErrUnauthorized
	}
	if scope, _ := claims["scope"].(string); scope != CronScope {
		return "", errors.ErrUnauthorized
	}
	subject, _ := claims["sub"].(string)
	return subject, nil
}

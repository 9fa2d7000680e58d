package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anonreport/incident-api/internal/models"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
)

// SessionService verifies staff session tokens issued by the external
// session provider.
type SessionService struct {
	secret []byte
	issuer string
}

// NewSessionService constructs a verifier. An empty issuer skips the issuer check.
func NewSessionService(secret, issuer string) *SessionService {
	return &SessionService{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses an HS256 session token and returns its claims.
// Every failure is reported as ErrUnauthorized.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, appErrors.ErrUnauthorized
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrUnauthorized, err, "")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

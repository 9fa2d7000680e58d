package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anonreport/incident-api/internal/models"
	appErrors "github.com/anonreport/incident-api/pkg/errors"
	"github.com/anonreport/incident-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the verified session claims.
const ContextSessionKey = "session"

// SessionVerifier validates a raw session token.
type SessionVerifier interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// Session rejects requests that do not carry a valid staff session as a
// bearer token. Every rejection answers 401 {"error":"Unauthorized"}.
func Session(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || verifier == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

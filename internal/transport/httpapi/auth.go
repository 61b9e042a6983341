package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/service/scheduling"
)

const callerContextKey = "bookwell.caller"

// Identity is the identity-collaborator boundary: it decodes the bearer
// token into a (callerID, role) pair and everything downstream trusts that
// pair. Tokens carry the canonical user id in `sub` and the role in `role`.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid Authorization header",
				"code":  "unauthorized",
			})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		caller, err := decodeCaller(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
				"code":  "unauthorized",
			})
			return
		}

		c.Set(callerContextKey, caller)
		c.Next()
	}
}

func decodeCaller(raw string, secret []byte) (scheduling.Caller, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return scheduling.Caller{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return scheduling.Caller{}, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return scheduling.Caller{}, fmt.Errorf("subject is not a uuid: %w", err)
	}

	rawRole, _ := claims["role"].(string)
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return scheduling.Caller{}, fmt.Errorf("unknown role %q", rawRole)
	}

	return scheduling.Caller{ID: id, Role: role}, nil
}

func callerFrom(c *gin.Context) (scheduling.Caller, bool) {
	v, ok := c.Get(callerContextKey)
	if !ok {
		return scheduling.Caller{}, false
	}
	caller, ok := v.(scheduling.Caller)
	return caller, ok
}

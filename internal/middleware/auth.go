package middleware

import (
	"net/http"
	"strings"

	"socal/internal/services"

	"github.com/gin-gonic/gin"
)

const PrincipalKey = "principal"

// TokenValidator is the part of services.TokenService the middleware needs.
type TokenValidator interface {
	Validate(token string) (services.Principal, error)
}

// LoadPrincipal resolves the bearer token, if any, and stores the principal
// in the context. It never rejects: a missing or bad token leaves the
// request anonymous, and AuthRequired decides whether that is acceptable.
func LoadPrincipal(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if principal, err := tokens.Validate(token); err == nil {
				c.Set(PrincipalKey, principal)
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a principal was resolved
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentPrincipal(c); !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (services.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

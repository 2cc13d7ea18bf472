package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/galaxy/internal/identity"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Error codes shared by middleware and handlers
const (
	CodeUnauthenticated = "unauthenticated"
	CodeRateLimited     = "rate_limited"
)

const callerKey = "caller"

// Abort stops the chain with a JSON error body
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: message, Code: code})
}

// Authenticate resolves the bearer token through source and stores the
// caller in both the gin and the request context.
func Authenticate(source identity.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			Abort(c, http.StatusUnauthorized, CodeUnauthenticated, "missing bearer token")
			return
		}

		caller, err := source.Authenticate(c.Request.Context(), token)
		if err != nil {
			Abort(c, http.StatusUnauthorized, CodeUnauthenticated, err.Error())
			return
		}

		c.Set(callerKey, caller)
		c.Request = c.Request.WithContext(identity.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// Caller returns the user set by Authenticate
func Caller(c *gin.Context) (types.UserID, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return identity.CallerFrom(c.Request.Context())
	}
	caller, ok := v.(types.UserID)
	return caller, ok && caller != ""
}

// BearerToken extracts the token from an Authorization header
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

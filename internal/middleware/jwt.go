package middleware

import (
	"net/http"
	"strings"

	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// ContextKeyIdentity is the Gin context key for the verified identity.
	ContextKeyIdentity = "identity"

	bearerPrefix = "Bearer "
)

// TokenVerifier verifies a bearer token. Implemented by service.TokenService.
type TokenVerifier interface {
	Verify(token string) (*service.Identity, error)
}

// RequireAuth validates the bearer token in the Authorization header and
// stores the resulting identity on the context. Every verification failure
// produces the same TOKEN_INVALID response; the reason is only logged.
func RequireAuth(verifier TokenVerifier, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "auth").Logger()
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, verifier, log, tokenStr)
	}
}

// RequireWSAuth validates a token passed as ?token=... on WebSocket upgrade
// requests, where browsers cannot set headers.
func RequireWSAuth(verifier TokenVerifier, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "ws_auth").Logger()
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, verifier, log, tokenStr)
	}
}

func authenticate(c *gin.Context, verifier TokenVerifier, log zerolog.Logger, tokenStr string) {
	identity, err := verifier.Verify(tokenStr)
	if err != nil {
		log.Debug().Err(err).
			Str("path", c.FullPath()).
			Str("client_ip", c.ClientIP()).
			Msg("Token rejected")
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	c.Set(ContextKeyIdentity, identity)
	c.Next()
}

// bearerToken extracts the token from an Authorization header value. The
// scheme must be exactly "Bearer " and the token must not be blank.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// GetIdentity retrieves the verified identity from the Gin context.
func GetIdentity(c *gin.Context) *service.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	identity, ok := val.(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}

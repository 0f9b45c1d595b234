package routers

import (
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/relayview-io/relayview/internal/handlers"
	"github.com/relayview-io/relayview/internal/models"
)

// grantTypeClientCredentials marks a token obtained service-to-service;
// its subject is a machine principal, not a user.
const grantTypeClientCredentials = "client-credentials"

// Claims are the token claims the services care about. Scope is the
// space-separated scope string; GrantType is the identity provider's
// grant-type claim.
type Claims struct {
	Subject   string `json:"sub"`
	Scope     string `json:"scope"`
	GrantType string `json:"gty"`
}

// Identity converts the raw claims into the caller identity the handlers
// and ownership policy consume. A missing scope claim means no scopes.
func (claims Claims) Identity() models.Identity {
	return models.Identity{
		ID:      claims.Subject,
		Machine: claims.GrantType == grantTypeClientCredentials,
		Scopes:  strings.Fields(claims.Scope),
	}
}

// ValidateJWT verifies the bearer token on every request and stashes the
// resulting identity plus the raw token in the request context. Audience
// and issuer are enforced by the verifier's configuration.
func ValidateJWT(logger *zap.SugaredLogger, verifier *oidc.IDTokenVerifier) func(*gin.Context) {
	return func(c *gin.Context) {
		authz := c.Request.Header.Get("Authorization")
		if authz == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authz, " ")
		if len(parts) != 2 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		token, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			logger.Debugw("token verification failed", "error", err)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var claims Claims
		if err := token.Claims(&claims); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(handlers.AuthIdentityKey, claims.Identity())
		c.Set(handlers.AuthTokenKey, parts[1])
		c.Next()
	}
}

package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/aaryan/garment-styles-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// MerchantAuthMiddleware simulates the authentication chain: a validated
// token plus the resolved merchant identity, set the same way GetMerchant
// caches it after the /userinfo lookup.
func MerchantAuthMiddleware(userID, merchant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("access_token", "mock-token")
		c.Set("validated_claims", MockValidatedClaims(userID, "https://test.auth0.com/", nil))
		c.Set("merchant", merchant)
		c.Next()
	}
}

// File: middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/roza-in/server/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	ctxSubjectID  = "subjectID"
	ctxRole       = "role"
	ctxHospitalID = "hospitalID"
)

// JWTAuth validates the bearer token and, when roles are given, requires
// the token's role to be one of them. Claims land in the gin context for
// handlers to scope their queries by.
func JWTAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this resource"})
			return
		}

		c.Set(ctxSubjectID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxHospitalID, claims.HospitalID)
		c.Next()
	}
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// SubjectID returns the authenticated subject id, if any.
func SubjectID(c *gin.Context) string {
	if v, ok := c.Get(ctxSubjectID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Role returns the authenticated role, if any.
func Role(c *gin.Context) string {
	if v, ok := c.Get(ctxRole); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// HospitalID returns the tenant claim of staff tokens, if any.
func HospitalID(c *gin.Context) string {
	if v, ok := c.Get(ctxHospitalID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

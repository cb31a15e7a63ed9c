package middleware

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantHeader = "X-Tenant-ID"
	UserHeader   = "X-User-ID"

	tenantKey = "tenant"
)

// Tenant resolves the caller's tenant and user from headers set by the
// authenticating proxy. Requests without a valid tenant are rejected.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(TenantHeader)))
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + TenantHeader + " header"})
			return
		}

		tc := domain.TenantContext{TenantID: tenantID}
		if raw := strings.TrimSpace(c.GetHeader(UserHeader)); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + UserHeader + " header"})
				return
			}
			tc.ActorID = userID
		}

		c.Set(tenantKey, tc)
		c.Next()
	}
}

// TenantFrom returns the tenant context stored by Tenant.
func TenantFrom(c *gin.Context) domain.TenantContext {
	if v, ok := c.Get(tenantKey); ok {
		if tc, ok := v.(domain.TenantContext); ok {
			return tc
		}
	}
	return domain.TenantContext{}
}

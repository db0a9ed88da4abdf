// README: Actor middleware; role and id arrive from the upstream auth layer.
package middleware

import (
	"github.com/gin-gonic/gin"

	"tableside/internal/modules/order"
)

const (
	ActorRoleKey = "actorRole"
	ActorIDKey   = "actorID"
)

// Actor extracts X-Actor-Role / X-Actor-ID headers set by the auth gateway.
// Requests without a role are treated as customer-facing (guests included).
// The internal system role is never accepted over the wire.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := order.Role(c.GetHeader("X-Actor-Role"))
		if role == "" || role == order.RoleSystem {
			role = order.RoleCustomer
		}
		c.Set(ActorRoleKey, role)
		c.Set(ActorIDKey, c.GetHeader("X-Actor-ID"))
		c.Next()
	}
}

func ActorRole(c *gin.Context) order.Role {
	if v, ok := c.Get(ActorRoleKey); ok {
		return v.(order.Role)
	}
	return order.RoleCustomer
}

func ActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

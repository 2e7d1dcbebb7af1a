package middleware

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
)

// StoreScope rejects store users acting on a store other than their own.
// The target store is read from the named path parameter; admins pass.
func StoreScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := c.Param(param)
		if storeID == "" {
			c.Next()
			return
		}
		if !appctx.HasStoreAccess(c.Request.Context(), storeID) {
			_ = c.Error(apperror.NewForbidden("no access to this store").
				WithDetail("store_id", storeID))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Package handler holds what the resource handlers share: the route
// registration contract and request binding.
package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
)

// Routes is implemented by every resource handler.
type Routes interface {
	RegisterRoutes(*gin.RouterGroup)
}

// BindJSON decodes the request body into dst. On failure it attaches an
// InvalidFormat error for the error middleware and returns false.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, apperrors.NewInvalidFormat("Invalid JSON body", err))
		return false
	}
	return true
}

// Fail attaches err to the context. The error middleware renders it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type SecurityConfig struct {
	// HSTSMaxAge 0 omits Strict-Transport-Security.
	HSTSMaxAge     int
	FrameOptions   string
	ReferrerPolicy string
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:     31536000,
		FrameOptions:   "DENY",
		ReferrerPolicy: "no-referrer",
	}
}

// SecurityHeaders sets the response headers a JSON API needs; responses
// carry patient data, so they are never cached by intermediaries.
func SecurityHeaders(cfg SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.HSTSMaxAge > 0 {
			c.Header("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
		}
		c.Header("X-Frame-Options", cfg.FrameOptions)
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", cfg.ReferrerPolicy)
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const apiKeyLocal = "apiKey"

// APIKey extracts the per-request generation API key from the X-API-Key
// header or an Authorization bearer token and stashes it in locals. It
// never rejects: the key is a pass-through credential for the external
// gateway, not a server-side auth mechanism.
func APIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-API-Key")
		if key == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key != "" {
			c.Locals(apiKeyLocal, key)
		}
		return c.Next()
	}
}

// GetAPIKey returns the extracted key, or empty when none was supplied.
func GetAPIKey(c *fiber.Ctx) string {
	key, _ := c.Locals(apiKeyLocal).(string)
	return key
}

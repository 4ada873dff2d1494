package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader carries the shared secret authorizing write operations.
const APIKeyHeader = "X-API-Key"

// apiKeyAuth guards an endpoint with the configured shared secret. When no
// key is configured the middleware is a no-op. Keys are hashed before the
// comparison so it runs in constant time regardless of length.
func apiKeyAuth(apiKey string) echo.MiddlewareFunc {
	expected := sha256.Sum256([]byte(apiKey))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}

			provided := sha256.Sum256([]byte(c.Request().Header.Get(APIKeyHeader)))
			if subtle.ConstantTimeCompare(expected[:], provided[:]) != 1 {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "missing or invalid API key",
				})
			}
			return next(c)
		}
	}
}

package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/joaomferraz/KeyCript/internal/utils" // token codec shared with the auth handlers
)

// UserIDKey is the context key under which the authenticated user's id is
// stored for the remainder of the request.
const UserIDKey = "user_id"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject into the request context.  The provided
// secret must match the one used when issuing tokens.  This middleware
// wraps every credential route so that handlers can read the requester's
// identity via c.Get(UserIDKey).
//
// All verification failures — missing header, wrong scheme, malformed
// token, bad signature, expired token — produce the same 401 body.  The
// client learns that the token did not work, never why.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			subject, err := utils.VerifySubject(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
			}

			// The resolved identity rides on the context; the middleware
			// itself never touches stored data.
			c.Set(UserIDKey, subject)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's id from the context.  It
// returns false when no identity was bound, which means the route was not
// wrapped by JWTAuth.
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(UserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

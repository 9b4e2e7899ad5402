// Package auth resolves the authenticated principal for each request and
// provides role guards for the order engine. Token verification itself is
// owned by the upstream gateway, which forwards the resolved identity in
// trusted headers; this package is the in-process boundary to that
// collaborator.
package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foodya/foodya-backend/pkg/errorbank"
)

// Role is a closed enumeration of caller role classes.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleMerchant Role = "MERCHANT"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole converts a header-supplied string into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Principal identifies the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// Header names populated by the auth gateway.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

const contextKey = "auth.principal"

// Middleware resolves the forwarded identity headers into a Principal and
// stores it on the request context. Requests without identity pass through;
// handlers that need a caller use FromContext, which rejects them.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawID := c.Request().Header.Get(HeaderUserID)
			rawRole := c.Request().Header.Get(HeaderRole)
			if rawID == "" || rawRole == "" {
				return next(c)
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				return errorbank.Forbidden("invalid identity", errorbank.WithCause(err))
			}
			role, err := ParseRole(rawRole)
			if err != nil {
				return errorbank.Forbidden("invalid role", errorbank.WithCause(err))
			}

			c.Set(contextKey, Principal{UserID: userID, Role: role})
			return next(c)
		}
	}
}

// FromContext returns the request principal or a forbidden error when the
// request carried no identity.
func FromContext(c echo.Context) (Principal, error) {
	p, ok := c.Get(contextKey).(Principal)
	if !ok {
		return Principal{}, errorbank.Forbidden("authentication required")
	}
	return p, nil
}

// Require checks that the principal holds one of the allowed roles.
func Require(p Principal, allowed ...Role) error {
	for _, role := range allowed {
		if p.Role == role {
			return nil
		}
	}
	return errorbank.Forbidden("insufficient role",
		errorbank.WithDetail("role", string(p.Role)))
}

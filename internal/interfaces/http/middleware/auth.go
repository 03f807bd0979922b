package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

const identityKey = "identity"

// Claims are the bearer token claims, the user id is the subject.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	jwt.StandardClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserId      string
	Permissions []string
}

// Has ...
func (i *Identity) Has(permission string) bool {
	if permission == "" {
		return true
	}
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IdentityFrom returns the caller authenticated by Authenticate, if any.
func IdentityFrom(c *fiber.Ctx) *Identity {
	identity, _ := c.Locals(identityKey).(*Identity)
	return identity
}

// Authenticate verifies the HS256 bearer token of the request.
func Authenticate(secret []byte) fiber.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || tokenString == header {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no subject")
		}

		c.Locals(identityKey, &Identity{
			UserId:      claims.Subject,
			Permissions: claims.Permissions,
		})
		return c.Next()
	}
}

// RequirePermission rejects callers missing the given permission. The empty
// permission admits any authenticated caller.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		if !identity.Has(permission) {
			return fiber.NewError(
				fiber.StatusForbidden, fmt.Sprintf("missing permission %s", permission),
			)
		}
		return c.Next()
	}
}

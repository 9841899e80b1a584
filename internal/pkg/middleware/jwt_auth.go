package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ecocheck/ecocheck/app/repository"
	"github.com/ecocheck/ecocheck/internal/pkg/usercontext"
)

// TokenUser is the identity block carried in the token payload.
type TokenUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims are the JWT claims issued by the account service.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID. Used by tooling and tests;
// token issuance for clients lives in the account service.
func GenerateToken(userID, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		User: TokenUser{ID: userID, Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": msg})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": msg})
}

// JWTAuth verifies the bearer token and loads the caller from users. Role
// and location come from the directory, not from the token. Inactive
// accounts are let through so the workflow can reject them per operation.
func JWTAuth(secret string, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := extractBearer(c)
		if tokenString == "" {
			return unauthorized(c, "Missing bearer token")
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenMalformed):
				return unauthorized(c, "Token is malformed")
			case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
				return unauthorized(c, "Token is expired or not valid yet")
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				return unauthorized(c, "Invalid token signature")
			default:
				return unauthorized(c, "Token is not valid")
			}
		}
		if claims.User.ID == "" {
			return unauthorized(c, "Token carries no user")
		}

		user, err := users.GetByID(c.UserContext(), claims.User.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return unauthorized(c, "Unknown user")
			}
			log.Errorf("[Auth] User lookup for %s failed: %v", claims.User.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "User verification failed"})
		}

		usercontext.Set(c, usercontext.FromUser(user))
		return c.Next()
	}
}

// RequireSuperAdmin rejects callers without the superadmin role.
func RequireSuperAdmin(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.Authenticated {
		return unauthorized(c, "login required")
	}
	if !uc.IsSuperAdmin() || !uc.IsActive {
		return forbidden(c, "Access denied: superadmin role required")
	}
	return c.Next()
}

func extractBearer(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecocheck/ecocheck/app/models"
)

// UserContext is the verified caller of a request, loaded from the user
// directory by the auth middleware.
type UserContext struct {
	UserID        string `json:"userId"`
	Role          string `json:"role"`
	Location      string `json:"location"`
	IsActive      bool   `json:"isActive"`
	Authenticated bool   `json:"authenticated"`
}

func FromUser(u *models.User) UserContext {
	return UserContext{
		UserID:        u.ID,
		Role:          u.Role,
		Location:      u.Location,
		IsActive:      u.IsActive(),
		Authenticated: true,
	}
}

func (u UserContext) IsAdmin() bool {
	return u.Role == models.ROLE_ADMIN
}

func (u UserContext) IsSuperAdmin() bool {
	return u.Role == models.ROLE_SUPERADMIN
}

// Set stores uc on the request.
func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyUserContext, uc)
}

// GetUserContext returns the caller, or an unauthenticated context.
func GetUserContext(c *fiber.Ctx) UserContext {
	if uc, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return uc
	}
	return UserContext{}
}

package api

import (
	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UsersHandler serves the mock user profile
type UsersHandler struct{}

// NewUsersHandler creates a new users handler
func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// Me returns the fixed profile of the signed-in user
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	return c.JSON(models.MockUserProfile())
}

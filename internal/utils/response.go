package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the error body contract of the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

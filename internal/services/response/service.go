package response

import (
	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// retryAfterSeconds is advertised on retryable errors
const retryAfterSeconds = "5"

// BaseService provides common HTTP response utilities that can be embedded and specialized
type BaseService struct{}

// NewBaseService creates a new base response service
func NewBaseService() *BaseService {
	return &BaseService{}
}

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error sends an error response with specified status, type, and code
func (s *BaseService) Error(c *fiber.Ctx, status int, message, errorType, code string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Code:    code,
		},
	})
}

// AppError sends a sanitized AppError with its status code. Retryable errors
// carry a Retry-After header.
func (s *BaseService) AppError(c *fiber.Ctx, err error, requestID string) error {
	appErr := models.SanitizeError(err)
	if appErr.IsRetryable() {
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	}
	return c.Status(appErr.GetStatusCode()).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:   appErr.Message,
			Type:      string(appErr.Type),
			Code:      appErr.Code,
			Retryable: appErr.IsRetryable(),
			RequestID: requestID,
		},
	})
}

// Success sends a 200 OK response with the provided data
func (s *BaseService) Success(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}

package sites

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/admission"
	"github.com/Egham-7/sitegen-mock/internal/services/response"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ResponseService renders /v1/sites responses
type ResponseService struct {
	*response.BaseService
}

// NewResponseService creates a new response service
func NewResponseService() *ResponseService {
	return &ResponseService{
		BaseService: response.NewBaseService(),
	}
}

// HandleError maps an error onto an HTTP error response
func (rs *ResponseService) HandleError(c *fiber.Ctx, err error, requestID string) error {
	appErr := ToAppError(err)
	if appErr.GetStatusCode() >= fiber.StatusInternalServerError {
		fiberlog.Errorf("[%s] Request failed: %v", requestID, err)
	} else {
		fiberlog.Warnf("[%s] Request rejected: %v", requestID, err)
	}
	return rs.AppError(c, appErr, requestID)
}

// BuildSite renders the templated descriptor for a site
func (rs *ResponseService) BuildSite(id int64, policy models.PacingPolicy) models.Site {
	return models.Site{
		ID:          id,
		Name:        fmt.Sprintf("Site %d", id),
		Status:      "ready",
		GenerateURL: fmt.Sprintf("/v1/sites/%d/generate", id),
		BlockSize:   policy.BlockSize,
		DelayMs:     int(policy.Delay.Milliseconds()),
	}
}

// ToAppError classifies errors raised while handling a site request
func ToAppError(err error) *models.AppError {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return models.NewValidationError(validationErr.Message, err)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return models.NewValidationError(err.Error(), err)
	}

	if errors.Is(err, admission.ErrLimitReached) {
		return models.NewRateLimitError("concurrent generation streams")
	}

	if t, ok := contracts.TypeOf(err); ok {
		switch t {
		case contracts.NotFound:
			return models.NewNotFoundError("site content", err)
		case contracts.Cancelled, contracts.ClientDisconnect:
			if errors.Is(err, context.DeadlineExceeded) {
				return models.NewTimeoutError("generate", err)
			}
			return models.NewInternalError("request cancelled", err)
		case contracts.IOError:
			return models.NewInternalError("failed to read site content", err)
		}
	}

	return models.NewInternalError("internal server error", err)
}

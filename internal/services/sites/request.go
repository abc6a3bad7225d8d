package sites

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/request"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StreamTimeoutHeader lets a caller shorten the session deadline
const StreamTimeoutHeader = "X-Stream-Timeout"

// RequestService parses and validates /v1/sites requests
type RequestService struct {
	*request.BaseService
	validate *validator.Validate
}

// NewRequestService creates a new request service for site operations
func NewRequestService() *RequestService {
	return &RequestService{
		BaseService: request.NewBaseService(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ParseSiteParams parses and validates the :id path parameter
func (rs *RequestService) ParseSiteParams(c *fiber.Ctx) (*models.SiteParams, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "id", Message: "id must be a positive integer"}
	}

	params := &models.SiteParams{ID: id}
	if err := rs.validate.Struct(params); err != nil {
		return nil, &ValidationError{Field: "id", Message: "id must be a positive integer"}
	}
	return params, nil
}

// ParseGenerateRequest parses the optional pacing override body
func (rs *RequestService) ParseGenerateRequest(c *fiber.Ctx) (*models.GenerateRequest, error) {
	var req models.GenerateRequest
	if len(c.Body()) == 0 {
		return &req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	if err := rs.validate.Struct(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: err.Error()}
	}
	return &req, nil
}

// ResolvePolicy merges request overrides into the configured defaults
func (rs *RequestService) ResolvePolicy(cfg models.StreamConfig, req *models.GenerateRequest) (models.PacingPolicy, error) {
	policy := cfg.DefaultPolicy()
	if req == nil {
		return policy, nil
	}

	if req.BlockSize != nil {
		if cfg.MaxBlockSize > 0 && *req.BlockSize > cfg.MaxBlockSize {
			return policy, &ValidationError{
				Field:   "block_size",
				Message: fmt.Sprintf("block_size must be at most %d", cfg.MaxBlockSize),
			}
		}
		policy.BlockSize = *req.BlockSize
	}

	if req.DelayMs != nil {
		if cfg.MaxDelayMs > 0 && *req.DelayMs > cfg.MaxDelayMs {
			return policy, &ValidationError{
				Field:   "delay_ms",
				Message: fmt.Sprintf("delay_ms must be at most %d", cfg.MaxDelayMs),
			}
		}
		policy.Delay = time.Duration(*req.DelayMs) * time.Millisecond
	}

	return policy, nil
}

// StreamTimeout returns the session deadline, shortened by the request header when present
func (rs *RequestService) StreamTimeout(c *fiber.Ctx, configured time.Duration) time.Duration {
	header := c.Get(StreamTimeoutHeader)
	if header == "" {
		return configured
	}

	d, err := time.ParseDuration(header)
	if err != nil || d <= 0 {
		return configured
	}
	if configured > 0 {
		return min(d, configured)
	}
	return d
}

// SourceIdentifier maps a site id to the identifier content openers resolve
func SourceIdentifier(params *models.SiteParams) string {
	return strconv.FormatInt(params.ID, 10)
}

// ValidationError represents a request validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

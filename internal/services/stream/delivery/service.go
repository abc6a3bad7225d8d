package delivery

import (
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/sources"

	"github.com/go-playground/validator/v10"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Service starts paced stream sessions over a content opener
type Service struct {
	opener   contracts.ContentOpener
	validate *validator.Validate
	newID    func() string
}

// NewService creates a delivery service resolving identifiers through opener
func NewService(opener contracts.ContentOpener) *Service {
	return &Service{
		opener:   opener,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		newID:    uuid.NewString,
	}
}

// StartStream creates an Idle session for sourceIdentifier. No content is
// touched until the session is opened or first pulled.
func (s *Service) StartStream(sourceIdentifier string, policy models.PacingPolicy) (*Session, error) {
	if err := s.validate.Struct(policy); err != nil {
		return nil, fmt.Errorf("invalid pacing policy: %w", err)
	}

	source, err := sources.NewChunkSource(s.opener, sourceIdentifier, policy.BlockSize)
	if err != nil {
		return nil, err
	}

	session := newSession(s.newID(), sourceIdentifier, source, policy)
	fiberlog.Debugf("[%s] Session created for %q: block_size=%d delay=%v",
		session.ID(), sourceIdentifier, policy.BlockSize, policy.Delay)
	return session, nil
}

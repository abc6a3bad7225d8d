package generations

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service stores and lists generation records
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) AutoMigrate() error {
	return s.db.AutoMigrate(&models.GenerationRecord{})
}

// RecordGeneration persists the metadata of one finished session
func (s *Service) RecordGeneration(ctx context.Context, params models.RecordGenerationParams) (*models.GenerationRecord, error) {
	record := models.GenerationRecord{
		SessionID:    params.SessionID,
		RequestID:    params.RequestID,
		SourceID:     params.SourceID,
		State:        params.State,
		Chunks:       params.Chunks,
		Bytes:        params.Bytes,
		BlockSize:    params.BlockSize,
		DelayMs:      params.Delay.Milliseconds(),
		DurationMs:   params.Duration.Milliseconds(),
		IPAddress:    params.IPAddress,
		ErrorMessage: params.ErrorMessage,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	return &record, nil
}

// ListBySource returns the most recent records for a source, newest first
func (s *Service) ListBySource(ctx context.Context, sourceID string, limit int) ([]models.GenerationRecord, error) {
	limit = clampLimit(limit)

	var records []models.GenerationRecord
	err := s.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list generations for %s: %w", sourceID, err)
	}

	return records, nil
}

// DeleteOlderThan removes records created before cutoff
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.GenerationRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune generations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/viora-as/procurement-api/internal/domain"
	"github.com/viora-as/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService handles generation of unique, formatted purchase
// order numbers. Sequences are per calendar year.
//
// Format: PO-{YEAR}-{SEQUENCE}
// Example: PO-2026-001, PO-2026-042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// FormatOrderNumber formats a year and sequence as an order number
func (s *NumberSequenceService) FormatOrderNumber(year, sequence int) string {
	return fmt.Sprintf("PO-%d-%03d", year, sequence)
}

// GenerateOrderNumber allocates the next order number for the current year.
// Numbers are never reused, including for orders that are later cancelled.
func (s *NumberSequenceService) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().UTC().Year()

	sequence, err := s.repo.GetNextNumber(ctx, year)
	if err != nil {
		return "", fmt.Errorf("failed to get next sequence number: %w", err)
	}

	return s.FormatOrderNumber(year, sequence), nil
}

// GetCurrentSequence returns the last issued sequence number for a year,
// or zero if none has been issued
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, year int) (int, error) {
	sequence, err := s.repo.GetCurrentSequence(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("failed to get current sequence: %w", err)
	}
	return sequence, nil
}

// SetSequence moves the sequence for a year forward, typically when
// importing historical orders. The sequence is never lowered.
func (s *NumberSequenceService) SetSequence(ctx context.Context, year, sequence int) error {
	if err := s.repo.SetSequence(ctx, year, sequence); err != nil {
		return fmt.Errorf("failed to set sequence: %w", err)
	}

	s.logger.Info("number sequence updated",
		zap.Int("year", year),
		zap.Int("sequence", sequence),
	)

	return nil
}

// ListSequences returns all per-year sequences
func (s *NumberSequenceService) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	sequences, err := s.repo.ListSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	return sequences, nil
}

package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

func TestNumberSequenceService_FormatOrderNumber(t *testing.T) {
	svc := service.NewNumberSequenceService(nil, zap.NewNop())

	tests := []struct {
		name     string
		year     int
		sequence int
		expected string
	}{
		{"single digit is padded", 2026, 1, "PO-2026-001"},
		{"double digit is padded", 2026, 42, "PO-2026-042"},
		{"triple digit", 2026, 999, "PO-2026-999"},
		{"sequence beyond padding keeps all digits", 2026, 1234, "PO-2026-1234"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.FormatOrderNumber(tc.year, tc.sequence))
		})
	}
}

func TestNumberSequenceService_GenerateOrderNumber(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	ctx := createTestContext()
	year := time.Now().UTC().Year()

	first, err := svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.FormatOrderNumber(year, 1), first)

	second, err := svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.FormatOrderNumber(year, 2), second)

	current, err := svc.GetCurrentSequence(ctx, year)
	require.NoError(t, err)
	assert.Equal(t, 2, current)
}

func TestNumberSequenceService_SetSequence(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	ctx := createTestContext()
	year := time.Now().UTC().Year()

	require.NoError(t, svc.SetSequence(ctx, year, 500))

	next, err := svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.FormatOrderNumber(year, 501), next)

	// A lower value never rewinds the sequence
	require.NoError(t, svc.SetSequence(ctx, year, 10))
	next, err = svc.GenerateOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.FormatOrderNumber(year, 502), next)
}

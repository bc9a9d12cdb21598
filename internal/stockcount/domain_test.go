package stockcount

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai/internal/shared"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		status    Status
		canUpdate bool
		canDelete bool
		canVerify bool
		terminal  bool
	}{
		{StatusDraft, true, true, true, false},
		{StatusUnderReview, true, true, true, false},
		{StatusVerified, false, false, false, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			require.True(t, tc.status.IsValid())
			require.Equal(t, tc.canUpdate, tc.status.CanUpdate())
			require.Equal(t, tc.canDelete, tc.status.CanDelete())
			require.Equal(t, tc.canVerify, tc.status.CanVerify())
			require.Equal(t, tc.terminal, tc.status.IsTerminal())
		})
	}
}

func TestStatusIsValidRejectsUnknown(t *testing.T) {
	require.False(t, Status("cancelled").IsValid())
	require.False(t, Status("").IsValid())
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, StatusUnderReview, StatusFor(true))
	require.Equal(t, StatusDraft, StatusFor(false))
}

func TestItemVariance(t *testing.T) {
	shortage := Item{ExpectedQuantity: 10, ActualQuantity: 8}
	require.InDelta(t, -2, shortage.Variance(), 0.0001)

	overage := Item{ExpectedQuantity: 3, ActualQuantity: 4.5}
	require.InDelta(t, 1.5, overage.Variance(), 0.0001)

	exact := Item{ExpectedQuantity: 7, ActualQuantity: 7}
	require.InDelta(t, 0, exact.Variance(), 0.0001)
}

func TestUnknownItemsErrorMatchesValidation(t *testing.T) {
	err := &UnknownItemsError{IDs: []uuid.UUID{uuid.New()}}
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "unknown catalog items")
}

func TestValidationSentinels(t *testing.T) {
	require.True(t, errors.Is(ErrEmptyItems, shared.ErrValidation))
	require.True(t, errors.Is(ErrNegativeQuantity, shared.ErrValidation))
	require.True(t, errors.Is(ErrInvalidID, shared.ErrValidation))
}

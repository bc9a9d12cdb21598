package stockcount

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestReconcileDiffAndReplace(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	existing := []uuid.UUID{a, b, c}
	submitted := []ItemInput{
		{CatalogItemID: b, ActualQuantity: 5},
		{CatalogItemID: d, ActualQuantity: 7},
	}

	plan := Reconcile(existing, submitted)

	require.ElementsMatch(t, []uuid.UUID{a, c}, plan.ToDelete)
	require.Len(t, plan.ToUpsert, 2)
	require.Equal(t, b, plan.ToUpsert[0].CatalogItemID)
	require.Equal(t, d, plan.ToUpsert[1].CatalogItemID)
}

func TestReconcileEmptyExisting(t *testing.T) {
	a := uuid.New()
	plan := Reconcile(nil, []ItemInput{{CatalogItemID: a, ActualQuantity: 1}})

	require.Empty(t, plan.ToDelete)
	require.Len(t, plan.ToUpsert, 1)
}

func TestReconcileDuplicateKeysLastWins(t *testing.T) {
	a := uuid.New()
	plan := Reconcile(nil, []ItemInput{
		{CatalogItemID: a, ActualQuantity: 1},
		{CatalogItemID: a, ActualQuantity: 9},
	})

	require.Len(t, plan.ToUpsert, 1)
	require.InDelta(t, 9, plan.ToUpsert[0].ActualQuantity, 0.0001)
}

func TestReconcileIdempotent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	submitted := []ItemInput{
		{CatalogItemID: a, ActualQuantity: 2},
		{CatalogItemID: b, ActualQuantity: 3},
	}

	first := Reconcile([]uuid.UUID{a, b}, submitted)
	require.Empty(t, first.ToDelete)

	// Applying the same submission against its own result changes nothing.
	keys := make([]uuid.UUID, 0, len(first.ToUpsert))
	for _, in := range first.ToUpsert {
		keys = append(keys, in.CatalogItemID)
	}
	second := Reconcile(keys, submitted)
	require.Empty(t, second.ToDelete)
	require.Equal(t, first.ToUpsert, second.ToUpsert)
}

package stockcount

import "github.com/google/uuid"

// ReconcilePlan describes how a persisted item set becomes the submitted one.
type ReconcilePlan struct {
	// ToDelete lists catalog item ids present in storage but absent from
	// the submission.
	ToDelete []uuid.UUID
	// ToUpsert lists the submitted items, deduplicated by catalog item id
	// (the last occurrence wins, matching upsert-by-natural-key semantics).
	ToUpsert []ItemInput
}

// Reconcile computes the set difference between the persisted item keys and
// a submitted payload. It is pure: the transactional store applies the plan.
func Reconcile(existing []uuid.UUID, submitted []ItemInput) ReconcilePlan {
	byKey := make(map[uuid.UUID]int, len(submitted))
	upserts := make([]ItemInput, 0, len(submitted))
	for _, in := range submitted {
		if idx, ok := byKey[in.CatalogItemID]; ok {
			upserts[idx] = in
			continue
		}
		byKey[in.CatalogItemID] = len(upserts)
		upserts = append(upserts, in)
	}

	var deletes []uuid.UUID
	for _, key := range existing {
		if _, ok := byKey[key]; !ok {
			deletes = append(deletes, key)
		}
	}

	return ReconcilePlan{ToDelete: deletes, ToUpsert: upserts}
}

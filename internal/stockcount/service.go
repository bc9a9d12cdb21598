package stockcount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gerai-erp/gerai/internal/catalog"
	"github.com/gerai-erp/gerai/internal/shared"
)

// CatalogPort is the read-only catalog collaborator.
type CatalogPort interface {
	Resolve(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]catalog.Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]catalog.Item, error)
}

// AuditPort records mutations for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SequenceMetrics observes code issuance.
type SequenceMetrics interface {
	CodeIssued()
	CodeCollision()
}

// PreviewRef is the sentinel lookup key that yields an unpersisted preview
// instead of a stored record.
const PreviewRef = "new"

// Service orchestrates the stock count lifecycle.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	codes   *CodeGenerator
	audit   AuditPort
	metrics SequenceMetrics
	now     func() time.Time
}

// NewService builds Service. audit and metrics may be nil.
func NewService(repo RepositoryPort, cat CatalogPort, codes *CodeGenerator, audit AuditPort, metrics SequenceMetrics) *Service {
	return &Service{repo: repo, catalog: cat, codes: codes, audit: audit, metrics: metrics, now: time.Now}
}

// CreateInput carries a full submission for a new stock count.
type CreateInput struct {
	StoreID     uuid.UUID
	PerformedBy uuid.UUID
	Items       []ItemInput
	PublishNow  bool
}

// UpdateInput carries a replacement submission for an existing count.
type UpdateInput struct {
	StoreID    uuid.UUID
	RecordID   uuid.UUID
	Items      []ItemInput
	PublishNow bool
}

// Create validates the submission, snapshots expected quantities from the
// catalog, mints a document code and persists header plus items in one
// transaction. A code collision is retried once with a fresh code.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Record, error) {
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	resolved, err := s.resolveAll(ctx, input.StoreID, input.Items)
	if err != nil {
		return nil, err
	}

	rec := Record{
		ID:          uuid.New(),
		StoreID:     input.StoreID,
		Status:      StatusFor(input.PublishNow),
		PerformedBy: input.PerformedBy,
	}

	// One retry: the generator is atomic, but legacy rows or a clock skew
	// between app instances can still surface a duplicate code.
	for attempt := 0; ; attempt++ {
		rec.Code, err = s.codes.Next(ctx)
		if err != nil {
			return nil, err
		}
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := tx.InsertRecord(ctx, rec); err != nil {
				return err
			}
			plan := Reconcile(nil, input.Items)
			for _, in := range plan.ToUpsert {
				if err := tx.UpsertItem(ctx, buildItem(rec.ID, in, resolved)); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if IsCodeCollision(err) && attempt == 0 {
			if s.metrics != nil {
				s.metrics.CodeCollision()
			}
			continue
		}
		return nil, fmt.Errorf("stockcount: create: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CodeIssued()
	}

	s.recordAudit(ctx, input.StoreID, input.PerformedBy, "STOCK_COUNT_CREATE", rec.ID, map[string]any{
		"code": rec.Code, "status": rec.Status, "items": len(input.Items),
	})
	return s.repo.FindOne(ctx, input.StoreID, rec.ID)
}

// FindAll returns a page of summaries for the store.
func (s *Service) FindAll(ctx context.Context, storeID uuid.UUID, req ListRequest) ([]Summary, shared.Pagination, error) {
	summaries, total, err := s.repo.List(ctx, storeID, req)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("stockcount: list: %w", err)
	}
	return summaries, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// FindOne resolves a lookup reference. The sentinel "new" yields an
// ephemeral preview scaffolding every catalog item of the store; any other
// value must be the id of a persisted record in the same store.
func (s *Service) FindOne(ctx context.Context, storeID, userID uuid.UUID, ref string) (FindOneResult, error) {
	if ref == PreviewRef {
		preview, err := s.preview(ctx, storeID, userID)
		if err != nil {
			return FindOneResult{}, err
		}
		return FindOneResult{Preview: preview}, nil
	}

	id, err := uuid.Parse(ref)
	if err != nil {
		return FindOneResult{}, ErrInvalidID
	}
	rec, err := s.get(ctx, storeID, id)
	if err != nil {
		return FindOneResult{}, err
	}
	return FindOneResult{Record: rec}, nil
}

// Update validates state and submission, re-snapshots expected quantities
// and applies the diff-and-replace plan transactionally. The final status
// follows the publish flag, so updates can move a document between draft
// and under_review in either direction.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Record, error) {
	rec, err := s.get(ctx, input.StoreID, input.RecordID)
	if err != nil {
		return nil, err
	}
	if !rec.Status.CanUpdate() {
		return nil, fmt.Errorf("%w: stock count %s is verified", shared.ErrStateConflict, rec.Code)
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	resolved, err := s.resolveAll(ctx, input.StoreID, input.Items)
	if err != nil {
		return nil, err
	}

	status := StatusFor(input.PublishNow)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.ItemKeys(ctx, rec.ID)
		if err != nil {
			return err
		}
		plan := Reconcile(existing, input.Items)
		if err := tx.DeleteItemsByKeys(ctx, rec.ID, plan.ToDelete); err != nil {
			return err
		}
		for _, in := range plan.ToUpsert {
			if err := tx.UpsertItem(ctx, buildItem(rec.ID, in, resolved)); err != nil {
				return err
			}
		}
		return tx.UpdateHeader(ctx, rec.ID, status)
	})
	if err != nil {
		return nil, fmt.Errorf("stockcount: update: %w", err)
	}

	s.recordAudit(ctx, input.StoreID, rec.PerformedBy, "STOCK_COUNT_UPDATE", rec.ID, map[string]any{
		"code": rec.Code, "status": status, "items": len(input.Items),
	})
	return s.repo.FindOne(ctx, input.StoreID, rec.ID)
}

// Remove deletes a non-terminal record with its items.
func (s *Service) Remove(ctx context.Context, storeID, id uuid.UUID) error {
	rec, err := s.get(ctx, storeID, id)
	if err != nil {
		return err
	}
	if !rec.Status.CanDelete() {
		return fmt.Errorf("%w: stock count %s is verified", shared.ErrStateConflict, rec.Code)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteItems(ctx, rec.ID); err != nil {
			return err
		}
		return tx.DeleteRecord(ctx, rec.ID)
	})
	if err != nil {
		return fmt.Errorf("stockcount: remove: %w", err)
	}

	s.recordAudit(ctx, storeID, rec.PerformedBy, "STOCK_COUNT_REMOVE", rec.ID, map[string]any{"code": rec.Code})
	return nil
}

// Verify freezes the record. Items are untouched: expected, actual and
// variance stay exactly as of the last write.
func (s *Service) Verify(ctx context.Context, storeID, id uuid.UUID) (*Record, error) {
	rec, err := s.get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if !rec.Status.CanVerify() {
		return nil, fmt.Errorf("%w: stock count %s is already verified", shared.ErrStateConflict, rec.Code)
	}

	verifiedAt := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetVerified(ctx, rec.ID, verifiedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("stockcount: verify: %w", err)
	}

	s.recordAudit(ctx, storeID, rec.PerformedBy, "STOCK_COUNT_VERIFY", rec.ID, map[string]any{"code": rec.Code})
	return s.repo.FindOne(ctx, storeID, rec.ID)
}

func (s *Service) get(ctx context.Context, storeID, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.FindOne(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: stock count %s", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return rec, nil
}

// preview projects every active catalog item into an uncounted line with a
// peeked (not consumed) code. Nothing is persisted.
func (s *Service) preview(ctx context.Context, storeID, userID uuid.UUID) (*Preview, error) {
	items, err := s.catalog.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	code, err := s.codes.Peek(ctx)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Code:        code,
		StoreID:     storeID,
		Status:      StatusDraft,
		PerformedBy: userID,
		Items:       make([]PreviewItem, 0, len(items)),
	}
	for _, it := range items {
		preview.Items = append(preview.Items, PreviewItem{
			CatalogItemID:    it.ID,
			SKU:              it.SKU,
			Name:             it.Name,
			Unit:             it.Unit,
			ExpectedQuantity: it.QuantityOnHand,
			ActualQuantity:   0,
		})
	}
	return preview, nil
}

// resolveAll snapshots catalog data for every submitted item. One unknown or
// foreign-store id fails the whole request; nothing is persisted partially.
func (s *Service) resolveAll(ctx context.Context, storeID uuid.UUID, items []ItemInput) (map[uuid.UUID]catalog.Item, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, in := range items {
		if _, ok := seen[in.CatalogItemID]; ok {
			continue
		}
		seen[in.CatalogItemID] = struct{}{}
		ids = append(ids, in.CatalogItemID)
	}

	resolved, err := s.catalog.Resolve(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &UnknownItemsError{IDs: missing}
	}
	return resolved, nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for _, in := range items {
		if in.ActualQuantity < 0 {
			return ErrNegativeQuantity
		}
	}
	return nil
}

func buildItem(recordID uuid.UUID, in ItemInput, resolved map[uuid.UUID]catalog.Item) Item {
	return Item{
		ID:               uuid.New(),
		RecordID:         recordID,
		CatalogItemID:    in.CatalogItemID,
		ExpectedQuantity: resolved[in.CatalogItemID].QuantityOnHand,
		ActualQuantity:   in.ActualQuantity,
		Notes:            in.Notes,
	}
}

func (s *Service) recordAudit(ctx context.Context, storeID, actorID uuid.UUID, action string, recordID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		StoreID:  storeID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "stock_count",
		EntityID: recordID.String(),
		Meta:     meta,
	})
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedhost/internal/config"
	"feedhost/internal/domain"
)

// ItemService implements feed item reads, writes and the bulk upsert
// classifier. Every item-creating operation runs the retention eviction as
// its last step, inside the same transaction, so readers never observe an
// over-sized item set.
type ItemService struct {
	feeds       FeedStore
	items       ItemStore
	txManager   TransactionManager
	publisher   Publisher
	logger      *slog.Logger
	maxItems    int
	maxArchived int
}

func NewItemService(
	feeds FeedStore,
	items ItemStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.FeedsConfig,
) *ItemService {
	return &ItemService{
		feeds:       feeds,
		items:       items,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		maxItems:    cfg.MaxItems,
		maxArchived: cfg.MaxArchived,
	}
}

// Active returns the active window: the newest maxItems items.
func (s *ItemService) Active(ctx context.Context, feedSlug string) ([]domain.FeedItem, error) {
	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return nil, err
	}
	return s.items.ListWindow(ctx, feedID, s.maxItems, 0)
}

// All returns the active and archive windows concatenated, each item tagged
// with the window it belongs to. The partition boundary sits exactly at
// maxItems.
func (s *ItemService) All(ctx context.Context, feedSlug string) ([]domain.ArchivedItem, error) {
	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return nil, err
	}

	active, err := s.items.ListWindow(ctx, feedID, s.maxItems, 0)
	if err != nil {
		return nil, err
	}
	archived, err := s.items.ListWindow(ctx, feedID, s.maxArchived, s.maxItems)
	if err != nil {
		return nil, err
	}

	all := make([]domain.ArchivedItem, 0, len(active)+len(archived))
	for _, item := range active {
		all = append(all, domain.ArchivedItem{FeedItem: item})
	}
	for _, item := range archived {
		all = append(all, domain.ArchivedItem{FeedItem: item, Archived: true})
	}
	return all, nil
}

// Create inserts a single item and evicts beyond the retained window in the
// same transaction.
func (s *ItemService) Create(ctx context.Context, feedSlug string, in domain.ItemInput) (*domain.FeedItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var created *domain.FeedItem
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		feedID, err := s.feeds.GetIDBySlug(txCtx, feedSlug)
		if err != nil {
			return err
		}
		rows, err := s.items.InsertBatch(txCtx, feedID, []domain.ItemInput{in}, now)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		created = &rows[0]
		return s.items.DeleteBeyondWindow(txCtx, feedID, s.maxItems+s.maxArchived)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, feedSlug, created, true)
	s.logger.Info("item created", "feed", feedSlug, "slug", created.Slug)
	return created, nil
}

// Update applies a partial patch to one item. No retention step runs here;
// updates never grow the item set.
func (s *ItemService) Update(ctx context.Context, feedSlug, itemSlug string, patch domain.ItemPatch) (*domain.FeedItem, error) {
	if patch.Empty() {
		return nil, &domain.ValidationError{Field: "patch", Reason: "must contain at least one field"}
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return nil, err
	}
	updated, err := s.items.Update(ctx, feedID, itemSlug, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, feedSlug, updated, false)
	s.logger.Info("item updated", "feed", feedSlug, "slug", itemSlug, "new_slug", updated.Slug)
	return updated, nil
}

func (s *ItemService) Delete(ctx context.Context, feedSlug, itemSlug string) error {
	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, feedID, itemSlug); err != nil {
		return err
	}
	s.logger.Info("item deleted", "feed", feedSlug, "slug", itemSlug)
	return nil
}

// DeleteAll removes every item of the feed and returns the removed count.
// Zero items is not an error.
func (s *ItemService) DeleteAll(ctx context.Context, feedSlug string) (int64, error) {
	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return 0, err
	}
	count, err := s.items.DeleteAll(ctx, feedID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("all items deleted", "feed", feedSlug, "count", count)
	return count, nil
}

// BulkUpsert reconciles the candidate items against the stored set with
// minimal writes. Candidates are classified as inserted, updated or
// unchanged; unchanged items are not written at all, so their timestamps
// stay exactly as stored. The result concatenates the three buckets in that
// order.
func (s *ItemService) BulkUpsert(ctx context.Context, feedSlug string, inputs []domain.ItemInput) ([]domain.FeedItem, error) {
	if len(inputs) > s.maxItems {
		return nil, fmt.Errorf("%w: %d items exceed the cap of %d", domain.ErrPayloadTooLarge, len(inputs), s.maxItems)
	}
	if err := assertSlugUniqueness(inputs); err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	feedID, err := s.feeds.GetIDBySlug(ctx, feedSlug)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return []domain.FeedItem{}, nil
	}

	slugs := make([]string, len(inputs))
	for i, in := range inputs {
		slugs[i] = in.Slug
	}
	existing, err := s.items.GetBySlugs(ctx, feedID, slugs)
	if err != nil {
		return nil, fmt.Errorf("load existing items: %w", err)
	}
	stored := make(map[string]domain.FeedItem, len(existing))
	for _, item := range existing {
		stored[item.Slug] = item
	}

	inDB, toInsert := partition(inputs, func(in domain.ItemInput) bool {
		_, ok := stored[in.Slug]
		return ok
	})
	unchanged, toUpdate := partition(inDB, func(in domain.ItemInput) bool {
		return in.ValueEqual(stored[in.Slug])
	})

	now := time.Now().UTC()
	var inserted, updated []domain.FeedItem
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inserted, err = s.items.InsertBatch(txCtx, feedID, toInsert, now)
		if err != nil {
			return fmt.Errorf("insert new items: %w", err)
		}
		for _, in := range toUpdate {
			row, err := s.items.UpdateFromInput(txCtx, feedID, in, now)
			if err != nil {
				return fmt.Errorf("update item %q: %w", in.Slug, err)
			}
			updated = append(updated, *row)
		}
		return s.items.DeleteBeyondWindow(txCtx, feedID, s.maxItems+s.maxArchived)
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.FeedItem, 0, len(inputs))
	result = append(result, inserted...)
	result = append(result, updated...)
	for _, in := range unchanged {
		result = append(result, stored[in.Slug])
	}

	for i := range inserted {
		s.publish(ctx, feedSlug, &inserted[i], true)
	}
	for i := range updated {
		s.publish(ctx, feedSlug, &updated[i], false)
	}

	s.logger.Info("bulk upsert completed",
		"feed", feedSlug,
		"inserted", len(inserted),
		"updated", len(updated),
		"unchanged", len(unchanged),
	)
	return result, nil
}

// publish emits a change event when a publisher is configured. Event failures
// are logged, never surfaced to the caller.
func (s *ItemService) publish(ctx context.Context, feedSlug string, item *domain.FeedItem, isNew bool) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, feedSlug, item, isNew); err != nil {
		s.logger.Error("failed to publish item event", "feed", feedSlug, "slug", item.Slug, "error", err)
	}
}

func assertSlugUniqueness(inputs []domain.ItemInput) error {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.Slug]; ok {
			return fmt.Errorf("%w: slug %q is not unique among the provided items", domain.ErrConflict, in.Slug)
		}
		seen[in.Slug] = struct{}{}
	}
	return nil
}

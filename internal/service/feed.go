package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedhost/internal/domain"
)

// FeedService implements feed metadata CRUD. It carries no retention logic;
// items are only touched through the cascading delete.
type FeedService struct {
	feeds     FeedStore
	txManager TransactionManager
	logger    *slog.Logger
	publicURL string
}

func NewFeedService(feeds FeedStore, txManager TransactionManager, logger *slog.Logger, publicURL string) *FeedService {
	return &FeedService{
		feeds:     feeds,
		txManager: txManager,
		logger:    logger,
		publicURL: publicURL,
	}
}

func (s *FeedService) List(ctx context.Context) ([]domain.Feed, error) {
	feeds, err := s.feeds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	for i := range feeds {
		feeds[i].Link = FeedLink(s.publicURL, feeds[i].Slug)
	}
	return feeds, nil
}

func (s *FeedService) Get(ctx context.Context, slug string) (*domain.Feed, error) {
	feed, err := s.feeds.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	feed.Link = FeedLink(s.publicURL, feed.Slug)
	return feed, nil
}

// Create inserts a new feed and reads it back in the same transaction.
func (s *FeedService) Create(ctx context.Context, in domain.FeedInput) (*domain.Feed, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var feed *domain.Feed
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.feeds.Create(txCtx, in, now); err != nil {
			return fmt.Errorf("create feed: %w", err)
		}
		created, err := s.feeds.GetBySlug(txCtx, in.Slug)
		if err != nil {
			return fmt.Errorf("read back created feed: %w", err)
		}
		feed = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	feed.Link = FeedLink(s.publicURL, feed.Slug)
	s.logger.Info("feed created", "slug", feed.Slug)
	return feed, nil
}

// Update applies a partial patch. The slug may change; the read-back uses the
// new slug in that case.
func (s *FeedService) Update(ctx context.Context, slug string, patch domain.FeedPatch) (*domain.Feed, error) {
	if patch.Empty() {
		return nil, &domain.ValidationError{Field: "patch", Reason: "must contain at least one field"}
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	readSlug := slug
	if patch.Slug.Defined {
		readSlug = patch.Slug.Value
	}

	now := time.Now().UTC()
	var feed *domain.Feed
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.feeds.Update(txCtx, slug, patch, now); err != nil {
			return err
		}
		updated, err := s.feeds.GetBySlug(txCtx, readSlug)
		if err != nil {
			return fmt.Errorf("read back updated feed: %w", err)
		}
		feed = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	feed.Link = FeedLink(s.publicURL, feed.Slug)
	s.logger.Info("feed updated", "slug", slug, "new_slug", feed.Slug)
	return feed, nil
}

func (s *FeedService) Delete(ctx context.Context, slug string) error {
	if err := s.feeds.Delete(ctx, slug); err != nil {
		return err
	}
	s.logger.Info("feed deleted", "slug", slug)
	return nil
}

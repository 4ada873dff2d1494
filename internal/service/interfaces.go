package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"feedhost/internal/domain"
)

type FeedStore interface {
	List(ctx context.Context) ([]domain.Feed, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Feed, error)
	GetIDBySlug(ctx context.Context, slug string) (int64, error)
	Create(ctx context.Context, in domain.FeedInput, now time.Time) error
	Update(ctx context.Context, slug string, patch domain.FeedPatch, now time.Time) error
	Delete(ctx context.Context, slug string) error
}

type ItemStore interface {
	ListWindow(ctx context.Context, feedID int64, limit, offset int) ([]domain.FeedItem, error)
	GetBySlug(ctx context.Context, feedID int64, slug string) (*domain.FeedItem, error)
	GetBySlugs(ctx context.Context, feedID int64, slugs []string) ([]domain.FeedItem, error)
	InsertBatch(ctx context.Context, feedID int64, inputs []domain.ItemInput, now time.Time) ([]domain.FeedItem, error)
	UpdateFromInput(ctx context.Context, feedID int64, in domain.ItemInput, now time.Time) (*domain.FeedItem, error)
	Update(ctx context.Context, feedID int64, slug string, patch domain.ItemPatch, now time.Time) (*domain.FeedItem, error)
	Delete(ctx context.Context, feedID int64, slug string) error
	DeleteAll(ctx context.Context, feedID int64) (int64, error)
	DeleteBeyondWindow(ctx context.Context, feedID int64, keep int) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, feedSlug string, item *domain.FeedItem, isNew bool) error
	Close() error
}

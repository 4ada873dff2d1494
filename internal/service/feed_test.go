package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feedhost/internal/domain"
	"feedhost/internal/service/mocks"
)

type FeedServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	feeds     *mocks.MockFeedStore
	txManager *mocks.MockTransactionManager

	service *FeedService
	logger  *slog.Logger
}

func (s *FeedServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.feeds = mocks.NewMockFeedStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewFeedService(s.feeds, s.txManager, s.logger, "https://feeds.example.com")
}

func (s *FeedServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFeedServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeedServiceTestSuite))
}

func (s *FeedServiceTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *FeedServiceTestSuite) TestList_SetsComputedLinks() {
	ctx := context.Background()

	s.feeds.EXPECT().List(ctx).Return([]domain.Feed{
		{ID: 1, Slug: "blog", Title: "Blog"},
		{ID: 2, Slug: "news", Title: "News"},
	}, nil)

	feeds, err := s.service.List(ctx)

	s.NoError(err)
	s.Len(feeds, 2)
	s.Equal("https://feeds.example.com/feed/blog", feeds[0].Link)
	s.Equal("https://feeds.example.com/feed/news", feeds[1].Link)
}

func (s *FeedServiceTestSuite) TestGet() {
	ctx := context.Background()

	s.feeds.EXPECT().GetBySlug(ctx, "blog").Return(&domain.Feed{ID: 1, Slug: "blog", Title: "Blog"}, nil)

	feed, err := s.service.Get(ctx, "blog")

	s.NoError(err)
	s.Equal("blog", feed.Slug)
	s.Equal("https://feeds.example.com/feed/blog", feed.Link)
}

func (s *FeedServiceTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	s.feeds.EXPECT().GetBySlug(ctx, "missing").Return(nil, domain.ErrNotFound)

	feed, err := s.service.Get(ctx, "missing")

	s.ErrorIs(err, domain.ErrNotFound)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestCreate() {
	ctx := context.Background()
	in := domain.FeedInput{Slug: "blog", Title: "Blog"}

	s.expectTransaction(ctx)
	s.feeds.EXPECT().Create(ctx, in, gomock.Any()).Return(nil)
	s.feeds.EXPECT().GetBySlug(ctx, "blog").Return(&domain.Feed{ID: 1, Slug: "blog", Title: "Blog"}, nil)

	feed, err := s.service.Create(ctx, in)

	s.NoError(err)
	s.Equal("blog", feed.Slug)
	s.Equal("https://feeds.example.com/feed/blog", feed.Link)
}

func (s *FeedServiceTestSuite) TestCreate_ValidationShortCircuits() {
	ctx := context.Background()

	feed, err := s.service.Create(ctx, domain.FeedInput{Slug: "has spaces", Title: "Blog"})

	var verr *domain.ValidationError
	s.ErrorAs(err, &verr)
	s.Equal("slug", verr.Field)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestCreate_DuplicateSlug() {
	ctx := context.Background()
	in := domain.FeedInput{Slug: "blog", Title: "Blog"}

	s.expectTransaction(ctx)
	s.feeds.EXPECT().Create(ctx, in, gomock.Any()).Return(domain.ErrConflict)

	feed, err := s.service.Create(ctx, in)

	s.ErrorIs(err, domain.ErrConflict)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestUpdate_ReadsBackWithNewSlug() {
	ctx := context.Background()
	patch := domain.FeedPatch{Slug: domain.Set("journal")}

	s.expectTransaction(ctx)
	s.feeds.EXPECT().Update(ctx, "blog", patch, gomock.Any()).Return(nil)
	s.feeds.EXPECT().GetBySlug(ctx, "journal").Return(&domain.Feed{ID: 1, Slug: "journal", Title: "Blog"}, nil)

	feed, err := s.service.Update(ctx, "blog", patch)

	s.NoError(err)
	s.Equal("journal", feed.Slug)
	s.Equal("https://feeds.example.com/feed/journal", feed.Link)
}

func (s *FeedServiceTestSuite) TestUpdate_NotFound() {
	ctx := context.Background()
	patch := domain.FeedPatch{Title: domain.Set("New Title")}

	s.expectTransaction(ctx)
	s.feeds.EXPECT().Update(ctx, "missing", patch, gomock.Any()).Return(domain.ErrNotFound)

	feed, err := s.service.Update(ctx, "missing", patch)

	s.ErrorIs(err, domain.ErrNotFound)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestUpdate_EmptyPatch() {
	ctx := context.Background()

	feed, err := s.service.Update(ctx, "blog", domain.FeedPatch{})

	var verr *domain.ValidationError
	s.ErrorAs(err, &verr)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestDelete() {
	ctx := context.Background()

	s.feeds.EXPECT().Delete(ctx, "blog").Return(nil)

	s.NoError(s.service.Delete(ctx, "blog"))
}

func (s *FeedServiceTestSuite) TestDelete_NotFound() {
	ctx := context.Background()

	s.feeds.EXPECT().Delete(ctx, "missing").Return(domain.ErrNotFound)

	s.ErrorIs(s.service.Delete(ctx, "missing"), domain.ErrNotFound)
}

// Creation timestamps are taken once and shared by created_at and modified_at.
func (s *FeedServiceTestSuite) TestCreate_PassesUTCNow() {
	ctx := context.Background()
	in := domain.FeedInput{Slug: "blog", Title: "Blog"}

	var got time.Time
	s.expectTransaction(ctx)
	s.feeds.EXPECT().Create(ctx, in, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.FeedInput, now time.Time) error {
			got = now
			return nil
		},
	)
	s.feeds.EXPECT().GetBySlug(ctx, "blog").Return(&domain.Feed{Slug: "blog", Title: "Blog"}, nil)

	_, err := s.service.Create(ctx, in)

	s.NoError(err)
	s.Equal(time.UTC, got.Location())
	s.WithinDuration(time.Now(), got, time.Minute)
}

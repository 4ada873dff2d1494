package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feedhost/internal/config"
	"feedhost/internal/domain"
	"feedhost/internal/service/mocks"
)

type ItemServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	feeds     *mocks.MockFeedStore
	items     *mocks.MockItemStore
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher

	service *ItemService
	cfg     config.FeedsConfig
	logger  *slog.Logger
}

func (s *ItemServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.feeds = mocks.NewMockFeedStore(s.ctrl)
	s.items = mocks.NewMockItemStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.FeedsConfig{
		MaxItems:    3,
		MaxArchived: 2,
		PublicURL:   "https://feeds.example.com",
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewItemService(s.feeds, s.items, s.txManager, s.publisher, s.logger, s.cfg)
}

func (s *ItemServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}

func (s *ItemServiceTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func validInput(slug string) domain.ItemInput {
	return domain.ItemInput{
		Slug:  slug,
		Title: "Title of " + slug,
		Date:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Link:  "https://example.com/" + slug,
	}
}

func storedItem(id int64, slug string) domain.FeedItem {
	return domain.FeedItem{
		ID:    id,
		Slug:  slug,
		Title: "Title of " + slug,
		Date:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Link:  "https://example.com/" + slug,
	}
}

func (s *ItemServiceTestSuite) TestActive() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().ListWindow(ctx, int64(7), 3, 0).Return([]domain.FeedItem{storedItem(1, "a")}, nil)

	items, err := s.service.Active(ctx, "blog")

	s.NoError(err)
	s.Len(items, 1)
}

func (s *ItemServiceTestSuite) TestActive_FeedMissing() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "missing").Return(int64(0), domain.ErrNotFound)

	items, err := s.service.Active(ctx, "missing")

	s.ErrorIs(err, domain.ErrNotFound)
	s.Nil(items)
}

func (s *ItemServiceTestSuite) TestAll_TagsWindows() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().ListWindow(ctx, int64(7), 3, 0).Return([]domain.FeedItem{
		storedItem(1, "a"), storedItem(2, "b"), storedItem(3, "c"),
	}, nil)
	s.items.EXPECT().ListWindow(ctx, int64(7), 2, 3).Return([]domain.FeedItem{
		storedItem(4, "d"),
	}, nil)

	all, err := s.service.All(ctx, "blog")

	s.NoError(err)
	s.Len(all, 4)
	s.False(all[0].Archived)
	s.False(all[2].Archived)
	s.True(all[3].Archived)
	s.Equal("d", all[3].Slug)
}

func (s *ItemServiceTestSuite) TestCreate_EvictsBeyondWindow() {
	ctx := context.Background()
	in := validInput("post_1")

	s.expectTransaction(ctx)
	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().InsertBatch(ctx, int64(7), []domain.ItemInput{in}, gomock.Any()).
		Return([]domain.FeedItem{storedItem(10, "post_1")}, nil)
	s.items.EXPECT().DeleteBeyondWindow(ctx, int64(7), 5).Return(nil)
	s.publisher.EXPECT().Publish(ctx, "blog", gomock.Any(), true).Return(nil)

	item, err := s.service.Create(ctx, "blog", in)

	s.NoError(err)
	s.Equal("post_1", item.Slug)
}

func (s *ItemServiceTestSuite) TestCreate_ValidationShortCircuits() {
	ctx := context.Background()

	item, err := s.service.Create(ctx, "blog", domain.ItemInput{Slug: "p"})

	var verr *domain.ValidationError
	s.ErrorAs(err, &verr)
	s.Nil(item)
}

func (s *ItemServiceTestSuite) TestCreate_DuplicateSlug() {
	ctx := context.Background()
	in := validInput("post_1")

	s.expectTransaction(ctx)
	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().InsertBatch(ctx, int64(7), []domain.ItemInput{in}, gomock.Any()).
		Return(nil, domain.ErrConflict)

	item, err := s.service.Create(ctx, "blog", in)

	s.ErrorIs(err, domain.ErrConflict)
	s.Nil(item)
}

func (s *ItemServiceTestSuite) TestUpdate() {
	ctx := context.Background()
	patch := domain.ItemPatch{Title: domain.Set("Renamed")}
	updated := storedItem(10, "post_1")
	updated.Title = "Renamed"

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().Update(ctx, int64(7), "post_1", patch, gomock.Any()).Return(&updated, nil)
	s.publisher.EXPECT().Publish(ctx, "blog", &updated, false).Return(nil)

	item, err := s.service.Update(ctx, "blog", "post_1", patch)

	s.NoError(err)
	s.Equal("Renamed", item.Title)
}

func (s *ItemServiceTestSuite) TestUpdate_EmptyPatch() {
	ctx := context.Background()

	item, err := s.service.Update(ctx, "blog", "post_1", domain.ItemPatch{})

	var verr *domain.ValidationError
	s.ErrorAs(err, &verr)
	s.Nil(item)
}

func (s *ItemServiceTestSuite) TestDelete() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().Delete(ctx, int64(7), "post_1").Return(nil)

	s.NoError(s.service.Delete(ctx, "blog", "post_1"))
}

func (s *ItemServiceTestSuite) TestDeleteAll() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().DeleteAll(ctx, int64(7)).Return(int64(4), nil)

	count, err := s.service.DeleteAll(ctx, "blog")

	s.NoError(err)
	s.Equal(int64(4), count)
}

func (s *ItemServiceTestSuite) TestBulkUpsert_ClassifiesBuckets() {
	ctx := context.Background()

	newIn := validInput("fresh")
	changedIn := validInput("changed")
	changedIn.Title = "Edited"
	sameIn := validInput("same")
	inputs := []domain.ItemInput{newIn, changedIn, sameIn}

	storedChanged := storedItem(1, "changed")
	storedSame := storedItem(2, "same")

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().GetBySlugs(ctx, int64(7), []string{"fresh", "changed", "same"}).
		Return([]domain.FeedItem{storedChanged, storedSame}, nil)

	s.expectTransaction(ctx)
	s.items.EXPECT().InsertBatch(ctx, int64(7), []domain.ItemInput{newIn}, gomock.Any()).
		Return([]domain.FeedItem{storedItem(3, "fresh")}, nil)
	updatedRow := storedItem(1, "changed")
	updatedRow.Title = "Edited"
	s.items.EXPECT().UpdateFromInput(ctx, int64(7), changedIn, gomock.Any()).Return(&updatedRow, nil)
	s.items.EXPECT().DeleteBeyondWindow(ctx, int64(7), 5).Return(nil)

	s.publisher.EXPECT().Publish(ctx, "blog", gomock.Any(), true).Return(nil)
	s.publisher.EXPECT().Publish(ctx, "blog", gomock.Any(), false).Return(nil)

	result, err := s.service.BulkUpsert(ctx, "blog", inputs)

	s.NoError(err)
	s.Len(result, 3)
	// inserted, then updated, then unchanged
	s.Equal("fresh", result[0].Slug)
	s.Equal("changed", result[1].Slug)
	s.Equal("Edited", result[1].Title)
	s.Equal("same", result[2].Slug)
	s.Equal("Title of same", result[2].Title)
}

func (s *ItemServiceTestSuite) TestBulkUpsert_AllUnchangedSkipsWrites() {
	ctx := context.Background()

	sameIn := validInput("same")
	stored := storedItem(2, "same")

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().GetBySlugs(ctx, int64(7), []string{"same"}).
		Return([]domain.FeedItem{stored}, nil)

	s.expectTransaction(ctx)
	s.items.EXPECT().InsertBatch(ctx, int64(7), gomock.Len(0), gomock.Any()).Return(nil, nil)
	s.items.EXPECT().DeleteBeyondWindow(ctx, int64(7), 5).Return(nil)

	result, err := s.service.BulkUpsert(ctx, "blog", []domain.ItemInput{sameIn})

	s.NoError(err)
	s.Len(result, 1)
	s.Equal(stored, result[0])
}

func (s *ItemServiceTestSuite) TestBulkUpsert_PayloadTooLarge() {
	ctx := context.Background()

	inputs := make([]domain.ItemInput, s.cfg.MaxItems+1)
	for i := range inputs {
		inputs[i] = validInput("p" + string(rune('a'+i)))
	}

	result, err := s.service.BulkUpsert(ctx, "blog", inputs)

	s.ErrorIs(err, domain.ErrPayloadTooLarge)
	s.Nil(result)
}

func (s *ItemServiceTestSuite) TestBulkUpsert_DuplicateSlugsInPayload() {
	ctx := context.Background()

	result, err := s.service.BulkUpsert(ctx, "blog", []domain.ItemInput{
		validInput("dup"), validInput("dup"),
	})

	s.ErrorIs(err, domain.ErrConflict)
	s.Nil(result)
}

func (s *ItemServiceTestSuite) TestBulkUpsert_EmptyPayloadStillChecksFeed() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)

	result, err := s.service.BulkUpsert(ctx, "blog", nil)

	s.NoError(err)
	s.Empty(result)
	s.NotNil(result)
}

func (s *ItemServiceTestSuite) TestBulkUpsert_FeedMissing() {
	ctx := context.Background()

	s.feeds.EXPECT().GetIDBySlug(ctx, "missing").Return(int64(0), domain.ErrNotFound)

	result, err := s.service.BulkUpsert(ctx, "missing", []domain.ItemInput{validInput("p")})

	s.ErrorIs(err, domain.ErrNotFound)
	s.Nil(result)
}

func (s *ItemServiceTestSuite) TestPublisherNil() {
	ctx := context.Background()
	in := validInput("post_1")

	service := NewItemService(s.feeds, s.items, s.txManager, nil, s.logger, s.cfg)

	s.expectTransaction(ctx)
	s.feeds.EXPECT().GetIDBySlug(ctx, "blog").Return(int64(7), nil)
	s.items.EXPECT().InsertBatch(ctx, int64(7), []domain.ItemInput{in}, gomock.Any()).
		Return([]domain.FeedItem{storedItem(10, "post_1")}, nil)
	s.items.EXPECT().DeleteBeyondWindow(ctx, int64(7), 5).Return(nil)

	item, err := service.Create(ctx, "blog", in)

	s.NoError(err)
	s.NotNil(item)
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedhost/internal/config"
	"feedhost/internal/domain"
	"feedhost/internal/service"
)

// FeedService is the slice of the feed service the handlers need.
type FeedService interface {
	List(ctx context.Context) ([]domain.Feed, error)
	Create(ctx context.Context, in domain.FeedInput) (*domain.Feed, error)
	Update(ctx context.Context, slug string, patch domain.FeedPatch) (*domain.Feed, error)
	Delete(ctx context.Context, slug string) error
}

// ItemService is the slice of the item service the handlers need.
type ItemService interface {
	Active(ctx context.Context, feedSlug string) ([]domain.FeedItem, error)
	All(ctx context.Context, feedSlug string) ([]domain.ArchivedItem, error)
	Create(ctx context.Context, feedSlug string, in domain.ItemInput) (*domain.FeedItem, error)
	BulkUpsert(ctx context.Context, feedSlug string, inputs []domain.ItemInput) ([]domain.FeedItem, error)
	Update(ctx context.Context, feedSlug, itemSlug string, patch domain.ItemPatch) (*domain.FeedItem, error)
	Delete(ctx context.Context, feedSlug, itemSlug string) error
	DeleteAll(ctx context.Context, feedSlug string) (int64, error)
}

// Renderer serializes a feed into a syndication document.
type Renderer interface {
	Render(ctx context.Context, feedSlug string, format service.Format) (string, error)
}

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger, feeds FeedService, items ItemService, renderer Renderer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(requestMetrics())
	e.Use(middleware.Gzip())

	registerRoutes(e, cfg, feeds, items, renderer)

	return &Server{echo: e, cfg: cfg, logger: logger}
}

func registerRoutes(e *echo.Echo, cfg *config.Config, feeds FeedService, items ItemService, renderer Renderer) {
	auth := apiKeyAuth(cfg.APIKey)

	e.GET("/health", handleHealth())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/feed", handleListFeeds(feeds))
	e.POST("/feed", handleCreateFeed(feeds), auth)
	e.GET("/feed/:feedSlug", handleRenderFeed(renderer))
	e.PATCH("/feed/:feedSlug", handleUpdateFeed(feeds), auth)
	e.DELETE("/feed/:feedSlug", handleDeleteFeed(feeds), auth)

	e.GET("/feed/:feedSlug/items", handleListItems(items))
	e.GET("/feed/:feedSlug/items/all", handleListAllItems(items))
	e.POST("/feed/:feedSlug/items", handleCreateItem(items), auth)
	e.PUT("/feed/:feedSlug/items", handleBulkUpsertItems(items), auth)
	e.PATCH("/feed/:feedSlug/items/:itemSlug", handleUpdateItem(items), auth)
	e.DELETE("/feed/:feedSlug/items/:itemSlug", handleDeleteItem(items), auth)
	e.DELETE("/feed/:feedSlug/items/!all", handleDeleteAllItems(items), auth)
}

func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.cfg.Server.Addr)
	return s.echo.Start(s.cfg.Server.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func handleHealth() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLogger logs one line per completed request. Unexpected errors
// stashed by writeError are logged here with their details; the response
// body only ever carries the opaque message.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if ierr, ok := c.Get(internalErrorKey).(error); ok {
				logger.Error("request failed", append(attrs, "error", ierr)...)
			} else {
				logger.Info("request", attrs...)
			}
			return nil
		}
	}
}

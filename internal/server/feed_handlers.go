package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"feedhost/internal/domain"
	"feedhost/internal/service"
)

func handleListFeeds(feeds FeedService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := feeds.List(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		if list == nil {
			list = []domain.Feed{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

func handleCreateFeed(feeds FeedService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in domain.FeedInput
		if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
			return badRequest(c, "malformed JSON payload")
		}

		feed, err := feeds.Create(c.Request().Context(), in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, feed)
	}
}

func handleRenderFeed(renderer Renderer) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}
		format, err := service.ParseFormat(c.QueryParam("format"))
		if err != nil {
			return writeError(c, err)
		}

		doc, err := renderer.Render(c.Request().Context(), slug, format)
		if err != nil {
			return writeError(c, err)
		}
		return c.Blob(http.StatusOK, format.ContentType(), []byte(doc))
	}
}

func handleUpdateFeed(feeds FeedService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}
		var patch domain.FeedPatch
		if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
			return badRequest(c, "malformed JSON payload")
		}

		feed, err := feeds.Update(c.Request().Context(), slug, patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, feed)
	}
}

func handleDeleteFeed(feeds FeedService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}

		if err := feeds.Delete(c.Request().Context(), slug); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

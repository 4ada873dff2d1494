package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"feedhost/internal/domain"
)

func handleListItems(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}

		list, err := items.Active(c.Request().Context(), slug)
		if err != nil {
			return writeError(c, err)
		}
		if list == nil {
			list = []domain.FeedItem{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

func handleListAllItems(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}

		list, err := items.All(c.Request().Context(), slug)
		if err != nil {
			return writeError(c, err)
		}
		if list == nil {
			list = []domain.ArchivedItem{}
		}
		return c.JSON(http.StatusOK, list)
	}
}

func handleCreateItem(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}
		var in domain.ItemInput
		if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
			return badRequest(c, "malformed JSON payload")
		}

		item, err := items.Create(c.Request().Context(), slug, in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, item)
	}
}

func handleBulkUpsertItems(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}
		var inputs []domain.ItemInput
		if err := json.NewDecoder(c.Request().Body).Decode(&inputs); err != nil {
			return badRequest(c, "malformed JSON payload")
		}

		result, err := items.BulkUpsert(c.Request().Context(), slug, inputs)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func handleUpdateItem(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		feedSlug := c.Param("feedSlug")
		itemSlug := c.Param("itemSlug")
		if err := domain.ValidateSlug("feedSlug", feedSlug); err != nil {
			return writeError(c, err)
		}
		if err := domain.ValidateSlug("itemSlug", itemSlug); err != nil {
			return writeError(c, err)
		}
		var patch domain.ItemPatch
		if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
			return badRequest(c, "malformed JSON payload")
		}

		item, err := items.Update(c.Request().Context(), feedSlug, itemSlug, patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func handleDeleteItem(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		feedSlug := c.Param("feedSlug")
		itemSlug := c.Param("itemSlug")
		if err := domain.ValidateSlug("feedSlug", feedSlug); err != nil {
			return writeError(c, err)
		}
		if err := domain.ValidateSlug("itemSlug", itemSlug); err != nil {
			return writeError(c, err)
		}

		if err := items.Delete(c.Request().Context(), feedSlug, itemSlug); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func handleDeleteAllItems(items ItemService) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("feedSlug")
		if err := domain.ValidateSlug("feedSlug", slug); err != nil {
			return writeError(c, err)
		}

		count, err := items.DeleteAll(c.Request().Context(), slug)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]int64{"count": count})
	}
}

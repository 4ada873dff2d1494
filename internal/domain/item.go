package domain

import (
	"reflect"
	"time"
)

// FeedItem is one dated entry within a feed. Identity is the (feedId, slug)
// pair; the association to the feed is by internal id, so renaming a feed
// keeps its items attached.
type FeedItem struct {
	ID           int64     `json:"id" db:"id"`
	FeedID       int64     `json:"-" db:"feed_id"`
	Slug         string    `json:"slug" db:"slug"`
	Title        string    `json:"title" db:"title"`
	Link         string    `json:"link" db:"link"`
	Date         time.Time `json:"date" db:"date"`
	Description  *string   `json:"description" db:"description"`
	Content      *string   `json:"content" db:"content"`
	Image        *string   `json:"image" db:"image"`
	Authors      []Author  `json:"authors"`
	Contributors []Author  `json:"contributors"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt   time.Time `json:"modifiedAt" db:"modified_at"`
}

// ArchivedItem is a feed item tagged with its window, as returned by the
// combined active+archive listing.
type ArchivedItem struct {
	FeedItem
	Archived bool `json:"archived"`
}

// ItemInput carries the caller-supplied fields of an item create or a bulk
// upsert candidate. Optional fields keep the three-state representation so
// the value-equality check can tell an omitted field from an explicit null.
type ItemInput struct {
	Slug         string             `json:"slug"`
	Title        string             `json:"title"`
	Date         time.Time          `json:"date"`
	Link         string             `json:"link"`
	Description  Optional[string]   `json:"description"`
	Content      Optional[string]   `json:"content"`
	Image        Optional[string]   `json:"image"`
	Authors      Optional[[]Author] `json:"authors"`
	Contributors Optional[[]Author] `json:"contributors"`
}

func (in ItemInput) Validate() error {
	if err := validateSlug("slug", in.Slug); err != nil {
		return err
	}
	if err := validateRequiredString("title", in.Title, TitleMaxLen); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return invalid("date", "must be a valid date")
	}
	if err := validateURL("link", in.Link); err != nil {
		return err
	}
	return validateItemOptionals(in.Description, in.Image, in.Authors, in.Contributors)
}

// ValueEqual reports whether the candidate carries no meaningful change
// against the stored item. Required fields are compared exactly; an optional
// field is only compared when the candidate explicitly supplies it (null or
// value), treating a stored nil as equivalent to an explicit null. List
// fields compare structurally, order-sensitive.
func (in ItemInput) ValueEqual(stored FeedItem) bool {
	if in.Slug != stored.Slug {
		return false
	}
	if in.Title != stored.Title {
		return false
	}
	// timestamptz keeps microseconds; compare at the precision that survives
	// a storage round trip, or identical payloads would never match.
	if !in.Date.Truncate(time.Microsecond).Equal(stored.Date.Truncate(time.Microsecond)) {
		return false
	}
	if in.Link != stored.Link {
		return false
	}
	if in.Description.Defined && !optionalStringEqual(in.Description, stored.Description) {
		return false
	}
	if in.Content.Defined && !optionalStringEqual(in.Content, stored.Content) {
		return false
	}
	if in.Image.Defined && !optionalStringEqual(in.Image, stored.Image) {
		return false
	}
	if in.Authors.Defined && !authorsEqual(in.Authors, stored.Authors) {
		return false
	}
	if in.Contributors.Defined && !authorsEqual(in.Contributors, stored.Contributors) {
		return false
	}
	return true
}

func optionalStringEqual(o Optional[string], stored *string) bool {
	if !o.Valid {
		return stored == nil
	}
	return stored != nil && o.Value == *stored
}

func authorsEqual(o Optional[[]Author], stored []Author) bool {
	if !o.Valid {
		return stored == nil
	}
	return reflect.DeepEqual(o.Value, stored)
}

// ItemPatch carries a partial item update. Slug, title, date and link cannot
// be cleared, only replaced.
type ItemPatch struct {
	Slug         Optional[string]    `json:"slug"`
	Title        Optional[string]    `json:"title"`
	Date         Optional[time.Time] `json:"date"`
	Link         Optional[string]    `json:"link"`
	Description  Optional[string]    `json:"description"`
	Content      Optional[string]    `json:"content"`
	Image        Optional[string]    `json:"image"`
	Authors      Optional[[]Author]  `json:"authors"`
	Contributors Optional[[]Author]  `json:"contributors"`
}

func (p ItemPatch) Validate() error {
	if p.Slug.Defined {
		if !p.Slug.Valid {
			return invalid("slug", "must not be null")
		}
		if err := validateSlug("slug", p.Slug.Value); err != nil {
			return err
		}
	}
	if p.Title.Defined {
		if !p.Title.Valid {
			return invalid("title", "must not be null")
		}
		if err := validateRequiredString("title", p.Title.Value, TitleMaxLen); err != nil {
			return err
		}
	}
	if p.Date.Defined && (!p.Date.Valid || p.Date.Value.IsZero()) {
		return invalid("date", "must be a valid date")
	}
	if p.Link.Defined {
		if !p.Link.Valid {
			return invalid("link", "must not be null")
		}
		if err := validateURL("link", p.Link.Value); err != nil {
			return err
		}
	}
	return validateItemOptionals(p.Description, p.Image, p.Authors, p.Contributors)
}

// Empty reports whether the patch carries no fields at all.
func (p ItemPatch) Empty() bool {
	return !p.Slug.Defined && !p.Title.Defined && !p.Date.Defined &&
		!p.Link.Defined && !p.Description.Defined && !p.Content.Defined &&
		!p.Image.Defined && !p.Authors.Defined && !p.Contributors.Defined
}

func validateItemOptionals(
	description, image Optional[string],
	authors, contributors Optional[[]Author],
) error {
	if description.Valid {
		if err := validateMaxLen("description", description.Value, DescMaxLen); err != nil {
			return err
		}
	}
	if image.Valid {
		if err := validateURL("image", image.Value); err != nil {
			return err
		}
	}
	if authors.Valid {
		for _, a := range authors.Value {
			if err := a.validate("authors"); err != nil {
				return err
			}
		}
	}
	if contributors.Valid {
		for _, a := range contributors.Value {
			if err := a.validate("contributors"); err != nil {
				return err
			}
		}
	}
	return nil
}

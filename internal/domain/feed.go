package domain

import "time"

// Author describes a person attached to a feed or feed item. Every field is
// optional.
type Author struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Link   *string `json:"link,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Feed is a named collection of items rendered as a syndication document.
type Feed struct {
	ID          int64     `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Image       *string   `json:"image" db:"image"`
	Favicon     *string   `json:"favicon" db:"favicon"`
	Language    *string   `json:"language" db:"language"`
	Copyright   *string   `json:"copyright" db:"copyright"`
	Author      *Author   `json:"author"`
	Link        string    `json:"link"` // computed from the public URL, never stored
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt  time.Time `json:"modifiedAt" db:"modified_at"`
	// UpdatedAt is the date of the newest item in the feed, or CreatedAt when
	// the feed is empty. Computed at read time.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FeedInput carries the caller-supplied fields of a feed create call.
type FeedInput struct {
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Description Optional[string] `json:"description"`
	Image       Optional[string] `json:"image"`
	Favicon     Optional[string] `json:"favicon"`
	Language    Optional[string] `json:"language"`
	Copyright   Optional[string] `json:"copyright"`
	Author      Optional[Author] `json:"author"`
}

func (in FeedInput) Validate() error {
	if err := validateSlug("slug", in.Slug); err != nil {
		return err
	}
	if err := validateRequiredString("title", in.Title, TitleMaxLen); err != nil {
		return err
	}
	return validateFeedOptionals(
		in.Description, in.Image, in.Favicon, in.Language, in.Copyright, in.Author,
	)
}

// FeedPatch carries a partial feed update: unset fields keep their stored
// values, null clears optional ones. Slug and Title cannot be cleared.
type FeedPatch struct {
	Slug        Optional[string] `json:"slug"`
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Image       Optional[string] `json:"image"`
	Favicon     Optional[string] `json:"favicon"`
	Language    Optional[string] `json:"language"`
	Copyright   Optional[string] `json:"copyright"`
	Author      Optional[Author] `json:"author"`
}

func (p FeedPatch) Validate() error {
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
	return validateFeedOptionals(
		p.Description, p.Image, p.Favicon, p.Language, p.Copyright, p.Author,
	)
}

// Empty reports whether the patch carries no fields at all.
func (p FeedPatch) Empty() bool {
	return !p.Slug.Defined && !p.Title.Defined && !p.Description.Defined &&
		!p.Image.Defined && !p.Favicon.Defined && !p.Language.Defined &&
		!p.Copyright.Defined && !p.Author.Defined
}

func validateFeedOptionals(
	description, image, favicon, language, copyright Optional[string],
	author Optional[Author],
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
	if favicon.Valid {
		if err := validateURL("favicon", favicon.Value); err != nil {
			return err
		}
	}
	if language.Valid {
		if len(language.Value) < LanguageMinLen || len(language.Value) > LanguageMaxLen {
			return invalid("language", "must be an ISO 639 language or IETF language tag")
		}
	}
	if copyright.Valid {
		if err := validateMaxLen("copyright", copyright.Value, CopyrightMaxLen); err != nil {
			return err
		}
	}
	if author.Valid {
		if err := author.Value.validate("author"); err != nil {
			return err
		}
	}
	return nil
}

func (a Author) validate(field string) error {
	if a.Name != nil {
		if err := validateMaxLen(field+".name", *a.Name, AuthorFieldMaxLen); err != nil {
			return err
		}
	}
	if a.Email != nil {
		if err := validateMaxLen(field+".email", *a.Email, AuthorFieldMaxLen); err != nil {
			return err
		}
	}
	if a.Link != nil {
		if err := validateURL(field+".link", *a.Link); err != nil {
			return err
		}
	}
	if a.Avatar != nil {
		if err := validateURL(field+".avatar", *a.Avatar); err != nil {
			return err
		}
	}
	return nil
}

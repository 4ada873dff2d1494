package service

import (
	"context"
	"fmt"

	"github.com/gorilla/feeds"

	"feedhost/internal/config"
	"feedhost/internal/domain"
)

// Format selects the serialization of a rendered feed document.
type Format string

const (
	FormatAtom Format = "atom"
	FormatRSS  Format = "rss"
	FormatJSON Format = "json"
)

// ParseFormat resolves the format query parameter. An empty value defaults
// to atom.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatAtom, nil
	case FormatAtom, FormatRSS, FormatJSON:
		return Format(s), nil
	default:
		return "", &domain.ValidationError{Field: "format", Reason: "must be one of atom, rss, json"}
	}
}

// ContentType returns the media type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatRSS:
		return "application/rss+xml; charset=utf-8"
	case FormatJSON:
		return "application/feed+json; charset=utf-8"
	default:
		return "application/atom+xml; charset=utf-8"
	}
}

// RenderService turns a stored feed and its active window into a syndication
// document.
type RenderService struct {
	feeds     FeedStore
	items     ItemStore
	publicURL string
	maxItems  int
}

func NewRenderService(feeds FeedStore, items ItemStore, cfg config.FeedsConfig) *RenderService {
	return &RenderService{
		feeds:     feeds,
		items:     items,
		publicURL: cfg.PublicURL,
		maxItems:  cfg.MaxItems,
	}
}

// Render serializes the feed in the requested format and returns the document
// body. Only the active window is included.
func (s *RenderService) Render(ctx context.Context, feedSlug string, format Format) (string, error) {
	feed, err := s.feeds.GetBySlug(ctx, feedSlug)
	if err != nil {
		return "", err
	}
	items, err := s.items.ListWindow(ctx, feed.ID, s.maxItems, 0)
	if err != nil {
		return "", fmt.Errorf("load feed items: %w", err)
	}

	doc := s.buildDocument(feed, items)

	switch format {
	case FormatRSS:
		return doc.ToRss()
	case FormatJSON:
		return doc.ToJSON()
	default:
		return doc.ToAtom()
	}
}

func (s *RenderService) buildDocument(feed *domain.Feed, items []domain.FeedItem) *feeds.Feed {
	doc := &feeds.Feed{
		Id:          feed.Slug,
		Title:       feed.Title,
		Link:        &feeds.Link{Href: FeedLink(s.publicURL, feed.Slug)},
		Description: deref(feed.Description),
		Copyright:   "unspecified",
		Created:     feed.CreatedAt,
		Updated:     feed.UpdatedAt,
	}
	if feed.Copyright != nil {
		doc.Copyright = *feed.Copyright
	}
	if feed.Image != nil {
		doc.Image = &feeds.Image{Url: *feed.Image, Title: feed.Title}
	}
	if feed.Author != nil {
		doc.Author = toFeedsAuthor(*feed.Author)
	}

	for _, item := range items {
		entry := &feeds.Item{
			Id:          item.Slug,
			Title:       item.Title,
			Link:        &feeds.Link{Href: item.Link},
			Description: deref(item.Description),
			Content:     deref(item.Content),
			Created:     item.Date,
			Updated:     item.Date,
		}
		if len(item.Authors) > 0 {
			entry.Author = toFeedsAuthor(item.Authors[0])
		}
		if item.Image != nil {
			entry.Enclosure = &feeds.Enclosure{Url: *item.Image, Type: "image/*", Length: "0"}
		}
		doc.Items = append(doc.Items, entry)
	}
	return doc
}

func toFeedsAuthor(a domain.Author) *feeds.Author {
	return &feeds.Author{Name: deref(a.Name), Email: deref(a.Email)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

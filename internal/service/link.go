package service

import (
	"net/url"
	"strings"
)

// FeedLink builds the externally visible link of a feed from the configured
// public URL. The link is always derived from the current slug, so renaming a
// feed changes it immediately.
func FeedLink(publicURL, feedSlug string) string {
	comp := "feed/" + url.PathEscape(feedSlug)

	base := publicURL
	if u, err := url.Parse(publicURL); err == nil && u.Scheme != "" && u.Host != "" {
		base = u.Scheme + "://" + u.Host + u.Path
	}

	if strings.HasSuffix(base, "/") {
		return base + comp
	}
	return base + "/" + comp
}

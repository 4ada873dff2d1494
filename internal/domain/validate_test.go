package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{name: "simple", slug: "blog"},
		{name: "underscores and digits", slug: "my_feed_42"},
		{name: "empty", slug: "", wantErr: true},
		{name: "hyphen", slug: "my-feed", wantErr: true},
		{name: "dot", slug: "my.feed", wantErr: true},
		{name: "slash", slug: "a/b", wantErr: true},
		{name: "space", slug: "my feed", wantErr: true},
		{name: "at max length", slug: strings.Repeat("a", SlugMaxLen)},
		{name: "over max length", slug: strings.Repeat("a", SlugMaxLen+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug("slug", tt.slug)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "slug", verr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeedInput_Validate(t *testing.T) {
	valid := FeedInput{Slug: "blog", Title: "My Blog"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		in    FeedInput
		field string
	}{
		{name: "missing title", in: FeedInput{Slug: "blog"}, field: "title"},
		{name: "bad slug", in: FeedInput{Slug: "my blog", Title: "t"}, field: "slug"},
		{
			name:  "title too long",
			in:    FeedInput{Slug: "blog", Title: strings.Repeat("t", TitleMaxLen+1)},
			field: "title",
		},
		{
			name:  "description too long",
			in:    FeedInput{Slug: "blog", Title: "t", Description: Set(strings.Repeat("d", DescMaxLen+1))},
			field: "description",
		},
		{
			name:  "relative image url",
			in:    FeedInput{Slug: "blog", Title: "t", Image: Set("/logo.png")},
			field: "image",
		},
		{
			name:  "language too short",
			in:    FeedInput{Slug: "blog", Title: "t", Language: Set("e")},
			field: "language",
		},
		{
			name: "author link invalid",
			in: FeedInput{Slug: "blog", Title: "t", Author: Set(Author{
				Link: strptr("not a url"),
			})},
			field: "author.link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, tt.in.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// explicit nulls on optional fields are fine
	assert.NoError(t, FeedInput{Slug: "blog", Title: "t", Description: Null[string]()}.Validate())
}

func TestFeedPatch_Validate(t *testing.T) {
	assert.NoError(t, FeedPatch{}.Validate())
	assert.True(t, FeedPatch{}.Empty())

	assert.NoError(t, FeedPatch{Title: Set("new title")}.Validate())
	assert.False(t, FeedPatch{Title: Set("new title")}.Empty())

	var verr *ValidationError
	require.ErrorAs(t, FeedPatch{Slug: Null[string]()}.Validate(), &verr)
	assert.Equal(t, "slug", verr.Field)

	require.ErrorAs(t, FeedPatch{Title: Null[string]()}.Validate(), &verr)
	assert.Equal(t, "title", verr.Field)

	// clearing an optional field is allowed
	assert.NoError(t, FeedPatch{Description: Null[string]()}.Validate())
}

func TestItemInput_Validate(t *testing.T) {
	now := time.Now()
	valid := ItemInput{Slug: "post_1", Title: "Post", Date: now, Link: "https://example.com/p/1"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		in    ItemInput
		field string
	}{
		{name: "missing date", in: ItemInput{Slug: "p", Title: "t", Link: "https://example.com"}, field: "date"},
		{name: "missing link", in: ItemInput{Slug: "p", Title: "t", Date: now}, field: "link"},
		{name: "relative link", in: ItemInput{Slug: "p", Title: "t", Date: now, Link: "/p/1"}, field: "link"},
		{name: "bad slug", in: ItemInput{Slug: "p-1", Title: "t", Date: now, Link: "https://example.com"}, field: "slug"},
		{
			name:  "long url",
			in:    ItemInput{Slug: "p", Title: "t", Date: now, Link: "https://example.com/" + strings.Repeat("x", URLMaxLen)},
			field: "link",
		},
		{
			name: "author name too long",
			in: ItemInput{
				Slug: "p", Title: "t", Date: now, Link: "https://example.com",
				Authors: Set([]Author{{Name: strptr(strings.Repeat("n", AuthorFieldMaxLen+1))}}),
			},
			field: "authors.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, tt.in.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestItemPatch_Validate(t *testing.T) {
	assert.NoError(t, ItemPatch{}.Validate())
	assert.True(t, ItemPatch{}.Empty())

	var verr *ValidationError
	require.ErrorAs(t, ItemPatch{Date: Null[time.Time]()}.Validate(), &verr)
	assert.Equal(t, "date", verr.Field)

	require.ErrorAs(t, ItemPatch{Link: Null[string]()}.Validate(), &verr)
	assert.Equal(t, "link", verr.Field)

	assert.NoError(t, ItemPatch{Content: Null[string]()}.Validate())
}

func strptr(s string) *string { return &s }

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"feedhost/internal/domain"
)

type FeedStore struct {
	db *sqlx.DB
}

func NewFeedStore(db *sqlx.DB) *FeedStore {
	return &FeedStore{db: db}
}

// updated_at is derived from the newest item of the feed and is never stored.
const feedSelect = `
	SELECT f.id, f.slug, f.title, f.description, f.image, f.favicon,
		f.language, f.copyright, f.author, f.created_at, f.modified_at,
		COALESCE(
			(SELECT MAX(i.date) FROM feed_items i WHERE i.feed_id = f.id),
			f.created_at
		) AS updated_at
	FROM feeds f`

type feedRow struct {
	ID          int64      `db:"id"`
	Slug        string     `db:"slug"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Image       *string    `db:"image"`
	Favicon     *string    `db:"favicon"`
	Language    *string    `db:"language"`
	Copyright   *string    `db:"copyright"`
	Author      authorJSON `db:"author"`
	CreatedAt   time.Time  `db:"created_at"`
	ModifiedAt  time.Time  `db:"modified_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r feedRow) toDomain() domain.Feed {
	return domain.Feed{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Favicon:     r.Favicon,
		Language:    r.Language,
		Copyright:   r.Copyright,
		Author:      r.Author.Author,
		CreatedAt:   r.CreatedAt,
		ModifiedAt:  r.ModifiedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *FeedStore) List(ctx context.Context) ([]domain.Feed, error) {
	var rows []feedRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, feedSelect+" ORDER BY f.slug")
	if err != nil {
		return nil, err
	}

	feeds := make([]domain.Feed, len(rows))
	for i, r := range rows {
		feeds[i] = r.toDomain()
	}
	return feeds, nil
}

func (s *FeedStore) GetBySlug(ctx context.Context, slug string) (*domain.Feed, error) {
	var row feedRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, feedSelect+" WHERE f.slug = $1", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	feed := row.toDomain()
	return &feed, nil
}

func (s *FeedStore) GetIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, "SELECT id FROM feeds WHERE slug = $1", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Create inserts a new feed from the input with both timestamps set to now.
// A slug collision surfaces as domain.ErrConflict.
func (s *FeedStore) Create(ctx context.Context, in domain.FeedInput, now time.Time) error {
	query := `
		INSERT INTO feeds (
			slug, title, description, image, favicon, language, copyright,
			author, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		in.Slug,
		in.Title,
		in.Description.Ptr(),
		in.Image.Ptr(),
		in.Favicon.Ptr(),
		in.Language.Ptr(),
		in.Copyright.Ptr(),
		authorJSON{Author: in.Author.Ptr()},
		now,
	)
	return mapDBError(err)
}

// Update applies a partial patch: unset fields are left alone, null clears
// optional columns. modified_at is always refreshed.
func (s *FeedStore) Update(ctx context.Context, slug string, patch domain.FeedPatch, now time.Time) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.Slug.Defined {
		set("slug", patch.Slug.Value)
	}
	if patch.Title.Defined {
		set("title", patch.Title.Value)
	}
	if patch.Description.Defined {
		set("description", patch.Description.Ptr())
	}
	if patch.Image.Defined {
		set("image", patch.Image.Ptr())
	}
	if patch.Favicon.Defined {
		set("favicon", patch.Favicon.Ptr())
	}
	if patch.Language.Defined {
		set("language", patch.Language.Ptr())
	}
	if patch.Copyright.Defined {
		set("copyright", patch.Copyright.Ptr())
	}
	if patch.Author.Defined {
		set("author", authorJSON{Author: patch.Author.Ptr()})
	}
	set("modified_at", now)

	args = append(args, slug)
	query := fmt.Sprintf(
		"UPDATE feeds SET %s WHERE slug = $%d",
		strings.Join(sets, ", "), len(args),
	)

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the feed; items follow via the cascading foreign key.
func (s *FeedStore) Delete(ctx context.Context, slug string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM feeds WHERE slug = $1", slug)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

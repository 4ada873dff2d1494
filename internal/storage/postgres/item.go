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
	"github.com/lib/pq"

	"feedhost/internal/domain"
)

type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, feed_id, slug, title, link, date, description,
	content, image, authors, contributors, created_at, modified_at`

type itemRow struct {
	ID           int64       `db:"id"`
	FeedID       int64       `db:"feed_id"`
	Slug         string      `db:"slug"`
	Title        string      `db:"title"`
	Link         string      `db:"link"`
	Date         time.Time   `db:"date"`
	Description  *string     `db:"description"`
	Content      *string     `db:"content"`
	Image        *string     `db:"image"`
	Authors      authorsJSON `db:"authors"`
	Contributors authorsJSON `db:"contributors"`
	CreatedAt    time.Time   `db:"created_at"`
	ModifiedAt   time.Time   `db:"modified_at"`
}

func (r itemRow) toDomain() domain.FeedItem {
	return domain.FeedItem{
		ID:           r.ID,
		FeedID:       r.FeedID,
		Slug:         r.Slug,
		Title:        r.Title,
		Link:         r.Link,
		Date:         r.Date,
		Description:  r.Description,
		Content:      r.Content,
		Image:        r.Image,
		Authors:      r.Authors.Authors,
		Contributors: r.Contributors.Authors,
		CreatedAt:    r.CreatedAt,
		ModifiedAt:   r.ModifiedAt,
	}
}

func itemRowsToDomain(rows []itemRow) []domain.FeedItem {
	items := make([]domain.FeedItem, len(rows))
	for i, r := range rows {
		items[i] = r.toDomain()
	}
	return items
}

// ListWindow returns one window of the feed's items, ranked newest-first with
// lower ids winning ties (the same rank used by eviction).
func (s *ItemStore) ListWindow(ctx context.Context, feedID int64, limit, offset int) ([]domain.FeedItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM feed_items
		WHERE feed_id = $1
		ORDER BY date DESC, id ASC
		LIMIT $2 OFFSET $3`, itemColumns)

	var rows []itemRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, feedID, limit, offset)
	if err != nil {
		return nil, err
	}
	return itemRowsToDomain(rows), nil
}

func (s *ItemStore) GetBySlug(ctx context.Context, feedID int64, slug string) (*domain.FeedItem, error) {
	query := fmt.Sprintf("SELECT %s FROM feed_items WHERE feed_id = $1 AND slug = $2", itemColumns)

	var row itemRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, feedID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	item := row.toDomain()
	return &item, nil
}

// GetBySlugs loads the stored items for exactly the given slugs in one query.
func (s *ItemStore) GetBySlugs(ctx context.Context, feedID int64, slugs []string) ([]domain.FeedItem, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM feed_items WHERE feed_id = $1 AND slug = ANY($2)", itemColumns)

	var rows []itemRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, feedID, pq.Array(slugs))
	if err != nil {
		return nil, err
	}
	return itemRowsToDomain(rows), nil
}

// InsertBatch inserts the inputs with created_at = modified_at = now and
// returns the written rows in input order. A (feed_id, slug) collision
// surfaces as domain.ErrConflict.
func (s *ItemStore) InsertBatch(ctx context.Context, feedID int64, inputs []domain.ItemInput, now time.Time) ([]domain.FeedItem, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO feed_items (
		feed_id, slug, title, link, date, description, content, image,
		authors, contributors, created_at, modified_at
	) VALUES `)

	args := make([]any, 0, len(inputs)*12)
	for i, in := range inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < 12; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i*12+j+1))
		}
		sb.WriteString(")")
		args = append(args,
			feedID,
			in.Slug,
			in.Title,
			in.Link,
			in.Date,
			in.Description.Ptr(),
			in.Content.Ptr(),
			in.Image.Ptr(),
			authorsJSON{Authors: authorsValue(in.Authors)},
			authorsJSON{Authors: authorsValue(in.Contributors)},
			now,
			now,
		)
	}
	sb.WriteString(" RETURNING " + itemColumns)

	var rows []itemRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, sb.String(), args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	return itemRowsToDomain(rows), nil
}

// UpdateFromInput overwrites a stored item with a bulk-upsert candidate:
// required fields are always written, optional fields follow the three-state
// rule, created_at is preserved and modified_at is set to now.
func (s *ItemStore) UpdateFromInput(ctx context.Context, feedID int64, in domain.ItemInput, now time.Time) (*domain.FeedItem, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	set("title", in.Title)
	set("link", in.Link)
	set("date", in.Date)
	if in.Description.Defined {
		set("description", in.Description.Ptr())
	}
	if in.Content.Defined {
		set("content", in.Content.Ptr())
	}
	if in.Image.Defined {
		set("image", in.Image.Ptr())
	}
	if in.Authors.Defined {
		set("authors", authorsJSON{Authors: authorsValue(in.Authors)})
	}
	if in.Contributors.Defined {
		set("contributors", authorsJSON{Authors: authorsValue(in.Contributors)})
	}
	set("modified_at", now)

	return s.updateReturning(ctx, feedID, in.Slug, sets, args)
}

// Update applies a partial patch to a single item. modified_at is always
// refreshed; a slug change colliding within the feed surfaces as
// domain.ErrConflict.
func (s *ItemStore) Update(ctx context.Context, feedID int64, slug string, patch domain.ItemPatch, now time.Time) (*domain.FeedItem, error) {
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
	if patch.Date.Defined {
		set("date", patch.Date.Value)
	}
	if patch.Link.Defined {
		set("link", patch.Link.Value)
	}
	if patch.Description.Defined {
		set("description", patch.Description.Ptr())
	}
	if patch.Content.Defined {
		set("content", patch.Content.Ptr())
	}
	if patch.Image.Defined {
		set("image", patch.Image.Ptr())
	}
	if patch.Authors.Defined {
		set("authors", authorsJSON{Authors: authorsValue(patch.Authors)})
	}
	if patch.Contributors.Defined {
		set("contributors", authorsJSON{Authors: authorsValue(patch.Contributors)})
	}
	set("modified_at", now)

	return s.updateReturning(ctx, feedID, slug, sets, args)
}

func (s *ItemStore) updateReturning(ctx context.Context, feedID int64, slug string, sets []string, args []any) (*domain.FeedItem, error) {
	args = append(args, feedID, slug)
	query := fmt.Sprintf(
		"UPDATE feed_items SET %s WHERE feed_id = $%d AND slug = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), itemColumns,
	)

	var row itemRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapDBError(err)
	}

	item := row.toDomain()
	return &item, nil
}

func (s *ItemStore) Delete(ctx context.Context, feedID int64, slug string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM feed_items WHERE feed_id = $1 AND slug = $2", feedID, slug)
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

func (s *ItemStore) DeleteAll(ctx context.Context, feedID int64) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM feed_items WHERE feed_id = $1", feedID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteBeyondWindow evicts every item of the feed ranked past the retained
// window of keep items, ranking by (date DESC, id ASC). It runs inside the
// same transaction as the insert that triggered it.
func (s *ItemStore) DeleteBeyondWindow(ctx context.Context, feedID int64, keep int) error {
	query := `
		DELETE FROM feed_items
		WHERE feed_id = $1
		AND id NOT IN (
			SELECT id FROM feed_items
			WHERE feed_id = $1
			ORDER BY date DESC, id ASC
			LIMIT $2
		)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, feedID, keep)
	return err
}

func authorsValue(o domain.Optional[[]domain.Author]) []domain.Author {
	if !o.Valid {
		return nil
	}
	return o.Value
}

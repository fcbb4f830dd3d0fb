package comments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenote/carenote/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const threadCols = `id, entry_id, is_resolved, created_at`

func scanThread(row pgx.Row) (*Thread, error) {
	var t Thread
	err := row.Scan(&t.ID, &t.EntryID, &t.IsResolved, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	return &t, err
}

func (r *repoPG) CreateThread(ctx context.Context, t *Thread) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO comment_thread (id, entry_id)
		VALUES ($1, $2)
		RETURNING created_at`,
		t.ID, t.EntryID).Scan(&t.CreatedAt)
}

func (r *repoPG) GetThread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	return scanThread(r.conn(ctx).QueryRow(ctx,
		`SELECT `+threadCols+` FROM comment_thread WHERE id = $1`, id))
}

func (r *repoPG) ListThreadsByEntry(ctx context.Context, entryID uuid.UUID) ([]*Thread, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+threadCols+` FROM comment_thread WHERE entry_id = $1 ORDER BY created_at ASC, id ASC`,
		entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkResolved(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE comment_thread SET is_resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrThreadNotFound
	}
	return nil
}

const commentCols = `id, thread_id, author_id, author_role, content, created_at`

func scanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.AuthorRole, &c.Content, &c.CreatedAt)
	return &c, err
}

func (r *repoPG) CreateComment(ctx context.Context, c *Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO comment (id, thread_id, author_id, author_role, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		c.ID, c.ThreadID, c.AuthorID, c.AuthorRole, c.Content).Scan(&c.CreatedAt)
}

func (r *repoPG) ListCommentsByThread(ctx context.Context, threadID uuid.UUID) ([]*Comment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+commentCols+` FROM comment WHERE thread_id = $1 ORDER BY created_at ASC, id ASC`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

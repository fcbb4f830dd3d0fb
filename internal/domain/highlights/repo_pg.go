package highlights

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

const highlightCols = `id, patient_id, entry_id, created_by, text, risk_reason,
	span_start, span_end, status, created_at`

func scanHighlight(row pgx.Row) (*Highlight, error) {
	var h Highlight
	err := row.Scan(&h.ID, &h.PatientID, &h.EntryID, &h.CreatedBy, &h.Text, &h.RiskReason,
		&h.SpanStart, &h.SpanEnd, &h.Status, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Highlight) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO highlight (id, patient_id, entry_id, created_by, text, risk_reason,
			span_start, span_end, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		h.ID, h.PatientID, h.EntryID, h.CreatedBy, h.Text, h.RiskReason,
		h.SpanStart, h.SpanEnd, h.Status).Scan(&h.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Highlight, error) {
	return scanHighlight(r.conn(ctx).QueryRow(ctx,
		`SELECT `+highlightCols+` FROM highlight WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Highlight, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+highlightCols+` FROM highlight WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM highlight WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE highlight SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

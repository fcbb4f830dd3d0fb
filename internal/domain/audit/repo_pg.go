package audit

import (
	"context"
	"encoding/json"
	"fmt"

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

func (r *repoPG) Append(ctx context.Context, patientID uuid.UUID, actorID *uuid.UUID, action string, meta map[string]any) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit meta: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, patient_id, actor_id, action, meta)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), patientID, actorID, action, metaJSON)
	return err
}

const auditCols = `id, patient_id, actor_id, action, meta, created_at`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	var metaJSON []byte
	if err := row.Scan(&l.ID, &l.PatientID, &l.ActorID, &l.Action, &metaJSON, &l.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaJSON, &l.Meta); err != nil {
		return nil, fmt.Errorf("unmarshal audit meta: %w", err)
	}
	return &l, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+auditCols+` FROM audit_log WHERE patient_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenote/carenote/internal/platform/db"
)

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository { return &entryRepoPG{pool: pool} }

func (r *entryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const entryCols = `id, patient_id, author_id, author_role, type, content,
	provenance_pointer, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.AuthorID, &e.AuthorRole, &e.Type, &e.Content,
		&e.ProvenancePointer, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO entry (id, patient_id, author_id, author_role, type, content, provenance_pointer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.AuthorID, e.AuthorRole, e.Type, e.Content, e.ProvenancePointer).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *entryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM entry WHERE id = $1`, id))
}

func (r *entryRepoPG) LockForEdit(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM entry WHERE id = $1 FOR UPDATE`, id))
}

func (r *entryRepoPG) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE entry SET content = $2, updated_at = NOW() WHERE id = $1`, id, content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *entryRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+` FROM entry WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *entryRepoPG) RecentNonAI(ctx context.Context, patientID uuid.UUID, limit int) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+` FROM entry
		 WHERE patient_id = $1 AND type NOT LIKE 'ai\_%'
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *entryRepoPG) RecentExcludingType(ctx context.Context, patientID uuid.UUID, excludeType string, limit int) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+` FROM entry
		 WHERE patient_id = $1 AND type <> $2
		 ORDER BY created_at DESC, id DESC LIMIT $3`,
		patientID, excludeType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *entryRepoPG) DeleteByPatientAndType(ctx context.Context, patientID uuid.UUID, entryType string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM entry WHERE patient_id = $1 AND type = $2`, patientID, entryType)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *entryRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM entry WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

func collectEntries(rows pgx.Rows) ([]*Entry, error) {
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

type snapshotRepoPG struct{ pool *pgxpool.Pool }

func NewSnapshotRepoPG(pool *pgxpool.Pool) SnapshotRepository { return &snapshotRepoPG{pool: pool} }

func (r *snapshotRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const snapshotCols = `id, entry_id, version, content, changed_by, created_at`

func scanSnapshot(row pgx.Row) (*VersionSnapshot, error) {
	var s VersionSnapshot
	err := row.Scan(&s.ID, &s.EntryID, &s.Version, &s.Content, &s.ChangedBy, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *snapshotRepoPG) Create(ctx context.Context, s *VersionSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO version_snapshot (id, entry_id, version, content, changed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		s.ID, s.EntryID, s.Version, s.Content, s.ChangedBy).Scan(&s.CreatedAt)
}

func (r *snapshotRepoPG) LatestVersion(ctx context.Context, entryID uuid.UUID) (int, error) {
	var v int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM version_snapshot WHERE entry_id = $1`,
		entryID).Scan(&v)
	return v, err
}

func (r *snapshotRepoPG) GetByVersion(ctx context.Context, entryID uuid.UUID, version int) (*VersionSnapshot, error) {
	return scanSnapshot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+snapshotCols+` FROM version_snapshot WHERE entry_id = $1 AND version = $2`,
		entryID, version))
}

func (r *snapshotRepoPG) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*VersionSnapshot, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+snapshotCols+` FROM version_snapshot WHERE entry_id = $1 ORDER BY version DESC`,
		entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*VersionSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

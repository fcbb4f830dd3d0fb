package audit

import (
	"context"

	"github.com/google/uuid"
)

// Recorder is the write-side dependency mutation services take. Append must
// honor an ambient transaction so the audit row commits or rolls back with
// the mutation that produced it.
type Recorder interface {
	Append(ctx context.Context, patientID uuid.UUID, actorID *uuid.UUID, action string, meta map[string]any) error
}

// Repository adds the read-back used by the admin inspection endpoint and by
// tests.
type Repository interface {
	Recorder
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Log, int, error)
}

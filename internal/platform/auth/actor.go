package auth

import (
	"context"

	"github.com/google/uuid"
)

// Roles an authenticated caller may hold. The set is closed; scoping rules in
// the access package switch exhaustively over it.
const (
	RolePatient   = "patient"
	RoleStaff     = "staff"
	RoleClinician = "clinician"
	RoleAdmin     = "admin"
)

// Actor is the authenticated identity attached to every request. PatientID is
// set only for patient-role actors and names the single patient record they
// represent.
type Actor struct {
	UserID    uuid.UUID
	Role      string
	ClinicID  string
	PatientID *uuid.UUID
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor stored in ctx. The second return is
// false when no auth middleware ran for the request.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

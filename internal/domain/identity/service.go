package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, p *Patient) error {
	if actor.Role != auth.RoleAdmin {
		return access.ErrDenied
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	if strings.TrimSpace(p.ClinicID) == "" {
		return fmt.Errorf("clinic_id is required")
	}
	return s.patients.Create(ctx, p)
}

// Get fetches a patient and enforces the actor's clinic/self scope.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CheckPatientScope(actor, p.ID, p.ClinicID); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns patients visible to the actor. Admins see every clinic,
// staff and clinicians only their own; patient-role actors are refused.
func (s *Service) List(ctx context.Context, actor auth.Actor, limit, offset int) ([]*Patient, int, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.patients.List(ctx, limit, offset)
	case auth.RoleStaff, auth.RoleClinician:
		return s.patients.ListByClinic(ctx, actor.ClinicID, limit, offset)
	default:
		return nil, 0, access.ErrDenied
	}
}

package records

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/access"
	"github.com/carenote/carenote/internal/platform/auth"
)

func TestGenerateMockSummary_Body(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	patientID := store.addPatient("clinic-a", "Jo Doe")
	store.addEntry(patientID, auth.RoleStaff, TypeStaffNote, "Patient arrived with a mild headache.")
	store.addEntry(patientID, auth.RoleClinician, TypeClinicianNote, "Prescribed rest and fluids.")

	entry, err := svc.GenerateMockSummary(ctx, clinicianActor("clinic-a"), patientID)
	if err != nil {
		t.Fatalf("GenerateMockSummary: %v", err)
	}

	want := "Patient Summary (Mock AI)\n" +
		"What happened:\n" +
		"- (staff_note) Patient arrived with a mild headache.\n" +
		"- (clinician_note) Prescribed rest and fluids.\n\n" +
		"Next steps:\n- Monitor symptoms\n- Follow clinician advice\n"
	if entry.Content != want {
		t.Errorf("summary body:\n%q\nwant:\n%q", entry.Content, want)
	}

	if entry.Type != TypeAIPatientSessionSummary {
		t.Errorf("type = %q", entry.Type)
	}
	if entry.AuthorID != nil || entry.AuthorRole != AuthorRoleSystem {
		t.Error("summary should be system-authored with no author id")
	}
	if !strings.HasPrefix(entry.ProvenancePointer, "session:") {
		t.Errorf("provenance = %q, want session: prefix", entry.ProvenancePointer)
	}
	if len(entry.ProvenancePointer) != len("session:")+32 {
		t.Errorf("provenance hex id should be 32 chars: %q", entry.ProvenancePointer)
	}

	last := store.audits[len(store.audits)-1]
	if last.Action != "generate_patient_summary_mock" {
		t.Errorf("audit action = %q", last.Action)
	}
	if last.Meta["entry_id"] != entry.ID.String() {
		t.Errorf("audit meta entry_id = %v, want %s", last.Meta["entry_id"], entry.ID)
	}
}

func TestGenerateMockSummary_ReplacesPrior(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	patientID := store.addPatient("clinic-a", "Jo Doe")
	store.addEntry(patientID, auth.RoleStaff, TypeStaffNote, "note")
	actor := clinicianActor("clinic-a")

	first, err := svc.GenerateMockSummary(ctx, actor, patientID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GenerateMockSummary(ctx, actor, patientID)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := store.entries[first.ID]; ok {
		t.Error("prior summary should be deleted on regeneration")
	}
	if _, ok := store.entries[second.ID]; !ok {
		t.Error("new summary missing")
	}

	var summaries int
	for _, e := range store.entries {
		if e.Type == TypeAIPatientSessionSummary {
			summaries++
		}
	}
	if summaries != 1 {
		t.Errorf("expected exactly 1 summary entry, got %d", summaries)
	}
}

func TestGenerateMockSummary_FiveMostRecentOldestFirst(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	patientID := store.addPatient("clinic-a", "Jo Doe")
	for _, n := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		store.addEntry(patientID, auth.RoleStaff, TypeStaffNote, n)
	}

	entry, err := svc.GenerateMockSummary(ctx, clinicianActor("clinic-a"), patientID)
	if err != nil {
		t.Fatal(err)
	}

	var bullets []string
	for _, line := range strings.Split(entry.Content, "\n") {
		if strings.HasPrefix(line, "- (") {
			bullets = append(bullets, line)
		}
	}
	want := []string{
		"- (staff_note) three",
		"- (staff_note) four",
		"- (staff_note) five",
		"- (staff_note) six",
		"- (staff_note) seven",
	}
	if len(bullets) != len(want) {
		t.Fatalf("expected %d bullets, got %d: %v", len(want), len(bullets), bullets)
	}
	for i := range want {
		if bullets[i] != want[i] {
			t.Errorf("bullet[%d] = %q, want %q", i, bullets[i], want[i])
		}
	}
}

func TestGenerateMockSummary_TruncatesBulletsByRune(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	patientID := store.addPatient("clinic-a", "Jo Doe")
	long := strings.Repeat("é", 100)
	store.addEntry(patientID, auth.RoleStaff, TypeStaffNote, long)

	entry, err := svc.GenerateMockSummary(ctx, clinicianActor("clinic-a"), patientID)
	if err != nil {
		t.Fatal(err)
	}
	wantBullet := "- (staff_note) " + strings.Repeat("é", 80)
	if !strings.Contains(entry.Content, wantBullet+"\n") {
		t.Errorf("bullet not truncated to 80 runes:\n%q", entry.Content)
	}
}

func TestGenerateMockSummary_EmptyTimeline(t *testing.T) {
	svc, store := newTestService()
	patientID := store.addPatient("clinic-a", "Jo Doe")

	entry, err := svc.GenerateMockSummary(context.Background(), clinicianActor("clinic-a"), patientID)
	if err != nil {
		t.Fatal(err)
	}
	want := "Patient Summary (Mock AI)\nWhat happened:\n\n\nNext steps:\n- Monitor symptoms\n- Follow clinician advice\n"
	if entry.Content != want {
		t.Errorf("empty-timeline body:\n%q\nwant:\n%q", entry.Content, want)
	}
}

func TestGenerateMockSummary_Scope(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	patientID := store.addPatient("clinic-a", "Jo Doe")

	patient := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient, ClinicID: "clinic-a", PatientID: &patientID}
	if _, err := svc.GenerateMockSummary(ctx, patient, patientID); !errors.Is(err, access.ErrDenied) {
		t.Errorf("patient generating: expected ErrDenied, got %v", err)
	}

	if _, err := svc.GenerateMockSummary(ctx, staffActor("clinic-b"), patientID); !errors.Is(err, access.ErrDenied) {
		t.Errorf("cross-clinic staff: expected ErrDenied, got %v", err)
	}

	if _, err := svc.GenerateMockSummary(ctx, staffActor("clinic-a"), uuid.New()); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: expected ErrPatientNotFound, got %v", err)
	}
}

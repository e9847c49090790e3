package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db/dbtest"
)

func TestReminderRepoPG_ListByPatient(t *testing.T) {
	rx := uuid.New()
	first, second := uuid.New(), uuid.New()
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	q := &dbtest.Querier{Rows: [][]any{
		{first, "p@example.com", "Amoxicillin", "8am", "Pending", &rx, at},
		{second, "p@example.com", "Ibuprofen", "8pm", "Taken", nil, at.Add(time.Second)},
	}}

	items, err := NewReminderRepoPG(q).ListByPatient(context.Background(), "p@example.com")
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if !strings.Contains(q.Last().SQL, "WHERE patient_email = $1 ORDER BY created_at ASC") {
		t.Errorf("unexpected query: %s", q.Last().SQL)
	}
	if len(items) != 2 || items[0].ID != first || items[1].ID != second {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].PrescriptionID != rx || items[0].Status != StatusPending {
		t.Errorf("unexpected first reminder: %+v", items[0])
	}
	if items[1].PrescriptionID != uuid.Nil {
		t.Errorf("null prescription id must scan to uuid.Nil, got %s", items[1].PrescriptionID)
	}
}

func TestReminderRepoPG_CreateWritesNullPrescription(t *testing.T) {
	q := &dbtest.Querier{Tag: "INSERT 0 1"}
	rem := &Reminder{PatientEmail: "p@example.com", Medicine: "A", Dosage: "1", Status: StatusPending}

	if err := NewReminderRepoPG(q).Create(context.Background(), rem); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id, ok := q.Last().Args[5].(*uuid.UUID); !ok || id != nil {
		t.Errorf("expected a nil prescription id argument, got %#v", q.Last().Args[5])
	}
}

func TestReminderRepoPG_GetByIDMissing(t *testing.T) {
	_, err := NewReminderRepoPG(&dbtest.Querier{}).GetByID(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReminderRepoPG_UpdateStatus(t *testing.T) {
	q := &dbtest.Querier{Tag: "UPDATE 0"}
	repo := NewReminderRepoPG(q)

	if err := repo.UpdateStatus(context.Background(), uuid.New(), StatusTaken); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	q.Tag = "UPDATE 1"
	id := uuid.New()
	if err := repo.UpdateStatus(context.Background(), id, StatusMissed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if args := q.Last().Args; args[0] != id || args[1] != StatusMissed {
		t.Errorf("unexpected args: %v", args)
	}
}

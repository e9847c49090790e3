package reminder

import (
	"context"

	"github.com/google/uuid"
)

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	ListByPatient(ctx context.Context, patientEmail string) ([]*Reminder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

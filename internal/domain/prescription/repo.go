package prescription

import (
	"context"

	"github.com/google/uuid"
)

// PrescriptionRepository lists in insertion order (oldest first).
type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByDoctor(ctx context.Context, doctorEmail string) ([]*Prescription, error)
	ListByPatient(ctx context.Context, patientEmail string) ([]*Prescription, error)
	LatestByPatient(ctx context.Context, patientEmail string) (*Prescription, error)
	SetDerivationStatus(ctx context.Context, id uuid.UUID, status DerivationStatus) error
}

package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
)

const (
	msgIDRequired           = "Reminder ID is required"
	msgInvalidID            = "Invalid reminder ID."
	msgNotFound             = "Reminder not found"
	msgPatientEmailRequired = "Patient email is required."
	msgNoPrescription       = "no prescription found"
	msgMismatch             = "mismatch"
	msgCreateFailed         = "create reminders"
	listSeparator           = ","
)

// PrescriptionSource yields the newest prescription of a patient. It returns
// an error matching apperr.ErrNotFound when the patient has none.
type PrescriptionSource interface {
	LatestFor(ctx context.Context, patientEmail string) (*Source, error)
}

type Service struct {
	repo   ReminderRepository
	source PrescriptionSource
	logger zerolog.Logger
}

func NewService(repo ReminderRepository, source PrescriptionSource, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		source: source,
		logger: logger.With().Str("component", "reminder").Logger(),
	}
}

// DeriveFromPrescription writes one Pending reminder per medicine/schedule
// pair of the patient's latest prescription and returns how many it wrote.
// Reminders are written one at a time without rollback, so a failure partway
// leaves the earlier ones in place and the count reports them. Calling it
// twice for the same prescription writes the batch twice.
func (s *Service) DeriveFromPrescription(ctx context.Context, patientEmail string) (int, error) {
	src, err := s.source.LatestFor(ctx, patientEmail)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, apperr.Derivation(msgNoPrescription, err)
	}
	if err != nil {
		return 0, apperr.Derivation("load prescription", err)
	}

	medicines := splitList(src.Medicines)
	doses := splitList(src.Schedule)
	if len(medicines) != len(doses) {
		return 0, apperr.Derivation(msgMismatch,
			fmt.Errorf("%d medicines, %d schedule entries", len(medicines), len(doses)))
	}

	for i := range medicines {
		rem := &Reminder{
			PatientEmail:   patientEmail,
			Medicine:       medicines[i],
			Dosage:         doses[i],
			Status:         StatusPending,
			PrescriptionID: src.PrescriptionID,
		}
		if err := s.repo.Create(ctx, rem); err != nil {
			return i, apperr.Derivation(msgCreateFailed,
				fmt.Errorf("reminder %d of %d (%d written): %w", i+1, len(medicines), i, err))
		}
	}

	s.logger.Debug().
		Str("prescription_id", src.PrescriptionID.String()).
		Int("count", len(medicines)).
		Msg("reminders created")
	return len(medicines), nil
}

func splitList(s string) []string {
	parts := strings.Split(s, listSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (s *Service) ListByPatient(ctx context.Context, patientEmail string) ([]*Reminder, error) {
	if patientEmail == "" {
		return nil, apperr.Validation(msgPatientEmailRequired)
	}
	items, err := s.repo.ListByPatient(ctx, patientEmail)
	if err != nil {
		return nil, apperr.Internal("list reminders", err)
	}
	if items == nil {
		items = []*Reminder{}
	}
	return items, nil
}

// UpdateStatus overwrites the status of reminder id. An empty status means
// Taken; any other value is stored verbatim.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Reminder, error) {
	if id == "" {
		return nil, apperr.Validation(msgIDRequired)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(msgInvalidID)
	}

	next := Status(status)
	if next == "" {
		next = StatusTaken
	}

	rem, err := s.repo.GetByID(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("load reminder", err)
	}

	err = s.repo.UpdateStatus(ctx, uid, next)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("update reminder", err)
	}
	rem.Status = next
	return rem, nil
}

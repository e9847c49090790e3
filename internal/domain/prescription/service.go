package prescription

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/qrcode"
	"github.com/medirx/medirx/internal/platform/validate"
)

const (
	msgAllRequired           = "All fields are required."
	msgDoctorOrPatientAbsent = "Doctor or patient not found."
	msgPatientNameIncorrect  = "Patient name is incorrect."
	msgDoctorEmailRequired   = "Doctor email is required"
	msgPatientEmailRequired  = "Patient email is required."
	msgIDRequired            = "Prescription ID is required"
	msgInvalidID             = "Invalid prescription ID."
	msgNotFound              = "Prescription not found"
	msgNoneForPatient        = "No prescription found for this patient."
	dateLayout               = "2006-01-02"
)

// Directory answers account existence checks.
type Directory interface {
	HasAccount(ctx context.Context, email string, role auth.Role) (bool, error)
	HasUsername(ctx context.Context, username string, role auth.Role) (bool, error)
}

// ReminderDeriver creates reminders from a patient's latest prescription and
// returns how many it wrote.
type ReminderDeriver interface {
	DeriveFromPrescription(ctx context.Context, patientEmail string) (int, error)
}

// ErrorReporter receives failures that are not surfaced to the caller.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

type Service struct {
	repo     PrescriptionRepository
	dir      Directory
	deriver  ReminderDeriver
	qr       qrcode.Encoder
	val      *validate.Validator
	reporter ErrorReporter
	logger   zerolog.Logger
}

func NewService(repo PrescriptionRepository, dir Directory, qr qrcode.Encoder, val *validate.Validator, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		dir:    dir,
		qr:     qr,
		val:    val,
		logger: logger.With().Str("component", "prescription").Logger(),
	}
}

// SetReminderDeriver wires reminder derivation. Without one, prescriptions
// stay pending.
func (s *Service) SetReminderDeriver(d ReminderDeriver) { s.deriver = d }

func (s *Service) SetErrorReporter(r ErrorReporter) { s.reporter = r }

// Create stores a prescription after checking that the doctor, the patient
// email and the patient username all exist, then derives reminders. A failed
// derivation is recorded on the prescription and never returned.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Prescription, error) {
	if err := s.val.Check(req, validate.Messages{Required: msgAllRequired}); err != nil {
		return nil, err
	}

	doctorOK, err := s.dir.HasAccount(ctx, req.DoctorEmail, auth.RoleDoctor)
	if err != nil {
		return nil, apperr.Internal("check doctor", err)
	}
	nameOK, err := s.dir.HasUsername(ctx, req.PatientName, auth.RolePatient)
	if err != nil {
		return nil, apperr.Internal("check patient name", err)
	}
	patientOK, err := s.dir.HasAccount(ctx, req.PatientEmail, auth.RolePatient)
	if err != nil {
		return nil, apperr.Internal("check patient", err)
	}
	if !doctorOK || !patientOK {
		return nil, apperr.NotFound(msgDoctorOrPatientAbsent)
	}
	if !nameOK {
		return nil, apperr.NotFound(msgPatientNameIncorrect)
	}

	p := &Prescription{
		DoctorEmail:      req.DoctorEmail,
		PatientName:      req.PatientName,
		PatientEmail:     req.PatientEmail,
		Medicines:        req.Medicines,
		Schedule:         req.Schedule,
		DerivationStatus: DerivationPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal("create prescription", err)
	}

	s.derive(ctx, p)
	return p, nil
}

func (s *Service) derive(ctx context.Context, p *Prescription) {
	if s.deriver == nil {
		return
	}

	log := s.logger.With().Str("prescription_id", p.ID.String()).Logger()
	status := DerivationComplete
	n, err := s.deriver.DeriveFromPrescription(ctx, p.PatientEmail)
	if err != nil {
		status = DerivationFailed
		log.Error().Err(err).Int("reminders_written", n).Msg("reminder derivation failed")
		if s.reporter != nil {
			s.reporter.CaptureError(ctx, err, map[string]string{
				"component":       "reminder_derivation",
				"prescription_id": p.ID.String(),
			})
		}
	} else {
		log.Info().Int("reminders_written", n).Msg("reminders derived")
	}

	if err := s.repo.SetDerivationStatus(ctx, p.ID, status); err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("record derivation status")
		return
	}
	p.DerivationStatus = status
}

func (s *Service) ListByDoctor(ctx context.Context, doctorEmail string) ([]*Prescription, error) {
	if doctorEmail == "" {
		return nil, apperr.Validation(msgDoctorEmailRequired)
	}
	items, err := s.repo.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, apperr.Internal("list prescriptions", err)
	}
	if items == nil {
		items = []*Prescription{}
	}
	return items, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientEmail string) ([]*Prescription, error) {
	if patientEmail == "" {
		return nil, apperr.Validation(msgPatientEmailRequired)
	}
	items, err := s.repo.ListByPatient(ctx, patientEmail)
	if err != nil {
		return nil, apperr.Internal("list prescriptions", err)
	}
	if items == nil {
		items = []*Prescription{}
	}
	return items, nil
}

// ListPatients summarizes the distinct patients of a doctor in first-seen
// order, naming each from their latest prescription.
func (s *Service) ListPatients(ctx context.Context, doctorEmail string) (*PatientList, error) {
	items, err := s.ListByDoctor(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}

	var order []string
	latest := make(map[string]*Prescription)
	for _, p := range items {
		cur, seen := latest[p.PatientEmail]
		if !seen {
			order = append(order, p.PatientEmail)
		}
		if !seen || !p.CreatedAt.Before(cur.CreatedAt) {
			latest[p.PatientEmail] = p
		}
	}

	out := &PatientList{Patients: make([]PatientSummary, 0, len(order))}
	for _, email := range order {
		p := latest[email]
		out.Patients = append(out.Patients, PatientSummary{
			Name:          p.PatientName,
			Email:         email,
			LastDealtDate: p.CreatedAt.UTC().Format(dateLayout),
		})
	}
	out.TotalPatients = len(out.Patients)
	return out, nil
}

// Latest returns the newest prescription for patientEmail.
func (s *Service) Latest(ctx context.Context, patientEmail string) (*Prescription, error) {
	if patientEmail == "" {
		return nil, apperr.Validation(msgPatientEmailRequired)
	}
	p, err := s.repo.LatestByPatient(ctx, patientEmail)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgNoneForPatient)
	}
	if err != nil {
		return nil, apperr.Internal("latest prescription", err)
	}
	return p, nil
}

// QRCode renders the prescription identified by id as a QR data URL.
func (s *Service) QRCode(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", apperr.Validation(msgIDRequired)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Validation(msgInvalidID)
	}
	p, err := s.repo.GetByID(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return "", apperr.Internal("load prescription", err)
	}
	return s.encode(p)
}

// LatestQRCode renders the patient's newest prescription as a QR data URL.
func (s *Service) LatestQRCode(ctx context.Context, patientEmail string) (string, error) {
	p, err := s.Latest(ctx, patientEmail)
	if err != nil {
		return "", err
	}
	return s.encode(p)
}

func (s *Service) encode(p *Prescription) (string, error) {
	payload, err := json.Marshal(p.qrPayload())
	if err != nil {
		return "", apperr.Internal("marshal qr payload", err)
	}
	url, err := s.qr.DataURL(payload)
	if err != nil {
		return "", apperr.Internal("encode qr code", err)
	}
	return url, nil
}

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/hipaa"
	"github.com/medirx/medirx/internal/platform/validate"
)

const (
	msgPatientEmailRequired = "Patient email is required."
	msgPatientNotFound      = "Patient profile not found"
	msgPatientRequired      = "All fields are required except billing address"
	msgPatientExists        = "Patient profile already exists"
)

var patientMessages = validate.Messages{
	Required: msgPatientRequired,
	Fields: map[string]string{
		"name":          "Name must not be empty.",
		"email":         "Invalid email format.",
		"contactNumber": "Contact number must be 10 to 15 digits.",
		"cardNumber":    "Card number must be 16 digits.",
		"expiryDate":    "Expiry date must be in MM/YY format.",
		"cvv":           "CVV must be 3 or 4 digits.",
	},
}

// PatientService keeps billing data sealed at rest and returns masked views.
type PatientService struct {
	repo   PatientProfileRepository
	phi    *hipaa.FieldEncryptor
	val    *validate.Validator
	logger zerolog.Logger
	now    func() time.Time
}

func NewPatientService(repo PatientProfileRepository, phi *hipaa.FieldEncryptor, val *validate.Validator, logger zerolog.Logger) *PatientService {
	if phi == nil {
		phi = hipaa.Disabled()
	}
	return &PatientService{
		repo:   repo,
		phi:    phi,
		val:    val,
		logger: logger.With().Str("component", "patient_profile").Logger(),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *PatientService) Get(ctx context.Context, email string) (*PatientView, error) {
	p, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	return p.view(), nil
}

func (s *PatientService) Create(ctx context.Context, req CreatePatientRequest) (*PatientView, error) {
	if err := s.val.Check(req, patientMessages); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, apperr.Conflict(msgPatientExists)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal("check patient profile", err)
	}

	now := s.now()
	p := &PatientProfile{
		Name:          req.Name,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		PaymentInfo: PaymentInfo{
			CardNumber:     req.PaymentInfo.CardNumber,
			ExpiryDate:     req.PaymentInfo.ExpiryDate,
			CVV:            req.PaymentInfo.CVV,
			BillingAddress: req.PaymentInfo.BillingAddress,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, p, s.repo.Create); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict(msgPatientExists)
		}
		return nil, apperr.Internal("create patient profile", err)
	}

	s.logger.Info().
		Str("profile_id", p.ID.String()).
		Bool("phi_encrypted", s.phi.Enabled()).
		Msg("patient profile created")
	return p.view(), nil
}

func (s *PatientService) Update(ctx context.Context, email string, patch PatientPatch) (*PatientView, error) {
	if err := s.val.Check(patch, patientMessages); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	setIf(&p.Name, patch.Name)
	setIf(&p.ContactNumber, patch.ContactNumber)
	if pi := patch.PaymentInfo; pi != nil {
		setIf(&p.PaymentInfo.CardNumber, pi.CardNumber)
		setIf(&p.PaymentInfo.ExpiryDate, pi.ExpiryDate)
		setIf(&p.PaymentInfo.CVV, pi.CVV)
		setIf(&p.PaymentInfo.BillingAddress, pi.BillingAddress)
	}
	p.UpdatedAt = s.now()

	err = s.save(ctx, p, s.repo.Update)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("update patient profile", err)
	}
	return p.view(), nil
}

// load returns the profile with billing fields opened.
func (s *PatientService) load(ctx context.Context, email string) (*PatientProfile, error) {
	if email == "" {
		return nil, apperr.Validation(msgPatientEmailRequired)
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("get patient profile", err)
	}

	if p.PaymentInfo.CardNumber, err = s.phi.Open(p.PaymentInfo.CardNumber); err != nil {
		return nil, apperr.Internal("open card number", err)
	}
	if p.PaymentInfo.CVV, err = s.phi.Open(p.PaymentInfo.CVV); err != nil {
		return nil, apperr.Internal("open cvv", err)
	}
	return p, nil
}

// save seals the billing fields of a copy of p and hands it to write. p keeps
// its plaintext and receives the id the repository assigns.
func (s *PatientService) save(ctx context.Context, p *PatientProfile, write func(context.Context, *PatientProfile) error) error {
	sealed := *p
	var err error
	if sealed.PaymentInfo.CardNumber, err = s.phi.Seal(p.PaymentInfo.CardNumber); err != nil {
		return fmt.Errorf("seal card number: %w", err)
	}
	if sealed.PaymentInfo.CVV, err = s.phi.Seal(p.PaymentInfo.CVV); err != nil {
		return fmt.Errorf("seal cvv: %w", err)
	}
	if err := write(ctx, &sealed); err != nil {
		return err
	}
	p.ID = sealed.ID
	return nil
}

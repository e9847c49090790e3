package profile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/validate"
)

const (
	msgDoctorEmailRequired = "Doctor email is required"
	msgDoctorNotFound      = "Doctor not found"
	msgDoctorRequired      = "All fields are required except bio"
	msgDoctorExists        = "Doctor profile already exists"
)

type DoctorService struct {
	repo   DoctorProfileRepository
	val    *validate.Validator
	logger zerolog.Logger
	now    func() time.Time
}

func NewDoctorService(repo DoctorProfileRepository, val *validate.Validator, logger zerolog.Logger) *DoctorService {
	return &DoctorService{
		repo:   repo,
		val:    val,
		logger: logger.With().Str("component", "doctor_profile").Logger(),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *DoctorService) Get(ctx context.Context, email string) (*DoctorProfile, error) {
	if email == "" {
		return nil, apperr.Validation(msgDoctorEmailRequired)
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgDoctorNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("get doctor profile", err)
	}
	return p, nil
}

func (s *DoctorService) Create(ctx context.Context, req CreateDoctorRequest) (*DoctorProfile, error) {
	if err := s.val.Check(req, validate.Messages{Required: msgDoctorRequired}); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, apperr.Conflict(msgDoctorExists)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Internal("check doctor profile", err)
	}

	now := s.now()
	p := &DoctorProfile{
		Email:          req.Email,
		Name:           req.Name,
		Specialization: req.Specialization,
		Hospital:       req.Hospital,
		ContactNumber:  req.ContactNumber,
		Bio:            req.Bio,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict(msgDoctorExists)
		}
		return nil, apperr.Internal("create doctor profile", err)
	}

	s.logger.Info().Str("profile_id", p.ID.String()).Msg("doctor profile created")
	return p, nil
}

// Update applies the non-nil fields of patch and refreshes UpdatedAt.
func (s *DoctorService) Update(ctx context.Context, email string, patch DoctorPatch) (*DoctorProfile, error) {
	p, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	patch.apply(p)
	p.UpdatedAt = s.now()

	err = s.repo.Update(ctx, p)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound(msgDoctorNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("update doctor profile", err)
	}
	return p, nil
}

package profile

import "context"

type DoctorProfileRepository interface {
	Create(ctx context.Context, p *DoctorProfile) error
	GetByEmail(ctx context.Context, email string) (*DoctorProfile, error)
	// Update writes every mutable field of the profile matched by Email.
	Update(ctx context.Context, p *DoctorProfile) error
}

type PatientProfileRepository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByEmail(ctx context.Context, email string) (*PatientProfile, error)
	Update(ctx context.Context, p *PatientProfile) error
}

package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

// -- Doctor profiles --

type doctorRepoPG struct{ q db.Querier }

func NewDoctorRepoPG(q db.Querier) DoctorProfileRepository {
	return &doctorRepoPG{q: q}
}

const doctorCols = `id, email, name, specialization, hospital, contact_number, bio, created_at, updated_at`

func (r *doctorRepoPG) scanRow(row pgx.Row) (*DoctorProfile, error) {
	var p DoctorProfile
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Specialization, &p.Hospital,
		&p.ContactNumber, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *doctorRepoPG) Create(ctx context.Context, p *DoctorProfile) error {
	p.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO doctor_profiles (`+doctorCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Email, p.Name, p.Specialization, p.Hospital,
		p.ContactNumber, p.Bio, p.CreatedAt, p.UpdatedAt)
	return db.TranslatePG("insert doctor profile", err)
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*DoctorProfile, error) {
	p, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profiles WHERE email = $1`, email))
	if err != nil {
		return nil, db.TranslatePG("get doctor profile", err)
	}
	return p, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, p *DoctorProfile) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE doctor_profiles
		SET name = $2, specialization = $3, hospital = $4, contact_number = $5, bio = $6, updated_at = $7
		WHERE email = $1`,
		p.Email, p.Name, p.Specialization, p.Hospital, p.ContactNumber, p.Bio, p.UpdatedAt)
	if err != nil {
		return db.TranslatePG("update doctor profile", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// -- Patient profiles --

type patientRepoPG struct{ q db.Querier }

func NewPatientRepoPG(q db.Querier) PatientProfileRepository {
	return &patientRepoPG{q: q}
}

const patientCols = `id, email, name, contact_number, card_number, expiry_date, cvv,
	billing_address, created_at, updated_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*PatientProfile, error) {
	var p PatientProfile
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.ContactNumber,
		&p.PaymentInfo.CardNumber, &p.PaymentInfo.ExpiryDate, &p.PaymentInfo.CVV,
		&p.PaymentInfo.BillingAddress, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO patient_profiles (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Email, p.Name, p.ContactNumber,
		p.PaymentInfo.CardNumber, p.PaymentInfo.ExpiryDate, p.PaymentInfo.CVV,
		p.PaymentInfo.BillingAddress, p.CreatedAt, p.UpdatedAt)
	return db.TranslatePG("insert patient profile", err)
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*PatientProfile, error) {
	p, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+patientCols+` FROM patient_profiles WHERE email = $1`, email))
	if err != nil {
		return nil, db.TranslatePG("get patient profile", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *PatientProfile) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE patient_profiles
		SET name = $2, contact_number = $3, card_number = $4, expiry_date = $5,
			cvv = $6, billing_address = $7, updated_at = $8
		WHERE email = $1`,
		p.Email, p.Name, p.ContactNumber,
		p.PaymentInfo.CardNumber, p.PaymentInfo.ExpiryDate, p.PaymentInfo.CVV,
		p.PaymentInfo.BillingAddress, p.UpdatedAt)
	if err != nil {
		return db.TranslatePG("update patient profile", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

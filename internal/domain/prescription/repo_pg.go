package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

type prescriptionRepoPG struct{ q db.Querier }

func NewPrescriptionRepoPG(q db.Querier) PrescriptionRepository {
	return &prescriptionRepoPG{q: q}
}

const rxCols = `id, doctor_email, patient_name, patient_email, medicines, schedule,
	derivation_status, created_at`

func (r *prescriptionRepoPG) scanRow(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DoctorEmail, &p.PatientName, &p.PatientEmail,
		&p.Medicines, &p.Schedule, &p.DerivationStatus, &p.CreatedAt)
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if p.DerivationStatus == "" {
		p.DerivationStatus = DerivationPending
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO prescriptions (id, doctor_email, patient_name, patient_email,
			medicines, schedule, derivation_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.DoctorEmail, p.PatientName, p.PatientEmail,
		p.Medicines, p.Schedule, p.DerivationStatus, p.CreatedAt)
	return db.TranslatePG("insert prescription", err)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, db.TranslatePG("get prescription", err)
	}
	return p, nil
}

func (r *prescriptionRepoPG) list(ctx context.Context, op, where, arg string) ([]*Prescription, error) {
	rows, err := r.q.Query(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE `+where+` = $1 ORDER BY created_at ASC`, arg)
	if err != nil {
		return nil, db.TranslatePG(op, err)
	}
	defer rows.Close()

	items := []*Prescription{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, db.TranslatePG(op, err)
		}
		items = append(items, p)
	}
	return items, db.TranslatePG(op, rows.Err())
}

func (r *prescriptionRepoPG) ListByDoctor(ctx context.Context, doctorEmail string) ([]*Prescription, error) {
	return r.list(ctx, "list prescriptions by doctor", "doctor_email", doctorEmail)
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientEmail string) ([]*Prescription, error) {
	return r.list(ctx, "list prescriptions by patient", "patient_email", patientEmail)
}

func (r *prescriptionRepoPG) LatestByPatient(ctx context.Context, patientEmail string) (*Prescription, error) {
	p, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions
		WHERE patient_email = $1 ORDER BY created_at DESC LIMIT 1`, patientEmail))
	if err != nil {
		return nil, db.TranslatePG("latest prescription", err)
	}
	return p, nil
}

func (r *prescriptionRepoPG) SetDerivationStatus(ctx context.Context, id uuid.UUID, status DerivationStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE prescriptions SET derivation_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return db.TranslatePG("set derivation status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

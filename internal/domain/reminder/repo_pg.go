package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

type reminderRepoPG struct{ q db.Querier }

func NewReminderRepoPG(q db.Querier) ReminderRepository {
	return &reminderRepoPG{q: q}
}

const reminderCols = `id, patient_email, medicine, dosage, status, prescription_id, created_at`

func (r *reminderRepoPG) scanRow(row pgx.Row) (*Reminder, error) {
	var (
		rem Reminder
		rx  *uuid.UUID
	)
	err := row.Scan(&rem.ID, &rem.PatientEmail, &rem.Medicine, &rem.Dosage,
		&rem.Status, &rx, &rem.CreatedAt)
	if rx != nil {
		rem.PrescriptionID = *rx
	}
	return &rem, err
}

func (r *reminderRepoPG) Create(ctx context.Context, rem *Reminder) error {
	rem.ID = uuid.New()
	rem.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := r.q.Exec(ctx, `
		INSERT INTO reminders (id, patient_email, medicine, dosage, status, prescription_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rem.ID, rem.PatientEmail, rem.Medicine, rem.Dosage, rem.Status,
		nullableID(rem.PrescriptionID), rem.CreatedAt)
	return db.TranslatePG("insert reminder", err)
}

func (r *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	rem, err := r.scanRow(r.q.QueryRow(ctx, `SELECT `+reminderCols+` FROM reminders WHERE id = $1`, id))
	if err != nil {
		return nil, db.TranslatePG("get reminder", err)
	}
	return rem, nil
}

func (r *reminderRepoPG) ListByPatient(ctx context.Context, patientEmail string) ([]*Reminder, error) {
	rows, err := r.q.Query(ctx, `SELECT `+reminderCols+` FROM reminders
		WHERE patient_email = $1 ORDER BY created_at ASC`, patientEmail)
	if err != nil {
		return nil, db.TranslatePG("list reminders", err)
	}
	defer rows.Close()

	items := []*Reminder{}
	for rows.Next() {
		rem, err := r.scanRow(rows)
		if err != nil {
			return nil, db.TranslatePG("list reminders", err)
		}
		items = append(items, rem)
	}
	return items, db.TranslatePG("list reminders", rows.Err())
}

func (r *reminderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.q.Exec(ctx, `UPDATE reminders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return db.TranslatePG("update reminder status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

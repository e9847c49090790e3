package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Status is stored as given; the API does not restrict it to the values below.
type Status string

const (
	StatusPending Status = "Pending"
	StatusTaken   Status = "Taken"
	StatusMissed  Status = "Missed"
)

// Reminder is one dose derived from a prescription: Dosage is the schedule
// entry paired with Medicine.
type Reminder struct {
	ID             uuid.UUID `json:"id"`
	PatientEmail   string    `json:"patientEmail"`
	Medicine       string    `json:"medicine"`
	Dosage         string    `json:"dosage"`
	Status         Status    `json:"status"`
	PrescriptionID uuid.UUID `json:"prescriptionId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Source is the part of a prescription that reminders are derived from.
type Source struct {
	PrescriptionID uuid.UUID
	PatientEmail   string
	Medicines      string
	Schedule       string
}

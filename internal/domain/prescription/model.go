package prescription

import (
	"time"

	"github.com/google/uuid"
)

// DerivationStatus records whether reminders were derived for a prescription.
type DerivationStatus string

const (
	DerivationPending  DerivationStatus = "pending"
	DerivationComplete DerivationStatus = "complete"
	DerivationFailed   DerivationStatus = "failed"
)

// Prescription is immutable once written apart from DerivationStatus.
// Medicines and Schedule are comma-delimited lists paired by position.
type Prescription struct {
	ID               uuid.UUID        `json:"id"`
	DoctorEmail      string           `json:"doctorEmail"`
	PatientName      string           `json:"patientName"`
	PatientEmail     string           `json:"patientEmail"`
	Medicines        string           `json:"medicines"`
	Schedule         string           `json:"schedule"`
	DerivationStatus DerivationStatus `json:"derivationStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type CreateRequest struct {
	DoctorEmail  string `json:"doctorEmail" validate:"required"`
	PatientName  string `json:"patientName" validate:"required"`
	PatientEmail string `json:"patientEmail" validate:"required"`
	Medicines    string `json:"medicines" validate:"required"`
	Schedule     string `json:"schedule" validate:"required"`
}

// PatientSummary is one row of a doctor's patient list.
type PatientSummary struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	LastDealtDate string `json:"lastDealtDate"`
}

type PatientList struct {
	TotalPatients int              `json:"totalPatients"`
	Patients      []PatientSummary `json:"patients"`
}

// qrPayload is the JSON encoded into prescription QR codes. Field order is
// part of the payload contract.
type qrPayload struct {
	DoctorEmail  string `json:"doctorEmail"`
	PatientEmail string `json:"patientEmail"`
	Medicines    string `json:"medicines"`
	Schedule     string `json:"schedule"`
}

func (p *Prescription) qrPayload() qrPayload {
	return qrPayload{
		DoctorEmail:  p.DoctorEmail,
		PatientEmail: p.PatientEmail,
		Medicines:    p.Medicines,
		Schedule:     p.Schedule,
	}
}

package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/medirx/medirx/internal/platform/hipaa"
)

type DoctorProfile struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Hospital       string    `json:"hospital"`
	ContactNumber  string    `json:"contactNumber"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateDoctorRequest struct {
	Email          string `json:"email" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Hospital       string `json:"hospital" validate:"required"`
	ContactNumber  string `json:"contactNumber" validate:"required"`
	Bio            string `json:"bio"`
}

// DoctorPatch holds the fields a doctor may change. Nil fields are left alone.
type DoctorPatch struct {
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Hospital       *string `json:"hospital"`
	ContactNumber  *string `json:"contactNumber"`
	Bio            *string `json:"bio"`
}

func (p DoctorPatch) apply(d *DoctorProfile) {
	setIf(&d.Name, p.Name)
	setIf(&d.Specialization, p.Specialization)
	setIf(&d.Hospital, p.Hospital)
	setIf(&d.ContactNumber, p.ContactNumber)
	setIf(&d.Bio, p.Bio)
}

// PaymentInfo is stored with CardNumber and CVV sealed when PHI encryption
// is enabled.
type PaymentInfo struct {
	CardNumber     string
	ExpiryDate     string
	CVV            string
	BillingAddress string
}

type PatientProfile struct {
	ID            uuid.UUID
	Name          string
	Email         string
	ContactNumber string
	PaymentInfo   PaymentInfo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PatientView is the response shape of a patient profile. The card number is
// masked and the CVV is never included.
type PatientView struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	ContactNumber string      `json:"contactNumber"`
	PaymentInfo   PaymentView `json:"paymentInfo"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type PaymentView struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	BillingAddress string `json:"billingAddress"`
}

// view expects p to hold the opened (plaintext) card number.
func (p *PatientProfile) view() *PatientView {
	return &PatientView{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		ContactNumber: p.ContactNumber,
		PaymentInfo: PaymentView{
			CardNumber:     hipaa.MaskCardNumber(p.PaymentInfo.CardNumber),
			ExpiryDate:     p.PaymentInfo.ExpiryDate,
			BillingAddress: p.PaymentInfo.BillingAddress,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type CreatePatientRequest struct {
	Name          string             `json:"name" validate:"required"`
	Email         string             `json:"email" validate:"required,email"`
	ContactNumber string             `json:"contactNumber" validate:"required,numeric,min=10,max=15"`
	PaymentInfo   PaymentInfoRequest `json:"paymentInfo"`
}

type PaymentInfoRequest struct {
	CardNumber     string `json:"cardNumber" validate:"required,numeric,len=16"`
	ExpiryDate     string `json:"expiryDate" validate:"required,mmyy"`
	CVV            string `json:"cvv" validate:"required,numeric,min=3,max=4"`
	BillingAddress string `json:"billingAddress"`
}

type PatientPatch struct {
	Name          *string       `json:"name" validate:"omitempty,min=1"`
	ContactNumber *string       `json:"contactNumber" validate:"omitempty,numeric,min=10,max=15"`
	PaymentInfo   *PaymentPatch `json:"paymentInfo"`
}

type PaymentPatch struct {
	CardNumber     *string `json:"cardNumber" validate:"omitempty,numeric,len=16"`
	ExpiryDate     *string `json:"expiryDate" validate:"omitempty,mmyy"`
	CVV            *string `json:"cvv" validate:"omitempty,numeric,min=3,max=4"`
	BillingAddress *string `json:"billingAddress"`
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

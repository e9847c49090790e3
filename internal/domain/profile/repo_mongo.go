package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

// -- Doctor profiles --

type doctorDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	Name           string    `bson:"name"`
	Specialization string    `bson:"specialization"`
	Hospital       string    `bson:"hospital"`
	ContactNumber  string    `bson:"contactNumber"`
	Bio            string    `bson:"bio"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

type doctorRepoMongo struct{ coll *mongo.Collection }

func NewDoctorRepoMongo(database *mongo.Database) DoctorProfileRepository {
	return &doctorRepoMongo{coll: database.Collection(db.CollDoctorProfiles)}
}

func (r *doctorRepoMongo) Create(ctx context.Context, p *DoctorProfile) error {
	p.ID = uuid.New()
	_, err := r.coll.InsertOne(ctx, doctorDoc{
		ID:             p.ID.String(),
		Email:          p.Email,
		Name:           p.Name,
		Specialization: p.Specialization,
		Hospital:       p.Hospital,
		ContactNumber:  p.ContactNumber,
		Bio:            p.Bio,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
	return db.TranslateMongo("insert doctor profile", err)
}

func (r *doctorRepoMongo) GetByEmail(ctx context.Context, email string) (*DoctorProfile, error) {
	var d doctorDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&d); err != nil {
		return nil, db.TranslateMongo("get doctor profile", err)
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("doctor profile %q: %w", d.ID, err)
	}
	return &DoctorProfile{
		ID:             id,
		Email:          d.Email,
		Name:           d.Name,
		Specialization: d.Specialization,
		Hospital:       d.Hospital,
		ContactNumber:  d.ContactNumber,
		Bio:            d.Bio,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

func (r *doctorRepoMongo) Update(ctx context.Context, p *DoctorProfile) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "email", Value: p.Email}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: p.Name},
		{Key: "specialization", Value: p.Specialization},
		{Key: "hospital", Value: p.Hospital},
		{Key: "contactNumber", Value: p.ContactNumber},
		{Key: "bio", Value: p.Bio},
		{Key: "updatedAt", Value: p.UpdatedAt},
	}}})
	if err != nil {
		return db.TranslateMongo("update doctor profile", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// -- Patient profiles --

type paymentDoc struct {
	CardNumber     string `bson:"cardNumber"`
	ExpiryDate     string `bson:"expiryDate"`
	CVV            string `bson:"cvv"`
	BillingAddress string `bson:"billingAddress"`
}

type patientDoc struct {
	ID            string     `bson:"_id"`
	Name          string     `bson:"name"`
	Email         string     `bson:"email"`
	ContactNumber string     `bson:"contactNumber"`
	PaymentInfo   paymentDoc `bson:"paymentInfo"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}

type patientRepoMongo struct{ coll *mongo.Collection }

func NewPatientRepoMongo(database *mongo.Database) PatientProfileRepository {
	return &patientRepoMongo{coll: database.Collection(db.CollPatientProfiles)}
}

func (r *patientRepoMongo) Create(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	_, err := r.coll.InsertOne(ctx, patientDoc{
		ID:            p.ID.String(),
		Name:          p.Name,
		Email:         p.Email,
		ContactNumber: p.ContactNumber,
		PaymentInfo:   paymentDoc(p.PaymentInfo),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
	return db.TranslateMongo("insert patient profile", err)
}

func (r *patientRepoMongo) GetByEmail(ctx context.Context, email string) (*PatientProfile, error) {
	var d patientDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&d); err != nil {
		return nil, db.TranslateMongo("get patient profile", err)
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("patient profile %q: %w", d.ID, err)
	}
	return &PatientProfile{
		ID:            id,
		Name:          d.Name,
		Email:         d.Email,
		ContactNumber: d.ContactNumber,
		PaymentInfo:   PaymentInfo(d.PaymentInfo),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (r *patientRepoMongo) Update(ctx context.Context, p *PatientProfile) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "email", Value: p.Email}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: p.Name},
		{Key: "contactNumber", Value: p.ContactNumber},
		{Key: "paymentInfo", Value: paymentDoc(p.PaymentInfo)},
		{Key: "updatedAt", Value: p.UpdatedAt},
	}}})
	if err != nil {
		return db.TranslateMongo("update patient profile", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

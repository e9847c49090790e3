package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/db"
)

type prescriptionDoc struct {
	ID               string    `bson:"_id"`
	DoctorEmail      string    `bson:"doctorEmail"`
	PatientName      string    `bson:"patientName"`
	PatientEmail     string    `bson:"patientEmail"`
	Medicines        string    `bson:"medicines"`
	Schedule         string    `bson:"schedule"`
	DerivationStatus string    `bson:"derivationStatus"`
	CreatedAt        time.Time `bson:"createdAt"`
}

func (d *prescriptionDoc) toPrescription() (*Prescription, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("prescription %q: %w", d.ID, err)
	}
	return &Prescription{
		ID:               id,
		DoctorEmail:      d.DoctorEmail,
		PatientName:      d.PatientName,
		PatientEmail:     d.PatientEmail,
		Medicines:        d.Medicines,
		Schedule:         d.Schedule,
		DerivationStatus: DerivationStatus(d.DerivationStatus),
		CreatedAt:        d.CreatedAt,
	}, nil
}

type prescriptionRepoMongo struct{ coll *mongo.Collection }

func NewPrescriptionRepoMongo(database *mongo.Database) PrescriptionRepository {
	return &prescriptionRepoMongo{coll: database.Collection(db.CollPrescriptions)}
}

func (r *prescriptionRepoMongo) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if p.DerivationStatus == "" {
		p.DerivationStatus = DerivationPending
	}
	_, err := r.coll.InsertOne(ctx, prescriptionDoc{
		ID:               p.ID.String(),
		DoctorEmail:      p.DoctorEmail,
		PatientName:      p.PatientName,
		PatientEmail:     p.PatientEmail,
		Medicines:        p.Medicines,
		Schedule:         p.Schedule,
		DerivationStatus: string(p.DerivationStatus),
		CreatedAt:        p.CreatedAt,
	})
	return db.TranslateMongo("insert prescription", err)
}

func (r *prescriptionRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var d prescriptionDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&d); err != nil {
		return nil, db.TranslateMongo("get prescription", err)
	}
	return d.toPrescription()
}

func (r *prescriptionRepoMongo) list(ctx context.Context, op string, filter bson.D) ([]*Prescription, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, db.TranslateMongo(op, err)
	}
	defer cur.Close(ctx)

	items := []*Prescription{}
	for cur.Next(ctx) {
		var d prescriptionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, db.TranslateMongo(op, err)
		}
		p, err := d.toPrescription()
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, db.TranslateMongo(op, cur.Err())
}

func (r *prescriptionRepoMongo) ListByDoctor(ctx context.Context, doctorEmail string) ([]*Prescription, error) {
	return r.list(ctx, "list prescriptions by doctor", bson.D{{Key: "doctorEmail", Value: doctorEmail}})
}

func (r *prescriptionRepoMongo) ListByPatient(ctx context.Context, patientEmail string) ([]*Prescription, error) {
	return r.list(ctx, "list prescriptions by patient", bson.D{{Key: "patientEmail", Value: patientEmail}})
}

func (r *prescriptionRepoMongo) LatestByPatient(ctx context.Context, patientEmail string) (*Prescription, error) {
	var d prescriptionDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := r.coll.FindOne(ctx, bson.D{{Key: "patientEmail", Value: patientEmail}}, opts).Decode(&d); err != nil {
		return nil, db.TranslateMongo("latest prescription", err)
	}
	return d.toPrescription()
}

func (r *prescriptionRepoMongo) SetDerivationStatus(ctx context.Context, id uuid.UUID, status DerivationStatus) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "derivationStatus", Value: string(status)}}}})
	if err != nil {
		return db.TranslateMongo("set derivation status", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

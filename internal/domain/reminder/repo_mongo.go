package reminder

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

type reminderDoc struct {
	ID             string    `bson:"_id"`
	PatientEmail   string    `bson:"patientEmail"`
	Medicine       string    `bson:"medicine"`
	Dosage         string    `bson:"dosage"`
	Status         string    `bson:"status"`
	PrescriptionID string    `bson:"prescriptionId,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func (d *reminderDoc) toReminder() (*Reminder, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("reminder %q: %w", d.ID, err)
	}
	rem := &Reminder{
		ID:           id,
		PatientEmail: d.PatientEmail,
		Medicine:     d.Medicine,
		Dosage:       d.Dosage,
		Status:       Status(d.Status),
		CreatedAt:    d.CreatedAt,
	}
	if d.PrescriptionID != "" {
		if rem.PrescriptionID, err = uuid.Parse(d.PrescriptionID); err != nil {
			return nil, fmt.Errorf("reminder %q prescription: %w", d.ID, err)
		}
	}
	return rem, nil
}

type reminderRepoMongo struct{ coll *mongo.Collection }

func NewReminderRepoMongo(database *mongo.Database) ReminderRepository {
	return &reminderRepoMongo{coll: database.Collection(db.CollReminders)}
}

func (r *reminderRepoMongo) Create(ctx context.Context, rem *Reminder) error {
	rem.ID = uuid.New()
	rem.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc := reminderDoc{
		ID:           rem.ID.String(),
		PatientEmail: rem.PatientEmail,
		Medicine:     rem.Medicine,
		Dosage:       rem.Dosage,
		Status:       string(rem.Status),
		CreatedAt:    rem.CreatedAt,
	}
	if rem.PrescriptionID != uuid.Nil {
		doc.PrescriptionID = rem.PrescriptionID.String()
	}
	_, err := r.coll.InsertOne(ctx, doc)
	return db.TranslateMongo("insert reminder", err)
}

func (r *reminderRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	var d reminderDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&d); err != nil {
		return nil, db.TranslateMongo("get reminder", err)
	}
	return d.toReminder()
}

func (r *reminderRepoMongo) ListByPatient(ctx context.Context, patientEmail string) ([]*Reminder, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "patientEmail", Value: patientEmail}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, db.TranslateMongo("list reminders", err)
	}
	defer cur.Close(ctx)

	var docs []reminderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, db.TranslateMongo("list reminders", err)
	}
	items := make([]*Reminder, 0, len(docs))
	for i := range docs {
		rem, err := docs[i].toReminder()
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, nil
}

func (r *reminderRepoMongo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: string(status)}}}})
	if err != nil {
		return db.TranslateMongo("update reminder status", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

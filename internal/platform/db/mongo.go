package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by the Mongo repositories.
const (
	CollAccounts        = "accounts"
	CollPrescriptions   = "prescriptions"
	CollReminders       = "reminders"
	CollDoctorProfiles  = "doctor_profiles"
	CollPatientProfiles = "patient_profiles"
)

const mongoConnectTimeout = 10 * time.Second

// NewMongo connects, pings the primary and returns the client with the named
// database handle.
func NewMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(applicationName))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, client.Database(database), nil
}

// IndexSpec is one index to ensure on a collection.
type IndexSpec struct {
	Collection string
	Keys       bson.D
	Unique     bool
}

// Indexes mirrors the unique constraints and lookup indexes of the SQL schema.
var Indexes = []IndexSpec{
	{CollAccounts, bson.D{{Key: "email", Value: 1}}, true},
	{CollAccounts, bson.D{{Key: "username", Value: 1}}, true},
	{CollPrescriptions, bson.D{{Key: "doctorEmail", Value: 1}, {Key: "createdAt", Value: 1}}, false},
	{CollPrescriptions, bson.D{{Key: "patientEmail", Value: 1}, {Key: "createdAt", Value: -1}}, false},
	{CollReminders, bson.D{{Key: "patientEmail", Value: 1}}, false},
	{CollDoctorProfiles, bson.D{{Key: "email", Value: 1}}, true},
	{CollPatientProfiles, bson.D{{Key: "email", Value: 1}}, true},
}

// EnsureIndexes creates every index in Indexes. Creating an existing index is
// a no-op on the server.
func EnsureIndexes(ctx context.Context, database *mongo.Database) (int, error) {
	for i, spec := range Indexes {
		model := mongo.IndexModel{
			Keys:    spec.Keys,
			Options: options.Index().SetUnique(spec.Unique),
		}
		if _, err := database.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return i, fmt.Errorf("ensure index on %s: %w", spec.Collection, err)
		}
	}
	return len(Indexes), nil
}

// MongoPinger adapts a mongo client to the Pinger used by HealthHandler.
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/db"
)

type accountDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"userType"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d *accountDoc) toAccount() (*Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", d.ID, err)
	}
	return &Account{
		ID:           id,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         auth.Role(d.Role),
		CreatedAt:    d.CreatedAt,
	}, nil
}

type accountRepoMongo struct{ coll *mongo.Collection }

func NewAccountRepoMongo(database *mongo.Database) AccountRepository {
	return &accountRepoMongo{coll: database.Collection(db.CollAccounts)}
}

func (r *accountRepoMongo) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, accountDoc{
		ID:           a.ID.String(),
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
	})
	return db.TranslateMongo("insert account", err)
}

func (r *accountRepoMongo) findOne(ctx context.Context, op string, filter bson.D) (*Account, error) {
	var d accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, db.TranslateMongo(op, err)
	}
	return d.toAccount()
}

func (r *accountRepoMongo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, "get account by email", bson.D{{Key: "email", Value: email}})
}

func (r *accountRepoMongo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.findOne(ctx, "get account by username", bson.D{{Key: "username", Value: username}})
}

func (r *accountRepoMongo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "password", Value: hash}}}})
	if err != nil {
		return db.TranslateMongo("update password", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

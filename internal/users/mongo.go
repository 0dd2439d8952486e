package users

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cognibank/cognibank/internal/models"
)

// MongoDirectory implements Directory on a MongoDB collection. Multi-record
// writes run inside a session transaction, so the deployment must be a
// replica set for Update/Modify to work.
type MongoDirectory struct {
	col            *mongo.Collection
	initialBalance int64
}

func NewMongoDirectory(col *mongo.Collection, initialBalance int64) *MongoDirectory {
	return &MongoDirectory{col: col, initialBalance: initialBalance}
}

func (d *MongoDirectory) Create(ctx context.Context, u *models.User) error {
	if _, err := d.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, u.ID)
		}
		return err
	}
	return nil
}

func (d *MongoDirectory) Update(ctx context.Context, users ...*models.User) error {
	return d.inTransaction(ctx, func(sc mongo.SessionContext) error {
		return d.replaceAll(sc, users)
	})
}

func (d *MongoDirectory) Modify(ctx context.Context, ids []string, fn func(users []*models.User) error) error {
	return d.inTransaction(ctx, func(sc mongo.SessionContext) error {
		loaded := make([]*models.User, len(ids))
		for i, id := range ids {
			var u models.User
			if err := d.col.FindOne(sc, bson.M{"_id": id}).Decode(&u); err != nil {
				if err == mongo.ErrNoDocuments {
					return fmt.Errorf("%w: %s", ErrNotFound, id)
				}
				return err
			}
			loaded[i] = &u
		}
		if err := fn(loaded); err != nil {
			return err
		}
		return d.replaceAll(sc, loaded)
	})
}

func (d *MongoDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *MongoDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.findOne(ctx, bson.M{"email": email})
}

func (d *MongoDirectory) CreateFromSignUp(ctx context.Context, email string, extra json.RawMessage) (*models.User, error) {
	u, err := newUserFromSignUp(email, extra, d.initialBalance)
	if err != nil {
		return nil, err
	}
	if err := d.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (d *MongoDirectory) MeInfo(u *models.User) models.MeInfo { return meInfo(u) }

func (d *MongoDirectory) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := d.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (d *MongoDirectory) replaceAll(sc mongo.SessionContext, users []*models.User) error {
	for _, u := range users {
		res, err := d.col.ReplaceOne(sc, bson.M{"_id": u.ID}, u)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, u.ID)
		}
	}
	return nil
}

func (d *MongoDirectory) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := d.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Skotchmaster/auth_backend/internal/models"
)

// Collection names match the ones the previous deployment wrote, so an
// existing database can be served as is.
const (
	usersCollection  = "users"
	tokensCollection = "accesstokens"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Login     string             `bson:"login"`
	Password  string             `bson:"password"`
	LoginType string             `bson:"login_type"`
}

type tokenDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Token   string             `bson:"token"`
	Expires time.Time          `bson:"expires"`
	User    primitive.ObjectID `bson:"user"`
}

type MongoRepo struct {
	client *mongo.Client
	users  *mongo.Collection
	tokens *mongo.Collection
}

func NewMongoRepo(ctx context.Context, client *mongo.Client, database *mongo.Database) (*MongoRepo, error) {
	r := &MongoRepo{
		client: client,
		users:  database.Collection(usersCollection),
		tokens: database.Collection(tokensCollection),
	}

	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("create users index: %w", err)
	}
	if _, err := r.tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create accesstokens indexes: %w", err)
	}

	return r, nil
}

func (r *MongoRepo) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"login": login}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.model(), nil
}

func (r *MongoRepo) CreateUser(ctx context.Context, u *models.User) error {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Login:     u.Login,
		Password:  u.Password,
		LoginType: string(u.LoginType),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepo) CreateToken(ctx context.Context, t *models.AccessToken) error {
	userID, err := primitive.ObjectIDFromHex(t.UserID)
	if err != nil {
		return fmt.Errorf("user id %q: %w", t.UserID, err)
	}
	doc := tokenDoc{
		ID:      primitive.NewObjectID(),
		Token:   t.Token,
		Expires: t.Expires.UTC(),
		User:    userID,
	}
	if _, err := r.tokens.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	t.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepo) FindActiveToken(ctx context.Context, token string, now time.Time) (*models.AccessToken, error) {
	var doc tokenDoc
	filter := bson.M{"token": token, "expires": bson.M{"$gt": now.UTC()}}
	if err := r.tokens.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var owner userDoc
	if err := r.users.FindOne(ctx, bson.M{"_id": doc.User}).Decode(&owner); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &models.AccessToken{
		ID:      doc.ID.Hex(),
		Token:   doc.Token,
		Expires: doc.Expires,
		UserID:  doc.User.Hex(),
		User:    owner.model(),
	}, nil
}

func (r *MongoRepo) ExtendToken(ctx context.Context, id string, expires time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("token id %q: %w", id, err)
	}
	res, err := r.tokens.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"expires": expires.UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) DeleteTokens(ctx context.Context, f TokenFilter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	filter := bson.M{"token": f.Token}
	if f.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(f.UserID)
		if err != nil {
			return 0, fmt.Errorf("user id %q: %w", f.UserID, err)
		}
		filter = bson.M{"user": oid}
	}
	res, err := r.tokens.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:        d.ID.Hex(),
		Login:     d.Login,
		Password:  d.Password,
		LoginType: models.LoginType(d.LoginType),
	}
}

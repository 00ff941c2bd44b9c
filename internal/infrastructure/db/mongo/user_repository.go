package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tourismsite/tourism/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	usersCounterID     = "users"

	emailIndexName    = "users_email_key"
	duplicateKeyError = 11000
)

// UserRepository stores users as documents with integer ids allocated from a
// counter document, so ids keep the shape of the relational store.
type UserRepository struct {
	db       *mongo.Database
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		db:       db,
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID        int64  `bson:"_id"`
	Username  string `bson:"username"`
	Email     string `bson:"email"`
	Password  string `bson:"password"`
	CreatedAt int64  `bson:"created_at"`
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:        mu.ID,
		Username:  mu.Username,
		Email:     mu.Email,
		Password:  mu.Password,
		CreatedAt: unixToTime(mu.CreatedAt),
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find user by email", bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "find user by id", bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewStoreError(op, err)
	}
	return mu.toDomain(), nil
}

// Insert allocates the next id and inserts the user. The unique index on
// email turns a concurrent duplicate into domain.ErrEmailExists.
func (r *UserRepository) Insert(ctx context.Context, username, email, password string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return 0, domain.NewStoreError("allocate user id", err)
	}

	doc := mongoUser{
		ID:        id,
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC().Unix(),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if isEmailConflict(err) {
			return 0, domain.ErrEmailExists
		}
		return 0, domain.NewStoreError("insert user", err)
	}
	return id, nil
}

// isEmailConflict reports a duplicate key on the email index. Duplicates on
// any other key (e.g. _id after a counter reset) are store failures.
func isEmailConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCodeWithMessage(duplicateKeyError, emailIndexName)
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": usersCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return counter.Seq, nil
}

// EnsureIndexes creates the unique email index on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	return err
}

func (r *UserRepository) Name() string { return "mongodb" }

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

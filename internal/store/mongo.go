package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasktrack/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the document store.
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d userDocument) toUser() types.User {
	return types.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Priority    string             `bson:"priority"`
	Status      string             `bson:"status"`
	UserID      primitive.ObjectID `bson:"userId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toTask() types.Task {
	return types.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Priority:    types.Priority(d.Priority),
		Status:      types.Status(d.Status),
		UserID:      d.UserID.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// EnsureMongoIndexes creates the unique email index on users and the
// owner index on tasks. It is safe to call repeatedly.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = db.Collection(TasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("tasks_owner_created"),
	})
	if err != nil {
		return fmt.Errorf("create tasks index: %w", err)
	}
	return nil
}

// MongoUserRepository handles persistence for users in MongoDB.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    mongoNow(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}
	return doc.toUser(), nil
}

// Ping reports whether the deployment is reachable.
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

// MongoTaskRepository handles persistence for tasks in MongoDB. Every filter
// except insertion includes the owner.
type MongoTaskRepository struct {
	coll *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{coll: db.Collection(TasksCollection)}
}

func (r *MongoTaskRepository) ListByOwner(ctx context.Context, userID string) ([]types.Task, error) {
	tasks := make([]types.Task, 0)
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return tasks, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.toTask())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepository) GetByOwner(ctx context.Context, id, userID string) (types.Task, error) {
	filter, ok := ownerFilter(id, userID)
	if !ok {
		return types.Task{}, ErrNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return doc.toTask(), nil
}

func (r *MongoTaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	owner, err := primitive.ObjectIDFromHex(task.UserID)
	if err != nil {
		return types.Task{}, fmt.Errorf("invalid owner id %q", task.UserID)
	}

	now := mongoNow()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		UserID:      owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return types.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return doc.toTask(), nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	filter, ok := ownerFilter(task.ID, task.UserID)
	if !ok {
		return types.Task{}, ErrNotFound
	}
	task.UpdatedAt = mongoNow()

	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"priority":    string(task.Priority),
		"status":      string(task.Status),
		"updatedAt":   task.UpdatedAt,
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return types.Task{}, err
	}
	if result.MatchedCount == 0 {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id, userID string) error {
	filter, ok := ownerFilter(id, userID)
	if !ok {
		return ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoNow matches the millisecond precision of BSON datetimes so returned
// records equal what a later read yields.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func ownerFilter(id, userID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": owner}, true
}

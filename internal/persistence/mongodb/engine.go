package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Notification struct {
	Id        bson.ObjectID `bson:"_id"`
	UserId    string        `bson:"userId"`
	Type      string        `bson:"type"`
	Message   string        `bson:"message"`
	Read      bool          `bson:"read"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (n Notification) toDomain() notification.Notification {
	return notification.Notification{
		Id:        n.Id.Hex(),
		UserId:    n.UserId,
		Type:      notification.Type(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

type PersistenceEngine struct {
	collection *mongo.Collection
	retention  time.Duration
}

func NewPersistenceEngine(client *mongo.Client, database string, retention time.Duration) *PersistenceEngine {
	collection := client.Database(database).Collection("notifications")

	return &PersistenceEngine{
		collection,
		retention,
	}
}

// ValidateRetention rejects retentions the TTL index cannot express. Zero would expire
// documents as soon as the TTL monitor runs.
func ValidateRetention(retention time.Duration) error {
	if retention < time.Second {
		return errors.New("retention must be at least one second")
	}

	if retention.Seconds() > math.MaxInt32 {
		return fmt.Errorf("retention must not exceed %d seconds", math.MaxInt32)
	}

	return nil
}

func (e *PersistenceEngine) Setup(ctx context.Context) error {
	if err := ValidateRetention(e.retention); err != nil {
		return err
	}

	ttlIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(e.retention.Seconds())),
	}

	userIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	}

	_, err := e.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{ttlIndexModel, userIndexModel})

	return err
}

func (e *PersistenceEngine) Save(ctx context.Context, request persistence.SaveRequest) (notification.Notification, error) {
	document := Notification{
		Id:        bson.NewObjectID(),
		UserId:    request.UserId,
		Type:      string(request.Type),
		Message:   request.Message,
		CreatedAt: time.Now().UTC(),
	}

	_, err := e.collection.InsertOne(ctx, document)
	if err != nil {
		return notification.Notification{}, err
	}

	return document.toDomain(), nil
}

func (e *PersistenceEngine) List(ctx context.Context, userId string, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = persistence.DefaultListLimit
	}

	filter := bson.M{
		"userId": userId,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	result, err := e.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var documents []Notification
	err = result.All(ctx, &documents)
	if err != nil {
		return nil, err
	}

	return lo.Map(documents, func(document Notification, _ int) notification.Notification {
		return document.toDomain()
	}), nil
}

func (e *PersistenceEngine) MarkAllRead(ctx context.Context, userId string) (int64, error) {
	filter := bson.M{
		"userId": userId,
		"read":   false,
	}
	update := bson.M{
		"$set": bson.M{"read": true},
	}

	result, err := e.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}

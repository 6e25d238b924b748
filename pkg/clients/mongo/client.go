package mongo

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"form-intake/pkg/models"
)

const disconnectTimeout = 5 * time.Second

// Client defines the interface for keeping user records in a MongoDB collection
type Client interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// userDocument keys the document by the record ID.
type userDocument struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	Email     string `bson:"email"`
	Mobile    string `bson:"mobile"`
	Checkbox1 bool   `bson:"checkbox1"`
}

type clientImpl struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewClient connects to MongoDB and verifies the connection with a ping
func NewClient(ctx context.Context, uri, database, collection string) (Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}

	log.WithField("prefix", "mongo").
		WithField("database", database).
		WithField("collection", collection).
		Info("mongo client ready")

	return &clientImpl{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Put replaces the document with the record's ID, inserting it if absent.
func (c *clientImpl) Put(ctx context.Context, rec models.UserRecord) error {
	doc := userDocument{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Mobile:    rec.Mobile,
		Checkbox1: rec.Checkbox1,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := c.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, opts); err != nil {
		return fmt.Errorf("error upserting document: %w", err)
	}
	return nil
}

func (c *clientImpl) Count(ctx context.Context) (int64, error) {
	n, err := c.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return n, nil
}

func (c *clientImpl) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

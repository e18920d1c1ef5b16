package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

const messageName = "messages"

// MessageDatabase contains the methods to use with the message database
type MessageDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error)
	InsertOne(ctx context.Context, msg models.Message) error
	InsertMany(ctx context.Context, msgs []models.Message) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (c *messageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error) {
	var msgs []models.Message
	curr, err := c.db.Collection(messageName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &msgs)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *messageDatabase) InsertOne(ctx context.Context, msg models.Message) error {
	_, err := c.db.Collection(messageName).InsertOne(ctx, msg)
	return err
}

func (c *messageDatabase) InsertMany(ctx context.Context, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		docs = append(docs, m)
	}
	return c.db.Collection(messageName).InsertMany(ctx, docs)
}

// UpdateOne returns the number of matched documents
func (c *messageDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(messageName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c *messageDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(messageName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "sentAt", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "sentAt", Value: 1}}},
	})
}

package databases

// go generate: mockery --name ConversationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

const conversationName = "conversations"

// ConversationDatabase contains the methods to use with the conversation database
type ConversationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ConversationRecord, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ConversationRecord, error)
	InsertMany(ctx context.Context, records []models.ConversationRecord) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error
	EnsureIndexes(ctx context.Context) error
}

type conversationDatabase struct {
	db DatabaseHelper
}

// NewConversationDatabase initializes a new instance of conversation database with the provided db connection
func NewConversationDatabase(db DatabaseHelper) ConversationDatabase {
	return &conversationDatabase{
		db: db,
	}
}

func (c *conversationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ConversationRecord, error) {
	conv := &models.ConversationRecord{}
	err := c.db.Collection(conversationName).FindOne(ctx, filter, opts...).Decode(&conv)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *conversationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ConversationRecord, error) {
	var convs []models.ConversationRecord
	curr, err := c.db.Collection(conversationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &convs)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *conversationDatabase) InsertMany(ctx context.Context, records []models.ConversationRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, r := range records {
		docs = append(docs, r)
	}
	return c.db.Collection(conversationName).InsertMany(ctx, docs)
}

// UpdateOne returns the number of matched documents
func (c *conversationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(conversationName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c *conversationDatabase) Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error {
	curr, err := c.db.Collection(conversationName).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer curr.Close(ctx)
	return curr.All(ctx, results)
}

func (c *conversationDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(conversationName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clinician.id", Value: 1}}},
		{Keys: bson.D{{Key: "patient.id", Value: 1}}},
	})
}

package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/databases"
	"github.com/linesmerrill/clinic-messaging-api/databases/mocks"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

func TestNewMessageDatabase(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	assert.NotEmpty(t, databases.NewMessageDatabase(db))
	assert.NotEmpty(t, databases.NewConversationDatabase(db))
}

func TestMessageDatabase_Find(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Message)
		*arg = []models.Message{{ID: "mocked-message"}}
	})
	cursorHelper.(*mocks.CursorHelper).On("Close", context.Background()).Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	// Create new database with mocked Database interface
	msgDba := databases.NewMessageDatabase(dbHelper)

	msgs, err := msgDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, msgs)
	assert.EqualError(t, err, "mocked-error")

	msgs, err = msgDba.Find(context.Background(), bson.M{"error": false})

	assert.Equal(t, []models.Message{{ID: "mocked-message"}}, msgs)
	assert.NoError(t, err)
}

func TestMessageDatabase_UpdateOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("UpdateOne", context.Background(), bson.M{"_id": "m1"}, bson.M{"$set": bson.M{"status": "read"}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	dbHelper.On("Collection", "messages").Return(collectionHelper)

	matched, err := databases.NewMessageDatabase(dbHelper).
		UpdateOne(context.Background(), bson.M{"_id": "m1"}, bson.M{"$set": bson.M{"status": "read"}})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}

func TestConversationDatabase_FindOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperErr := &mocks.SingleResultHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}

	srHelperErr.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	srHelperCorrect.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.ConversationRecord)
		(*arg).ID = "mocked-conversation"
	})

	collectionHelper.On("FindOne", context.Background(), bson.M{"error": true}).Return(srHelperErr)
	collectionHelper.On("FindOne", context.Background(), bson.M{"error": false}).Return(srHelperCorrect)
	dbHelper.On("Collection", "conversations").Return(collectionHelper)

	convDba := databases.NewConversationDatabase(dbHelper)

	conv, err := convDba.FindOne(context.Background(), bson.M{"error": true})
	assert.Empty(t, conv)
	assert.EqualError(t, err, "mocked-error")

	conv, err = convDba.FindOne(context.Background(), bson.M{"error": false})
	assert.Equal(t, &models.ConversationRecord{ID: "mocked-conversation"}, conv)
	assert.NoError(t, err)
}

func TestEnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CreateIndexes", context.Background(), mock.Anything).Return(nil)
	dbHelper.On("Collection", mock.Anything).Return(collectionHelper)

	repo := databases.NewMessagingRepository(dbHelper)
	assert.NoError(t, repo.EnsureIndexes(context.Background()))
	collectionHelper.AssertNumberOfCalls(t, "CreateIndexes", 2)
}

package databases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-messaging-api/messaging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

var _ messaging.Repository = (*MessagingRepository)(nil)

// ErrUnknownRole is returned when a viewer's role is neither clinician nor patient
var ErrUnknownRole = errors.New("unknown participant role")

// MessagingRepository stores conversations and messages in mongo
type MessagingRepository struct {
	Conversations ConversationDatabase
	Messages      MessageDatabase
}

// NewMessagingRepository creates a repository over the given database
func NewMessagingRepository(db DatabaseHelper) *MessagingRepository {
	return &MessagingRepository{
		Conversations: NewConversationDatabase(db),
		Messages:      NewMessageDatabase(db),
	}
}

// EnsureIndexes creates the indexes the queries below rely on
func (r *MessagingRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.Conversations.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("conversation indexes: %w", err)
	}
	if err := r.Messages.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("message indexes: %w", err)
	}
	return nil
}

// LoadConversations returns the viewer's conversations with their messages in order
func (r *MessagingRepository) LoadConversations(ctx context.Context, viewer models.Viewer) ([]models.Conversation, error) {
	if !viewer.Role.Valid() {
		return nil, ErrUnknownRole
	}
	records, err := r.Conversations.Find(ctx, bson.M{string(viewer.Role) + ".id": viewer.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}
	if len(records) == 0 {
		return []models.Conversation{}, nil
	}

	convIDs := make([]string, 0, len(records))
	for _, rec := range records {
		convIDs = append(convIDs, rec.ID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}, {Key: "seq", Value: 1}})
	msgs, err := r.Messages.Find(ctx, bson.M{"conversationId": bson.M{"$in": convIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	byConv := make(map[string][]models.Message, len(records))
	for _, m := range msgs {
		byConv[m.ConversationID] = append(byConv[m.ConversationID], m)
	}

	out := make([]models.Conversation, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ViewFor(viewer.Role, byConv[rec.ID]))
	}
	return out, nil
}

// SaveMessage inserts a new message. Storing the same message twice is not an error.
func (r *MessagingRepository) SaveMessage(ctx context.Context, msg models.Message) error {
	err := r.Messages.InsertOne(ctx, msg)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// UpdateStatus moves a message from one status to the next. It reports false
// when the stored message was not in the expected status.
func (r *MessagingRepository) UpdateStatus(ctx context.Context, messageID string, from, to models.DeliveryStatus) (bool, error) {
	matched, err := r.Messages.UpdateOne(ctx,
		bson.M{"_id": messageID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

// ResetUnread clears the unread count of one side of a conversation
func (r *MessagingRepository) ResetUnread(ctx context.Context, conversationID string, role models.Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	_, err := r.Conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"unread." + string(role): 0}},
	)
	return err
}

// IncrementUnread raises the unread count of one side of a conversation
func (r *MessagingRepository) IncrementUnread(ctx context.Context, conversationID string, role models.Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	_, err := r.Conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$inc": bson.M{"unread." + string(role): 1}},
	)
	return err
}

// StalledMessages returns messages sent before the cutoff that have not been read
func (r *MessagingRepository) StalledMessages(ctx context.Context, before time.Time) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}})
	return r.Messages.Find(ctx, bson.M{
		"sentAt": bson.M{"$lt": before},
		"status": bson.M{"$ne": models.StatusRead},
	}, opts)
}

type digestRow struct {
	ID            string                   `bson:"_id"`
	Participant   models.ParticipantRecord `bson:"participant"`
	Unread        int                      `bson:"unread"`
	Conversations int                      `bson:"conversations"`
}

// UnreadDigests sums, per participant, the unread messages across all of
// their conversations. Participants with nothing unread are left out.
func (r *MessagingRepository) UnreadDigests(ctx context.Context) ([]models.UnreadDigest, error) {
	var out []models.UnreadDigest
	for _, role := range []models.Role{models.RoleClinician, models.RolePatient} {
		field := "$unread." + string(role)
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"unread." + string(role): bson.M{"$gt": 0}}}},
			{{Key: "$group", Value: bson.M{
				"_id":           "$" + string(role) + ".id",
				"participant":   bson.M{"$first": "$" + string(role)},
				"unread":        bson.M{"$sum": field},
				"conversations": bson.M{"$sum": 1},
			}}},
			{{Key: "$sort", Value: bson.M{"_id": 1}}},
		}
		var rows []digestRow
		if err := r.Conversations.Aggregate(ctx, pipeline, &rows); err != nil {
			return nil, fmt.Errorf("failed to aggregate %s unread counts: %w", role, err)
		}
		for _, row := range rows {
			out = append(out, models.UnreadDigest{
				Participant:   row.Participant,
				Role:          role,
				Unread:        row.Unread,
				Conversations: row.Conversations,
			})
		}
	}
	return out, nil
}

// Seed inserts fixture conversations and their history. Conversations that
// already exist are left alone together with their messages, so seeding the
// same fixtures twice does not duplicate history.
func (r *MessagingRepository) Seed(ctx context.Context, f models.Fixtures) error {
	now := time.Now()
	convs := make([]models.ConversationRecord, 0, len(f.Conversations))
	existing := make(map[string]bool)
	for _, c := range f.Conversations {
		_, err := r.Conversations.FindOne(ctx, bson.M{"_id": c.ID})
		switch {
		case err == nil:
			existing[c.ID] = true
			continue
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("failed to look up conversation %s: %w", c.ID, err)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.Unread == nil {
			c.Unread = map[string]int{}
		}
		convs = append(convs, c)
	}
	if len(convs) > 0 {
		if err := r.Conversations.InsertMany(ctx, convs); err != nil {
			return fmt.Errorf("failed to insert conversations: %w", err)
		}
	}
	msgs := make([]models.Message, 0, len(f.Messages))
	seq := make(map[string]int64)
	for _, m := range f.Messages {
		if existing[m.ConversationID] {
			continue
		}
		seq[m.ConversationID]++
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Seq == 0 {
			m.Seq = seq[m.ConversationID]
		}
		if m.Status == "" {
			m.Status = models.StatusRead
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := r.Messages.InsertMany(ctx, msgs); err != nil {
		return fmt.Errorf("failed to insert messages: %w", err)
	}
	return nil
}

package models

import (
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrEmptyMessage is returned when a message has neither text nor an attachment
var ErrEmptyMessage = errors.New("message has no text and no attachment")

// Role identifies which side of a conversation a participant is on
type Role string

// Roles a viewer or sender can have
const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleClinician || r == RolePatient
}

// Counterpart returns the role on the other side of a conversation
func (r Role) Counterpart() Role {
	if r == RoleClinician {
		return RolePatient
	}
	return RoleClinician
}

// DeliveryStatus is the acknowledgement stage of a message
type DeliveryStatus string

// Delivery statuses in lifecycle order
const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

var statusOrder = []DeliveryStatus{StatusSent, StatusDelivered, StatusRead}

// Rank is the position of s in the lifecycle, starting at 1. Unknown statuses rank 0.
func (s DeliveryStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// Next returns the status that immediately follows s
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	r := s.Rank()
	if r == 0 || r == len(statusOrder) {
		return "", false
	}
	return statusOrder[r], true
}

// Previous returns the status that immediately precedes s
func (s DeliveryStatus) Previous() (DeliveryStatus, bool) {
	r := s.Rank()
	if r <= 1 {
		return "", false
	}
	return statusOrder[r-2], true
}

// Terminal reports whether no further transition exists
func (s DeliveryStatus) Terminal() bool {
	return s == StatusRead
}

// AttachmentKind is the type of file attached to a message
type AttachmentKind string

// Attachment kinds
const (
	AttachmentDocument AttachmentKind = "document"
	AttachmentImage    AttachmentKind = "image"
)

// Attachment holds display metadata for a file reference. No file content
// is ever carried here.
type Attachment struct {
	Kind        AttachmentKind `json:"kind" bson:"kind" yaml:"kind"`
	DisplayName string         `json:"displayName" bson:"displayName" yaml:"displayName"`
	SizeLabel   string         `json:"sizeLabel" bson:"sizeLabel" yaml:"sizeLabel"`
}

// NewAttachment builds attachment metadata from a raw byte count
func NewAttachment(kind AttachmentKind, displayName string, sizeBytes uint64) *Attachment {
	return &Attachment{
		Kind:        kind,
		DisplayName: displayName,
		SizeLabel:   humanize.Bytes(sizeBytes),
	}
}

// Sender tells whether a message was written by the viewer or the other side
type Sender int

// Sender values
const (
	SenderSelf Sender = iota + 1
	SenderCounterpart
)

func (s Sender) String() string {
	switch s {
	case SenderSelf:
		return "self"
	case SenderCounterpart:
		return "counterpart"
	default:
		return "unknown"
	}
}

// Message holds the structure for the messages collection in mongo
type Message struct {
	ID             string         `json:"id" bson:"_id" yaml:"id"`
	ConversationID string         `json:"conversationId" bson:"conversationId" yaml:"conversationId"`
	SenderRole     Role           `json:"senderRole" bson:"senderRole" yaml:"senderRole"`
	Text           string         `json:"text" bson:"text" yaml:"text"`
	Attachment     *Attachment    `json:"attachment,omitempty" bson:"attachment,omitempty" yaml:"attachment,omitempty"`
	SentAt         time.Time      `json:"sentAt" bson:"sentAt" yaml:"sentAt"`
	Seq            int64          `json:"seq" bson:"seq" yaml:"seq"`
	Status         DeliveryStatus `json:"status" bson:"status" yaml:"status"`
	// Failed is set when the message could not be stored. It is local state only.
	Failed bool `json:"failed,omitempty" bson:"-" yaml:"-"`
}

// NewMessage creates a message in the sent state. Text is trimmed; a message
// needs text or an attachment.
func NewMessage(conversationID string, sender Role, text string, attachment *Attachment, now time.Time) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderRole:     sender,
		Text:           text,
		Attachment:     attachment,
		SentAt:         now,
		Status:         StatusSent,
	}, nil
}

// SenderFor tags the message relative to the viewer's role
func (m Message) SenderFor(viewer Role) Sender {
	if m.SenderRole == viewer {
		return SenderSelf
	}
	return SenderCounterpart
}

// Before orders messages by send time, then by insertion sequence
func (m Message) Before(o Message) bool {
	if m.SentAt.Equal(o.SentAt) {
		return m.Seq < o.Seq
	}
	return m.SentAt.Before(o.SentAt)
}

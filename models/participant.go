package models

import "time"

// Viewer is the signed-in participant resolved from the identity token
type Viewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// ParticipantRecord holds the structure for one side of a conversation document
type ParticipantRecord struct {
	ID        string `json:"id" bson:"id" yaml:"id"`
	Name      string `json:"name" bson:"name" yaml:"name"`
	Avatar    string `json:"avatar" bson:"avatar" yaml:"avatar"`
	Email     string `json:"email" bson:"email" yaml:"email"`
	Specialty string `json:"specialty,omitempty" bson:"specialty,omitempty" yaml:"specialty,omitempty"`
	Condition string `json:"condition,omitempty" bson:"condition,omitempty" yaml:"condition,omitempty"`
	Online    bool   `json:"online" bson:"online" yaml:"online"`
}

// ConversationRecord holds the structure for the conversations collection in mongo
type ConversationRecord struct {
	ID        string            `json:"_id" bson:"_id" yaml:"id"`
	Clinician ParticipantRecord `json:"clinician" bson:"clinician" yaml:"clinician"`
	Patient   ParticipantRecord `json:"patient" bson:"patient" yaml:"patient"`
	// Unread is keyed by role and counts messages that role has not opened yet
	Unread    map[string]int `json:"unread" bson:"unread" yaml:"unread"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt" yaml:"createdAt"`
}

// Participant returns the record for the given side
func (r ConversationRecord) Participant(role Role) ParticipantRecord {
	if role == RoleClinician {
		return r.Clinician
	}
	return r.Patient
}

// ViewFor builds the viewer-relative conversation
func (r ConversationRecord) ViewFor(viewer Role, messages []Message) Conversation {
	other := r.Participant(viewer.Counterpart())
	cp := Counterpart{
		ID:     other.ID,
		Name:   other.Name,
		Avatar: other.Avatar,
		Role:   viewer.Counterpart(),
	}
	if cp.Role == RoleClinician {
		cp.Specialty = other.Specialty
	} else {
		cp.Condition = other.Condition
	}
	unread := r.Unread[string(viewer)]
	if unread < 0 {
		unread = 0
	}
	return Conversation{
		ID:          r.ID,
		Counterpart: cp,
		Online:      other.Online,
		Messages:    messages,
		UnreadCount: unread,
		Secure:      true,
	}
}

// UnreadDigest summarises the unread messages waiting for one participant
type UnreadDigest struct {
	Participant   ParticipantRecord
	Role          Role
	Unread        int
	Conversations int
}

// Fixtures is a set of conversations and their history used to seed a database
type Fixtures struct {
	Conversations []ConversationRecord `yaml:"conversations"`
	Messages      []Message            `yaml:"messages"`
}

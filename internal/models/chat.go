package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation is a two-party message thread, optionally scoped to a
// project. The participant columns are stored in arrival order; the pair
// is unordered for identity, so lookups must check both orderings.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ParticipantOneID uuid.UUID  `gorm:"type:uuid;not null;index" json:"participant_one_id"`
	ParticipantTwoID uuid.UUID  `gorm:"type:uuid;not null;index" json:"participant_two_id"`
	ProjectID        *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	// PairKey is the sorted participant pair plus the project scope.
	// The unique index is what actually holds the one-conversation-per-
	// pair-per-project invariant when two creates race; NULL project ids
	// would not collide in a plain composite index, the key folds them
	// in as "-".
	PairKey string `gorm:"type:varchar(120);uniqueIndex;not null" json:"-"`

	Title string `gorm:"type:varchar(255)" json:"title,omitempty"`

	LastMessageID *uuid.UUID `gorm:"type:uuid" json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at,omitempty"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ParticipantOne *User    `gorm:"foreignKey:ParticipantOneID" json:"participant_one,omitempty"`
	ParticipantTwo *User    `gorm:"foreignKey:ParticipantTwoID" json:"participant_two,omitempty"`
	Project        *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	LastMessage    *Message `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
}

// ConversationPairKey normalizes the unordered participant pair and the
// optional project scope into one comparable key.
func ConversationPairKey(a, b uuid.UUID, projectID *uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	scope := "-"
	if projectID != nil {
		scope = projectID.String()
	}
	return lo + ":" + hi + ":" + scope
}

func (cv *Conversation) BeforeCreate(tx *gorm.DB) error {
	if cv.PairKey == "" {
		cv.PairKey = ConversationPairKey(cv.ParticipantOneID, cv.ParticipantTwoID, cv.ProjectID)
	}
	return nil
}

func (cv *Conversation) HasParticipant(userID uuid.UUID) bool {
	return cv.ParticipantOneID == userID || cv.ParticipantTwoID == userID
}

// OtherParticipantID resolves the counterpart of userID. ok is false when
// userID is not a participant at all, which callers must treat as a
// logic error rather than an empty result.
func (cv *Conversation) OtherParticipantID(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case cv.ParticipantOneID:
		return cv.ParticipantTwoID, true
	case cv.ParticipantTwoID:
		return cv.ParticipantOneID, true
	}
	return uuid.Nil, false
}

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Message belongs to one conversation. read_at is null until the
// recipient reads it; the transition is one-way.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	ProjectID      *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	Content     string         `gorm:"type:text;not null" json:"content"`
	MessageType MessageType    `gorm:"type:varchar(10);default:'text'" json:"message_type"`
	Attachments datatypes.JSON `json:"attachments,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Sender    *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

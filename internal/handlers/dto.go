package handlers

import (
	"time"

	"github.com/kormoplatform/kormo-backend/internal/models"
)

type UserMini struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Location string `json:"location,omitempty"`
}

func toUserMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	return &UserMini{
		ID:       u.ID.String(),
		Name:     u.FullName(),
		Avatar:   u.Avatar,
		Location: u.Location,
	}
}

type CategoryMini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func toCategoryMini(cat *models.Category) *CategoryMini {
	if cat == nil {
		return nil
	}
	return &CategoryMini{ID: cat.ID.String(), Name: cat.Name, Slug: cat.Slug}
}

type MessageOut struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Content        string     `json:"content"`
	MessageType    string     `json:"message_type"`
	Attachments    []string   `json:"attachments,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Sender         *UserMini  `json:"sender,omitempty"`
}

func toMessageOut(m *models.Message) MessageOut {
	out := MessageOut{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		RecipientID:    m.RecipientID.String(),
		Content:        m.Content,
		MessageType:    string(m.MessageType),
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
		Sender:         toUserMini(m.Sender),
	}
	out.Attachments = decodeStringList(m.Attachments)
	return out
}

package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/middleware"
	"github.com/kormoplatform/kormo-backend/internal/models"
	"github.com/kormoplatform/kormo-backend/internal/realtime"
	"github.com/kormoplatform/kormo-backend/internal/utils"
)

type ChatHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	RDB       *redis.Client
	Log       *zap.Logger
	JWTSecret string
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client, log *zap.Logger, jwtSecret string) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, RDB: rdb, Log: log, JWTSecret: jwtSecret}
}

type ConversationOut struct {
	ID               string      `json:"id"`
	ProjectID        *string     `json:"project_id,omitempty"`
	Title            string      `json:"title,omitempty"`
	IsActive         bool        `json:"is_active"`
	LastMessageAt    *time.Time  `json:"last_message_at,omitempty"`
	UnreadCount      int64       `json:"unread_count"`
	OtherParticipant *UserMini   `json:"other_participant,omitempty"`
	LastMessage      *MessageOut `json:"last_message,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (h *ChatHandler) toConversationOut(cv *models.Conversation, viewer uuid.UUID) ConversationOut {
	out := ConversationOut{
		ID:            cv.ID.String(),
		Title:         cv.Title,
		IsActive:      cv.IsActive,
		LastMessageAt: cv.LastMessageAt,
		CreatedAt:     cv.CreatedAt,
	}
	if cv.ProjectID != nil {
		pid := cv.ProjectID.String()
		out.ProjectID = &pid
	}

	if otherID, ok := cv.OtherParticipantID(viewer); ok {
		if cv.ParticipantOne != nil && cv.ParticipantOne.ID == otherID {
			out.OtherParticipant = toUserMini(cv.ParticipantOne)
		} else if cv.ParticipantTwo != nil && cv.ParticipantTwo.ID == otherID {
			out.OtherParticipant = toUserMini(cv.ParticipantTwo)
		}
	}

	if cv.LastMessage != nil {
		lm := toMessageOut(cv.LastMessage)
		out.LastMessage = &lm
	}

	h.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", cv.ID, viewer).
		Count(&out.UnreadCount)

	return out
}

// GetConversations returns the caller's active conversations, most
// recent message first, each with its unread count.
func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Conversation{}).
		Preload("ParticipantOne").
		Preload("ParticipantTwo").
		Preload("LastMessage").
		Where("(participant_one_id = ? OR participant_two_id = ?) AND is_active = ?", uid, uid, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch conversations")
	}

	var convs []models.Conversation
	if err := q.Order("last_message_at DESC NULLS LAST").
		Limit(perPage).Offset(offset).
		Find(&convs).Error; err != nil {
		h.Log.Error("fetch conversations", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch conversations")
	}

	out := make([]ConversationOut, 0, len(convs))
	for i := range convs {
		out = append(out, h.toConversationOut(&convs[i], uid))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

type CreateConversationReq struct {
	ParticipantID  string  `json:"participant_id"`
	ProjectID      *string `json:"project_id"`
	InitialMessage string  `json:"initial_message"`
}

// CreateConversation starts a thread with another user, optionally
// scoped to a project. If a conversation for the unordered pair and
// project already exists the call returns 409 with the existing thread.
func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req CreateConversationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	var otherID uuid.UUID
	if req.ParticipantID == "" {
		errs.Add("participant_id", "Participant id is required")
	} else if pid, err := uuid.Parse(req.ParticipantID); err != nil {
		errs.Add("participant_id", "Participant id is invalid")
	} else if pid == uid {
		errs.Add("participant_id", "Cannot start a conversation with yourself")
	} else {
		otherID = pid
	}
	if strings.TrimSpace(req.InitialMessage) == "" {
		errs.Add("initial_message", "Initial message is required")
	} else if len(req.InitialMessage) > 1000 {
		errs.Add("initial_message", "Initial message must be at most 1000 characters")
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil && *req.ProjectID != "" {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			errs.Add("project_id", "Project id is invalid")
		} else {
			var project models.Project
			if err := h.DB.First(&project, "id = ?", pid).Error; err != nil {
				errs.Add("project_id", "Project does not exist")
			} else if !project.HasParticipant(uid) {
				errs.Add("project_id", "You are not part of that project")
			} else {
				projectID = &pid
			}
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var other models.User
	if err := h.DB.First(&other, "id = ?", otherID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Participant not found")
	}

	// both-orderings lookup; the pair is unordered for identity
	pairKey := models.ConversationPairKey(uid, otherID, projectID)
	var existing models.Conversation
	err = h.DB.Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Conversation already exists",
			"data":    h.toConversationOut(&existing, uid),
		})
	}
	if err != gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusInternalServerError, "Failed to create conversation")
	}

	conv := models.Conversation{
		ParticipantOneID: uid,
		ParticipantTwoID: otherID,
		ProjectID:        projectID,
		IsActive:         true,
	}
	var msg models.Message
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		var err error
		msg, err = sendMessageTx(tx, &conv, uid, strings.TrimSpace(req.InitialMessage), models.MessageTypeText, nil)
		return err
	})
	if txErr != nil {
		// the unique pair key lost a create race
		if strings.Contains(txErr.Error(), "duplicate") || strings.Contains(txErr.Error(), "unique") {
			return fail(c, fiber.StatusConflict, "Conversation already exists")
		}
		h.Log.Error("create conversation", zap.Error(txErr))
		return fail(c, fiber.StatusInternalServerError, "Failed to create conversation")
	}

	h.notifyNewMessage(&conv, &msg, uid)

	h.DB.Preload("ParticipantOne").Preload("ParticipantTwo").Preload("LastMessage").
		First(&conv, "id = ?", conv.ID)

	mo := toMessageOut(&msg)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"data":            h.toConversationOut(&conv, uid),
		"initial_message": mo,
	})
}

// GetMessages returns a conversation's messages (newest page first,
// returned oldest-first within the page) and marks everything addressed
// to the caller as read.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	conv, ferr := h.loadConversationForParticipant(c, uid)
	if conv == nil {
		return ferr
	}

	page, perPage, offset := parsePage(c, 50, 100)

	var total int64
	h.DB.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&total)

	var messages []models.Message
	if err := h.DB.
		Preload("Sender").
		Where("conversation_id = ?", conv.ID).
		Order("created_at DESC").
		Limit(perPage).Offset(offset).
		Find(&messages).Error; err != nil {
		h.Log.Error("fetch messages", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch messages")
	}

	if err := markAllRead(h.DB, conv.ID, uid, time.Now()); err != nil {
		h.Log.Warn("mark messages read", zap.Error(err))
	}

	// oldest first within the page
	out := make([]MessageOut, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		out = append(out, toMessageOut(&messages[i]))
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"conversation": h.toConversationOut(conv, uid),
		"data":         out,
		"pagination":   newPagination(page, perPage, total),
	})
}

type SendMessageReq struct {
	Content     string   `json:"content"`
	MessageType string   `json:"message_type"`
	Attachments []string `json:"attachments"`
}

// SendMessage appends a message to the conversation. The insert and the
// parent's last-message pointer update happen in one transaction, so a
// reported success always leaves the pointer on the new message.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	conv, ferr := h.loadConversationForParticipant(c, uid)
	if conv == nil {
		return ferr
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	content := strings.TrimSpace(req.Content)
	errs := FieldErrors{}
	if content == "" {
		errs.Add("content", "Content is required")
	} else if len(content) > 5000 {
		errs.Add("content", "Content must be at most 5000 characters")
	}

	msgType := models.MessageTypeText
	switch req.MessageType {
	case "", string(models.MessageTypeText):
	case string(models.MessageTypeImage):
		msgType = models.MessageTypeImage
	case string(models.MessageTypeFile):
		msgType = models.MessageTypeFile
	default:
		errs.Add("message_type", "Message type must be text, image or file")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var msg models.Message
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		msg, err = sendMessageTx(tx, conv, uid, content, msgType, req.Attachments)
		return err
	})
	if txErr != nil {
		h.Log.Error("send message", zap.Error(txErr))
		return fail(c, fiber.StatusInternalServerError, "Failed to send message")
	}

	h.notifyNewMessage(conv, &msg, uid)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toMessageOut(&msg),
	})
}

// MarkAsRead bulk-reads everything addressed to the caller. Idempotent.
func (h *ChatHandler) MarkAsRead(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	conv, ferr := h.loadConversationForParticipant(c, uid)
	if conv == nil {
		return ferr
	}

	if err := markAllRead(h.DB, conv.ID, uid, time.Now()); err != nil {
		h.Log.Error("mark conversation read", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to mark conversation as read")
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetUnreadTotal counts unread messages addressed to the caller across
// all conversations.
func (h *ChatHandler) GetUnreadTotal(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var count int64
	if err := h.DB.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", uid).
		Count(&count).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to count unread messages")
	}

	return c.JSON(fiber.Map{"success": true, "data": count})
}

// loadConversationForParticipant resolves the conversation for the
// caller. A nil conversation means the error response has already been
// written; callers check the pointer, not the error.
func (h *ChatHandler) loadConversationForParticipant(c *fiber.Ctx, uid uuid.UUID) (*models.Conversation, error) {
	convID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	var conv models.Conversation
	if err := h.DB.First(&conv, "id = ?", convID).Error; err != nil {
		return nil, fail(c, fiber.StatusNotFound, "Conversation not found")
	}
	if !conv.HasParticipant(uid) {
		return nil, fail(c, fiber.StatusForbidden, "Access denied")
	}
	return &conv, nil
}

// sendMessageTx inserts the message and moves the conversation's
// last-message pointer inside the caller's transaction.
func sendMessageTx(tx *gorm.DB, conv *models.Conversation, senderID uuid.UUID, content string, msgType models.MessageType, attachments []string) (models.Message, error) {
	recipientID, ok := conv.OtherParticipantID(senderID)
	if !ok {
		return models.Message{}, gorm.ErrRecordNotFound
	}

	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		ProjectID:      conv.ProjectID,
		Content:        content,
		MessageType:    msgType,
		Attachments:    encodeStringList(attachments),
	}
	if err := tx.Create(&msg).Error; err != nil {
		return models.Message{}, err
	}

	now := msg.CreatedAt
	if err := tx.Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Updates(map[string]interface{}{
			"last_message_id": msg.ID,
			"last_message_at": now,
		}).Error; err != nil {
		return models.Message{}, err
	}
	conv.LastMessageID = &msg.ID
	conv.LastMessageAt = &now

	return msg, nil
}

// markAllRead stamps read_at on the caller's unread messages only;
// already-read rows and the other participant's inbox are untouched.
func markAllRead(tx *gorm.DB, convID, userID uuid.UUID, now time.Time) error {
	return tx.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", convID, userID).
		Update("read_at", now).Error
}

// notifyNewMessage fans the event out over the websocket hub and the
// recipient's Redis notification channel. Delivery is best effort.
func (h *ChatHandler) notifyNewMessage(conv *models.Conversation, msg *models.Message, senderID uuid.UUID) {
	h.Hub.SendToConversation(conv.ParticipantOneID, conv.ParticipantTwoID, fiber.Map{
		"type":    "new_message",
		"message": toMessageOut(msg),
	})

	if err := realtime.PublishNotification(context.Background(), h.RDB, msg.RecipientID, map[string]interface{}{
		"type":            "chat_message",
		"conversation_id": conv.ID.String(),
		"sender_id":       senderID.String(),
		"content":         msg.Content,
	}); err != nil {
		h.Log.Warn("publish chat notification", zap.Error(err))
	}
}

// WebSocketHandler keeps a connection registered on the hub so chat
// events reach the client live. The JWT cookie is parsed during the
// upgrade, before the connection reaches this handler.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	userID, _ := c.Locals("wsUserId").(string)
	if userID == "" {
		c.Close()
		return
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		// pong keeps the connection alive; everything else is ignored
	}
}

// WebSocketUpgrade authenticates the upgrade request from the auth
// cookie and stashes the user id for the connection handler.
func WebSocketUpgrade(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		tokenStr := c.Cookies(middleware.AuthCookieName)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}
		claims, err := utils.ParseJWT(jwtSecret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("wsUserId", claims.UserID)
		return c.Next()
	}
}

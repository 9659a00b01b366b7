package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"messenger-service/internal/delivery"
	"messenger-service/internal/mediastore"
	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// Delivery is the message engine surface the handlers need.
type Delivery interface {
	Send(ctx context.Context, senderID, receiverID int64, text, image string) (models.Message, error)
	MarkSeen(ctx context.Context, messageID, callerID int64) error
	Conversation(ctx context.Context, viewerID, otherID int64) ([]models.Message, error)
	SidebarUsers(ctx context.Context, viewerID int64) ([]models.User, map[int64]int, error)
}

// MessageHandler manages messaging endpoints.
type MessageHandler struct {
	delivery Delivery
	log      *zap.Logger
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(d Delivery, log *zap.Logger) *MessageHandler {
	return &MessageHandler{delivery: d, log: log}
}

// SidebarUsers lists every other user with the viewer's unseen counts.
func (h *MessageHandler) SidebarUsers(c *gin.Context) {
	viewerID := c.GetInt64(middleware.UserIDKey)

	users, counts, err := h.delivery.SidebarUsers(c.Request.Context(), viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "unseenMessages": counts})
}

// GetConversation returns all messages between the caller and user :id.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	otherID, ok := parseID(c)
	if !ok {
		return
	}
	viewerID := c.GetInt64(middleware.UserIDKey)

	msgs, err := h.delivery.Conversation(c.Request.Context(), viewerID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// MarkSeen flips the seen flag on message :id for the caller.
func (h *MessageHandler) MarkSeen(c *gin.Context) {
	messageID, ok := parseID(c)
	if !ok {
		return
	}
	callerID := c.GetInt64(middleware.UserIDKey)

	if err := h.delivery.MarkSeen(c.Request.Context(), messageID, callerID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not mark message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Send stores a message for user :id and pushes it if they are online.
func (h *MessageHandler) Send(c *gin.Context) {
	receiverID, ok := parseID(c)
	if !ok {
		return
	}
	senderID := c.GetInt64(middleware.UserIDKey)

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	msg, err := h.delivery.Send(c.Request.Context(), senderID, receiverID, req.Text, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrEmptyMessage),
			errors.Is(err, mediastore.ErrNotImage),
			errors.Is(err, mediastore.ErrEmptyPayload):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "message needs text or a valid image"})
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "newMessage": msg})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return 0, false
	}
	return id, true
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"chatline/internal/hub"
	"chatline/internal/middleware"
	"chatline/internal/model"
	"chatline/internal/store"
)

type MessageHandler struct {
	Store    *store.Store
	Router   *hub.Router
	Receipts *hub.Propagator
}

type sendBody struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// ListUsers returns every other user for the sidebar.
func (h *MessageHandler) ListUsers(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	users, err := h.Store.ListUsers(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(users, func(u model.User, _ int) gin.H {
		return userPayload(u)
	}))
}

// History returns the full conversation with the peer in creation order.
func (h *MessageHandler) History(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	msgs, err := h.Store.ListMessages(userID, c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// Send persists a new message, then routes it to the recipient's live
// connection. The sender gets 201 once the message is durable, whether or
// not the recipient is online.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil || (body.Text == "" && body.Image == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message needs text or an image"})
		return
	}

	receiverID := c.Param("userID")
	if _, err := h.Store.GetUserByID(receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}

	msg, err := h.Store.SendMessage(userID, receiverID, body.Text, body.Image, time.Now().UnixNano())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Send failed"})
		return
	}

	h.Router.Route(msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead marks the peer's messages to the caller as read, then propagates
// a receipt to the peer's live connection.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	senderID := c.Param("userID")
	readAt := time.Now().UnixMilli()
	ids, err := h.Store.MarkMessagesRead(userID, senderID, readAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Mark read failed"})
		return
	}

	if ids == nil {
		ids = []string{}
	}
	h.Receipts.MarkRead(userID, senderID, ids, readAt)
	c.JSON(http.StatusOK, gin.H{"messageIds": ids, "readAt": readAt})
}

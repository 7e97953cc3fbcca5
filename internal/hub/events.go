package hub

import "chatline/internal/model"

// Event type tags pushed over live connections. The client store switches on
// these exact strings.
const (
	EventNewMessage   = "newMessage"
	EventMessagesRead = "messagesRead"
	EventOnlineUsers  = "onlineUsers"
)

type newMessageEvent struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
}

type messagesReadEvent struct {
	Type       string   `json:"type"`
	ReadBy     string   `json:"readBy"`
	SenderID   string   `json:"senderId"`
	MessageIDs []string `json:"messageIds"`
	ReadAt     int64    `json:"readAt"`
}

type onlineUsersEvent struct {
	Type    string   `json:"type"`
	UserIDs []string `json:"userIds"`
}

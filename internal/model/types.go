package model

type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	ProfilePic   string
	CreatedAt    int64
}

// Message field names are part of the wire contract: the client store reads
// these keys from both REST responses and websocket push events.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text,omitempty"`
	Image      string `json:"image,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
	Read       bool   `json:"read"`
	ReadAt     int64  `json:"readAt,omitempty"`
}

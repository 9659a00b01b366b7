package models

import "time"

// Message is a single direct message. Seen is the only mutable field:
// it flips from false to true once and never back.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	SenderID   int64     `db:"sender_id" json:"senderId"`
	ReceiverID int64     `db:"receiver_id" json:"receiverId"`
	Text       string    `db:"text" json:"text,omitempty"`
	Image      string    `db:"image" json:"image,omitempty"`
	Seen       bool      `db:"seen" json:"seen"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Event types pushed over websocket connections.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
)

// Event is emitted over websocket connections. OnlineUsers carries the
// full online snapshot; clients replace their state, never merge.
type Event struct {
	Type        string   `json:"type"`
	Message     *Message `json:"message,omitempty"`
	OnlineUsers []int64  `json:"onlineUsers,omitempty"`
}

package models

import "time"

// ChatRoom represents a Chats/{chatId} document.
// UnreadCount is keyed by textutil.SafeUID(uid) because keys are used as
// nested field paths.
type ChatRoom struct {
	ID                  string         `bson:"_id" json:"id"`
	Participants        []string       `bson:"participants" json:"participants"`
	VisibleTo           []string       `bson:"visibleTo" json:"visibleTo"`
	UnreadCount         map[string]int `bson:"unreadCount" json:"unreadCount"`
	LastMessage         string         `bson:"lastMessage" json:"lastMessage"`
	LastMessageSenderID string         `bson:"lastMessageSenderId" json:"lastMessageSenderId"`
	UpdatedAt           time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// ChatMessage is a message document under a chat room.
// The reserved senders "system" and "review" are never counted or notified.
type ChatMessage struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	ChatID     string    `bson:"chatId" json:"chatId"`
	SenderID   string    `bson:"senderId" json:"senderId"`
	ReceiverID string    `bson:"receiverId" json:"receiverId"`
	Body       string    `bson:"body" json:"body"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	IsReadBy   []string  `bson:"isReadBy" json:"isReadBy"`
}

// RoomUpdate is the derived state applied to a room when a message arrives.
type RoomUpdate struct {
	LastMessage string
	SenderID    string
	ReceiverID  string
	UpdatedAt   time.Time
}

package models

import "time"

// Report is an append-only Reports document.
type Report struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	ReporterID string    `bson:"reporterId" json:"reporterId"`
	ReporteeID string    `bson:"reporteeId" json:"reporteeId"`
	Category   string    `bson:"category" json:"category"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Review is an append-only Reviews document. Value is one of -1, 0, 1.
type Review struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	PostID     string    `bson:"postId" json:"postId"`
	ChatID     string    `bson:"chatId" json:"chatId"`
	SenderID   string    `bson:"senderId" json:"senderId"`
	ReceiverID string    `bson:"receiverId" json:"receiverId"`
	Value      int       `bson:"value" json:"value"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

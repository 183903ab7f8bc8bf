package models

// ReplyNotification is the Notifications document created when someone
// replies to a user's comment. Type is the post type used in deep links.
type ReplyNotification struct {
	ID         string `bson:"_id,omitempty" json:"id,omitempty"`
	ReceiverID string `bson:"receiverId" json:"receiverId"`
	SenderID   string `bson:"senderId" json:"senderId"`
	Type       string `bson:"type" json:"type"`
	PostID     string `bson:"postId" json:"postId"`
	Body       string `bson:"body" json:"body"`
}

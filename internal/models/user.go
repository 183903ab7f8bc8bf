package models

import "time"

// User is the subset of a Users/{uid} document the engine reads or derives.
// Report and Review are owned by the report and review aggregators; the
// rest is written by the mobile client.
type User struct {
	ID               string `bson:"_id" json:"id"`
	DisplayName      string `bson:"displayName" json:"displayName"`
	PushToken        string `bson:"pushToken,omitempty" json:"pushToken,omitempty"`
	ActiveChatRoomID string `bson:"activeChatRoomId,omitempty" json:"activeChatRoomId,omitempty"`

	Report TrustRecord      `bson:"report" json:"report"`
	Review ReputationRecord `bson:"review" json:"review"`
}

// TrustRecord is the report aggregate embedded at Users/{uid}.report.
type TrustRecord struct {
	Total            int        `bson:"total" json:"total"`
	Recent30Days     int        `bson:"recent30Days" json:"recent30Days"`
	SuspendUntil     *time.Time `bson:"suspendUntil" json:"suspendUntil"`
	NeedsAdminReview bool       `bson:"needsAdminReview,omitempty" json:"needsAdminReview,omitempty"`
}

// SuspendedAt reports whether the record suspends the user at t.
func (r TrustRecord) SuspendedAt(t time.Time) bool {
	return r.SuspendUntil != nil && t.Before(*r.SuspendUntil)
}

// ReputationRecord is the review aggregate embedded at Users/{uid}.review.
type ReputationRecord struct {
	Total        int  `bson:"total" json:"total"`
	Positive     int  `bson:"positive" json:"positive"`
	Negative     int  `bson:"negative" json:"negative"`
	BadgeGranted bool `bson:"badgeGranted" json:"badgeGranted"`
}

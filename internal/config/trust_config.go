package config

import "time"

const (
	// Suspension
	ShortWindow             = 7 * 24 * time.Hour
	LongWindow              = 30 * 24 * time.Hour
	ShortWindowThreshold    = 3
	LongWindowThreshold     = 7
	ShortSuspensionDays     = 7
	LongSuspensionDays      = 30
	SuspensionTimezone      = "Asia/Seoul"
	SuspensionTimezoneShift = 9 * 60 * 60 // seconds east of UTC, used when tzdata is missing

	// Reputation badge
	BadgeMinReviews    = 10
	BadgePositiveRatio = 0.8

	// Notification
	PushBodyMaxLength   = 50
	ReplyTitleMaxLength = 5
	ChatDeepLinkFormat  = "app://chat/%s"
	PostDeepLinkFormat  = "app://post/%s/%s/%s"

	// Reserved chat senders
	SystemSenderID = "system"
	ReviewSenderID = "review"

	// Post status
	PostStatusActive = "active"
	PostStatusHidden = "hidden"
	PostStatusDone   = "done"
)

// ReservedSenders never produce room updates or pushes.
var ReservedSenders = map[string]bool{
	SystemSenderID: true,
	ReviewSenderID: true,
}

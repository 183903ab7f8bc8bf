// Package analysis provides the pure policy used by the trigger handlers:
// how report counts turn into suspension windows and how review tallies turn
// into the reputation badge. Nothing here touches storage.
package analysis

import (
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/models"
	"time"
)

var suspensionLocation = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation(config.SuspensionTimezone)
	if err != nil {
		return time.FixedZone("KST", config.SuspensionTimezoneShift)
	}
	return loc
}

// Location returns the zone suspension deadlines are aligned to.
func Location() *time.Location {
	return suspensionLocation
}

// NextMidnight returns the first local midnight strictly after now + days.
func NextMidnight(now time.Time, days int) time.Time {
	t := now.In(suspensionLocation).AddDate(0, 0, days)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, suspensionLocation).AddDate(0, 0, 1)
}

// Verdict is the outcome of evaluating a user's recent report counts.
type Verdict struct {
	// Candidate is the proposed suspension deadline, nil when no rule fired.
	Candidate        *time.Time
	NeedsAdminReview bool
	Rule             string
}

const (
	RuleNone  = ""
	RuleShort = "7d"
	RuleLong  = "30d"
)

// EvaluateReports applies the window thresholds. The 30-day rule wins when
// both fire.
func EvaluateReports(recent7Days, recent30Days int, now time.Time) Verdict {
	switch {
	case recent30Days >= config.LongWindowThreshold:
		c := NextMidnight(now, config.LongSuspensionDays)
		return Verdict{Candidate: &c, NeedsAdminReview: true, Rule: RuleLong}
	case recent7Days >= config.ShortWindowThreshold:
		c := NextMidnight(now, config.ShortSuspensionDays)
		return Verdict{Candidate: &c, Rule: RuleShort}
	default:
		return Verdict{}
	}
}

// ApplyReport folds one new report and its verdict into the current record.
// The deadline only ever moves later; extended reports whether it moved.
// Fields the verdict does not touch are carried over unchanged.
func ApplyReport(current models.TrustRecord, v Verdict, recent30Days int) (next models.TrustRecord, extended bool) {
	next = current
	next.Total = current.Total + 1
	next.Recent30Days = recent30Days
	if v.NeedsAdminReview {
		next.NeedsAdminReview = true
	}
	if v.Candidate != nil && (current.SuspendUntil == nil || v.Candidate.After(*current.SuspendUntil)) {
		c := *v.Candidate
		next.SuspendUntil = &c
		extended = true
	}
	return next, extended
}

// BadgeEligible reports whether a tally earns the reputation badge.
func BadgeEligible(total, positive int) bool {
	if total < config.BadgeMinReviews {
		return false
	}
	return float64(positive)/float64(total) >= config.BadgePositiveRatio
}

// ApplyReview folds one review value into the tally. A value of 0 counts
// toward Total only. The badge is recomputed from scratch, so it can be
// revoked as well as granted.
func ApplyReview(current models.ReputationRecord, value int) models.ReputationRecord {
	next := current
	next.Total++
	switch value {
	case 1:
		next.Positive++
	case -1:
		next.Negative++
	}
	next.BadgeGranted = BadgeEligible(next.Total, next.Positive)
	return next
}

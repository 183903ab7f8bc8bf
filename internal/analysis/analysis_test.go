package analysis_test

import (
	"gurimarket/backend/internal/analysis"
	"gurimarket/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kst(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, analysis.Location())
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		days int
		want time.Time
	}{
		{"afternoon", kst(2026, 3, 1, 15, 30), 7, kst(2026, 3, 9, 0, 0)},
		{"exactly midnight moves a full day", kst(2026, 3, 1, 0, 0), 7, kst(2026, 3, 9, 0, 0)},
		{"month rollover", kst(2026, 1, 25, 9, 0), 30, kst(2026, 2, 25, 0, 0)},
		// 2026-03-01 20:00 UTC is already 03-02 05:00 in Seoul.
		{"utc input uses local date", time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), 7, kst(2026, 3, 10, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.NextMidnight(tt.now, tt.days)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			assert.True(t, got.After(tt.now.AddDate(0, 0, tt.days)))
		})
	}
}

func TestEvaluateReports(t *testing.T) {
	now := kst(2026, 3, 1, 12, 0)

	t.Run("below thresholds", func(t *testing.T) {
		v := analysis.EvaluateReports(2, 6, now)
		assert.Nil(t, v.Candidate)
		assert.False(t, v.NeedsAdminReview)
	})

	t.Run("seven day rule", func(t *testing.T) {
		v := analysis.EvaluateReports(3, 3, now)
		require.NotNil(t, v.Candidate)
		assert.True(t, kst(2026, 3, 9, 0, 0).Equal(*v.Candidate))
		assert.False(t, v.NeedsAdminReview)
		assert.Equal(t, analysis.RuleShort, v.Rule)
	})

	t.Run("thirty day rule wins when both fire", func(t *testing.T) {
		v := analysis.EvaluateReports(5, 7, now)
		require.NotNil(t, v.Candidate)
		assert.True(t, kst(2026, 4, 1, 0, 0).Equal(*v.Candidate))
		assert.True(t, v.NeedsAdminReview)
		assert.Equal(t, analysis.RuleLong, v.Rule)
	})
}

func TestApplyReport_MonotonicDeadline(t *testing.T) {
	now := kst(2026, 3, 1, 12, 0)
	long := analysis.NextMidnight(now, 30)
	current := models.TrustRecord{Total: 9, Recent30Days: 7, SuspendUntil: &long, NeedsAdminReview: true}

	// A later event that only trips the 7-day rule must not shorten the suspension.
	next, extended := analysis.ApplyReport(current, analysis.EvaluateReports(3, 3, now.Add(time.Hour)), 3)

	assert.False(t, extended)
	require.NotNil(t, next.SuspendUntil)
	assert.True(t, long.Equal(*next.SuspendUntil))
	assert.Equal(t, 10, next.Total)
	assert.Equal(t, 3, next.Recent30Days)
	assert.True(t, next.NeedsAdminReview, "flag is preserved by merge")
}

func TestApplyReport_Extends(t *testing.T) {
	now := kst(2026, 3, 1, 12, 0)
	old := analysis.NextMidnight(now.AddDate(0, 0, -3), 7)
	current := models.TrustRecord{Total: 3, SuspendUntil: &old}

	next, extended := analysis.ApplyReport(current, analysis.EvaluateReports(3, 4, now), 4)

	assert.True(t, extended)
	assert.True(t, analysis.NextMidnight(now, 7).Equal(*next.SuspendUntil))
	assert.False(t, next.NeedsAdminReview)
}

func TestApplyReport_SameDeadlineIsNotExtension(t *testing.T) {
	now := kst(2026, 3, 1, 12, 0)
	deadline := analysis.NextMidnight(now, 7)
	current := models.TrustRecord{Total: 3, SuspendUntil: &deadline}

	_, extended := analysis.ApplyReport(current, analysis.EvaluateReports(3, 3, now.Add(time.Minute)), 3)

	assert.False(t, extended, "candidate must be strictly later")
}

func TestBadgeHysteresis(t *testing.T) {
	var rec models.ReputationRecord
	for i := 0; i < 9; i++ {
		rec = analysis.ApplyReview(rec, 1)
	}
	assert.False(t, rec.BadgeGranted, "9/9 is below the minimum review count")

	rec = analysis.ApplyReview(rec, 1)
	assert.True(t, rec.BadgeGranted, "10/10 earns the badge")

	rec = analysis.ApplyReview(rec, -1)
	assert.True(t, rec.BadgeGranted, "10/11 stays above 0.8")

	rec = analysis.ApplyReview(rec, -1)
	assert.True(t, rec.BadgeGranted, "10/12 stays above 0.8")

	rec = analysis.ApplyReview(rec, -1)
	assert.False(t, rec.BadgeGranted, "10/13 drops below 0.8 on this exact event")
	assert.Equal(t, models.ReputationRecord{Total: 13, Positive: 10, Negative: 3}, rec)
}

func TestApplyReview_NeutralCountsTowardTotalOnly(t *testing.T) {
	rec := models.ReputationRecord{Total: 10, Positive: 8, Negative: 2, BadgeGranted: true}

	rec = analysis.ApplyReview(rec, 0)

	assert.Equal(t, 11, rec.Total)
	assert.Equal(t, 8, rec.Positive)
	assert.Equal(t, 2, rec.Negative)
	assert.False(t, rec.BadgeGranted, "8/11 falls below 0.8")
}

func TestBadgeEligible_Boundary(t *testing.T) {
	assert.True(t, analysis.BadgeEligible(10, 8))
	assert.False(t, analysis.BadgeEligible(10, 7))
	assert.True(t, analysis.BadgeEligible(15, 12))
	assert.False(t, analysis.BadgeEligible(0, 0))
}

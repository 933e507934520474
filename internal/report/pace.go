package report

import (
	"fmt"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
)

// PaceCounts is a campaign's raw post volume split by role and week.
type PaceCounts struct {
	GMThis, PlayerThis int
	GMLast, PlayerLast int
}

// ThisWeek is the rolling 7-day total ending now.
func (p PaceCounts) ThisWeek() int { return p.GMThis + p.PlayerThis }

// LastWeek is the total for the 7 days before that.
func (p PaceCounts) LastWeek() int { return p.GMLast + p.PlayerLast }

// Trend classifies the week-over-week movement on daily averages,
// scaled to integers so the hysteresis band applies cleanly.
func (p PaceCounts) Trend() activity.Trend {
	return activity.Classify(p.ThisWeek()*100/7, p.LastWeek()*100/7)
}

// PaceReport formats the weekly pace comparison for one campaign.
func PaceReport(campaign string, p PaceCounts, now time.Time) string {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)
	icon := p.Trend().Icon()

	return fmt.Sprintf(
		"%s Weekly pace for %s:\n\nThis week (%s to %s):\n  GM: %d posts (%.1f/day)\n  Players: %d posts (%.1f/day)\n  Total: %d posts (%.1f/day)\n\nLast week (%s to %s):\n  GM: %d posts (%.1f/day)\n  Players: %d posts (%.1f/day)\n  Total: %d posts (%.1f/day)\n\nTrend: %s",
		icon, campaign,
		Date(weekAgo), Date(now),
		p.GMThis, float64(p.GMThis)/7,
		p.PlayerThis, float64(p.PlayerThis)/7,
		p.ThisWeek(), float64(p.ThisWeek())/7,
		Date(twoWeeksAgo), Date(weekAgo),
		p.GMLast, float64(p.GMLast)/7,
		p.PlayerLast, float64(p.PlayerLast)/7,
		p.LastWeek(), float64(p.LastWeek())/7,
		icon)
}

// Package activity derives posting statistics from raw message
// timestamps: posting sessions, windowed counts, average gaps, calendar
// streaks, and week-over-week trends. Everything here is pure; the
// caller supplies the clock.
package activity

import (
	"sort"
	"time"
)

// Sessions collapses bursts of posts into posting sessions. A post more
// than window after the current session's first post starts a new
// session and becomes its anchor. Returns the anchor timestamps,
// ascending. Input order does not matter.
func Sessions(stamps []time.Time, window time.Duration) []time.Time {
	if len(stamps) == 0 {
		return nil
	}
	sorted := make([]time.Time, len(stamps))
	copy(sorted, stamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	sessions := []time.Time{sorted[0]}
	for _, ts := range sorted[1:] {
		if ts.Sub(sessions[len(sessions)-1]) > window {
			sessions = append(sessions, ts)
		}
	}
	return sessions
}

// InWindow returns the timestamps with after <= t < before. A zero
// before leaves the window open-ended.
func InWindow(stamps []time.Time, after, before time.Time) []time.Time {
	var out []time.Time
	for _, ts := range stamps {
		if ts.Before(after) {
			continue
		}
		if !before.IsZero() && !ts.Before(before) {
			continue
		}
		out = append(out, ts)
	}
	return out
}

// AvgGapHours returns the mean gap in hours between consecutive
// timestamps. The second return is false when fewer than two timestamps
// leave the average undefined.
func AvgGapHours(stamps []time.Time) (float64, bool) {
	if len(stamps) < 2 {
		return 0, false
	}
	sorted := make([]time.Time, len(stamps))
	copy(sorted, stamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var total float64
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Sub(sorted[i-1]).Hours()
	}
	return total / float64(len(sorted)-1), true
}

// Streak counts consecutive calendar days (UTC) with at least one post,
// walking back from the most recent post's date. A latest post older
// than yesterday means no active streak.
func Streak(stamps []time.Time, now time.Time) int {
	if len(stamps) == 0 {
		return 0
	}

	days := make(map[time.Time]bool, len(stamps))
	var latest time.Time
	for _, ts := range stamps {
		day := dateOf(ts)
		days[day] = true
		if day.After(latest) {
			latest = day
		}
	}

	if dateOf(now).Sub(latest) > 24*time.Hour {
		return 0
	}

	streak := 1
	for d := latest.AddDate(0, 0, -1); days[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// --------------------------------------------------------------------------
// Trend classification
// --------------------------------------------------------------------------

// Trend compares a recent activity count against the previous period.
// The 15% dead zone keeps small wobbles from flapping between up and
// down.
type Trend int

const (
	TrendDormant Trend = iota // no posts either period
	TrendNew                  // posts now, none before
	TrendUp
	TrendDown
	TrendSteady
)

// Classify buckets recent vs previous period counts into a Trend.
func Classify(recent, previous int) Trend {
	switch {
	case previous == 0 && recent == 0:
		return TrendDormant
	case previous == 0:
		return TrendNew
	case float64(recent) > float64(previous)*1.15:
		return TrendUp
	case float64(recent) < float64(previous)*0.85:
		return TrendDown
	default:
		return TrendSteady
	}
}

// Icon returns the emoji used in reports for this trend.
func (t Trend) Icon() string {
	switch t {
	case TrendDormant:
		return "💤"
	case TrendNew:
		return "🆕"
	case TrendUp:
		return "📈"
	case TrendDown:
		return "📉"
	default:
		return "➡️"
	}
}

// Package report builds every outbound message the engine posts:
// command replies, roster summaries, the cross-campaign leaderboard,
// and the weekly digest. Formatting lives here so the checks stay thin.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
)

var rankIcons = []string{"🥇", "🥈", "🥉"}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Date formats a time as YYYY-MM-DD in UTC.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// LongDate formats a time like "February 05, 2025".
func LongDate(t time.Time) string {
	return t.UTC().Format("January 02, 2006")
}

// FullName joins first and last names, falling back to "Unknown".
func FullName(first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Mention renders a player reference like "Bob S (@bobs)".
func Mention(first, last, username string) string {
	name := FullName(first, last)
	if username != "" {
		name += " (@" + username + ")"
	}
	return name
}

// PostsStr pluralises a post count: "1 post", "5 posts".
func PostsStr(n int) string {
	if n == 1 {
		return "1 post"
	}
	return fmt.Sprintf("%d posts", n)
}

// Plural returns "s" unless n is 1.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Comma formats a count with thousands separators: 2500 -> "2,500".
func Comma(n int64) string {
	return humanize.Comma(n)
}

// RankIcon returns a medal for the top three, "N." beyond that.
func RankIcon(index int) string {
	if index < len(rankIcons) {
		return rankIcons[index]
	}
	return fmt.Sprintf("%d.", index+1)
}

// HealthIcon buckets a weekly post count into a traffic-light icon.
func HealthIcon(weekPosts int) string {
	switch {
	case weekPosts >= 20:
		return "🟢"
	case weekPosts >= 10:
		return "🟡"
	case weekPosts >= 5:
		return "🟠"
	default:
		return "🔴"
	}
}

// RelativeDate renders "5d ago (2026-02-10)" style labels.
func RelativeDate(now, then time.Time) string {
	days := int(now.Sub(then).Hours() / 24)
	date := Date(then)
	switch {
	case days == 0:
		return fmt.Sprintf("today (%s)", date)
	case days == 1:
		return fmt.Sprintf("yesterday (%s)", date)
	default:
		return fmt.Sprintf("%dd ago (%s)", days, date)
	}
}

// BriefRelative renders a compact relative label and the age in days.
// A zero time means no post was ever seen: ("never", 999).
func BriefRelative(now, then time.Time) (string, float64) {
	if then.IsZero() {
		return "never", 999
	}
	days := now.Sub(then).Hours() / 24
	switch {
	case days < 0.04:
		return "today", days
	case days < 1:
		return fmt.Sprintf("%dh ago", int(days*24)), days
	case days < 2:
		return "yesterday", days
	default:
		return fmt.Sprintf("%dd ago", int(days)), days
	}
}

// ElapsedLabel renders a duration as "30m", "3h" or "1d 2h".
func ElapsedLabel(d time.Duration) string {
	h := d.Hours()
	switch {
	case h < 1:
		return fmt.Sprintf("%dm", int(h*60))
	case h < 24:
		return fmt.Sprintf("%dh", int(h))
	default:
		return fmt.Sprintf("%dd %dh", int(h)/24, int(h)%24)
	}
}

// GapLabel renders the average gap between posting sessions: "N/A" when
// undefined, minutes under an hour, otherwise "X.X hours".
func GapLabel(stamps []time.Time, burst time.Duration) string {
	sessions := activity.Sessions(stamps, burst)
	gap, ok := activity.AvgGapHours(sessions)
	if !ok {
		return "N/A"
	}
	if gap < 1 {
		return fmt.Sprintf("%.0f minutes", gap*60)
	}
	return fmt.Sprintf("%.1f hours", gap)
}

// GapHoursLabel renders an average gap for compact displays: "4.2h".
func GapHoursLabel(gap float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1fh", gap)
}

// HTMLEscape escapes text for Telegram HTML parse mode.
func HTMLEscape(s string) string {
	return htmlEscaper.Replace(s)
}

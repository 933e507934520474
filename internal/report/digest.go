package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
)

// WeeklyDigest formats the one-message community recap: a traffic-light
// health line per campaign, overall totals, and the week's MVP.
func WeeklyDigest(board rank.Leaderboard, groupName string, now time.Time) string {
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var b strings.Builder
	fmt.Fprintf(&b, "📰 %s Weekly Digest (%s to %s)\n", groupName, Date(weekAgo), Date(now))

	var total int
	for _, cs := range board.Campaigns {
		total += cs.Total7d
		fmt.Fprintf(&b, "\n%s %s: %s this week", HealthIcon(cs.Total7d), cs.Name, PostsStr(cs.Total7d))
		if cs.Total7d > 0 {
			fmt.Fprintf(&b, " %s", cs.Trend.Icon())
		}
	}

	fmt.Fprintf(&b, "\n\nAcross all campaigns: %s by the whole group.", PostsStr(total))
	if mvp, ok := board.MVP(); ok {
		fmt.Fprintf(&b, "\n🏆 MVP: %s with %s across %d campaign%s.",
			mvp.FullName, PostsStr(mvp.Sessions), mvp.Campaigns, Plural(mvp.Campaigns))
	}
	return b.String()
}

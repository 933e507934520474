package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// UserStats is one roster entry's activity summary.
type UserStats struct {
	Total     int
	Sessions  int
	WeekCount int
	AvgGap    string
	LastPost  string
	Streak    int
}

// GatherUserStats summarises one user's posting record for roster and
// stats displays.
func GatherUserStats(stamps []time.Time, total int64, burst time.Duration, now time.Time) UserStats {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	sessions := activity.Sessions(stamps, burst)
	week := activity.Sessions(activity.InWindow(stamps, weekAgo, time.Time{}), burst)

	st := UserStats{
		Total:     int(total),
		Sessions:  len(sessions),
		WeekCount: len(week),
		AvgGap:    GapLabel(stamps, burst),
		LastPost:  "N/A",
		Streak:    activity.Streak(stamps, now),
	}
	if last, ok := latest(stamps); ok {
		st.LastPost = RelativeDate(now, last)
	}
	return st
}

// RosterBlock formats a single roster entry.
func RosterBlock(label, username string, st UserStats) string {
	var b strings.Builder
	b.WriteString(label + "\n")
	if username != "" {
		fmt.Fprintf(&b, "- @%s.\n", username)
	}
	fmt.Fprintf(&b, "- %s total.\n", PostsStr(st.Total))
	fmt.Fprintf(&b, "- %d posting session%s.\n", st.Sessions, Plural(st.Sessions))
	fmt.Fprintf(&b, "- %s in the last week.\n", PostsStr(st.WeekCount))
	fmt.Fprintf(&b, "- Average gap between posting: %s.\n", st.AvgGap)
	fmt.Fprintf(&b, "- Last post: %s.", st.LastPost)
	if st.Streak >= 2 {
		fmt.Fprintf(&b, "\n- %d-day streak 🔥.", st.Streak)
	}
	return b.String()
}

// RosterSummary assembles the periodic party roster message: one block
// per player with posting history, most posts first, GM on top. Returns
// "" when there is nothing to report.
func RosterSummary(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign int64, set config.Settings, now time.Time) string {
	name := maps.Name(campaign)
	ids := snap.RosterIDs(campaign)
	counts := snap.Counts[campaign]
	if len(ids) == 0 && len(counts) == 0 {
		return ""
	}

	sort.SliceStable(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })

	var blocks []string
	for _, uid := range ids {
		stamps := snap.UserTimestamps(campaign, uid)
		if len(stamps) == 0 {
			continue
		}
		p, _ := snap.Player(campaign, uid)
		st := GatherUserStats(stamps, counts[uid], set.BurstWindow(), now)
		blocks = append(blocks, RosterBlock(FullName(p.FirstName, p.LastName), p.Username, st))
	}

	for gm := range maps.GMSet(campaign) {
		stamps := snap.UserTimestamps(campaign, gm)
		if counts[gm] == 0 || len(stamps) == 0 {
			continue
		}
		st := GatherUserStats(stamps, counts[gm], set.BurstWindow(), now)
		blocks = append([]string{RosterBlock("GM", "", st)}, blocks...)
	}

	if len(blocks) == 0 {
		return ""
	}

	footer := fmt.Sprintf("\nParty size: %d/%d.", len(ids), set.RequiredPlayers)
	if len(ids) < set.RequiredPlayers {
		needed := set.RequiredPlayers - len(ids)
		footer += fmt.Sprintf("\n%s needs %d more player%s!", name, needed, Plural(needed))
	}
	return fmt.Sprintf("Party roster for %s:\n\n", name) + strings.Join(blocks, "\n\n") + footer
}

func latest(stamps []time.Time) (time.Time, bool) {
	var max time.Time
	for _, ts := range stamps {
		if ts.After(max) {
			max = ts
		}
	}
	return max, !max.IsZero()
}

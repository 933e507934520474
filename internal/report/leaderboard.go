package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
)

const sectionRule = "━━━━━━━━━━━━━━━━"

// Leaderboard formats the cross-campaign board: active campaigns ranked
// by player volume with their top posters, dead campaigns, the response
// gap ranking, active streaks, top players across campaigns, and the MVP
// prize line.
func Leaderboard(board rank.Leaderboard, now time.Time) string {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	_, week := now.UTC().ISOWeek()

	var active, dead []rank.CampaignStats
	for _, cs := range board.Campaigns {
		if cs.Total7d > 0 {
			active = append(active, cs)
		} else {
			dead = append(dead, cs)
		}
	}

	var playerTotal, gmTotal int
	for _, cs := range board.Campaigns {
		playerTotal += cs.Player7d
		gmTotal += cs.GM7d
	}

	lines := []string{
		fmt.Sprintf("📊 Weekly Campaign Leaderboard (Week %d: %s to %s)", week, Date(weekAgo), Date(now)),
		fmt.Sprintf("This week: %s (%d player / %d GM).", PostsStr(playerTotal+gmTotal), playerTotal, gmTotal),
	}

	for i, cs := range active {
		label, _ := BriefRelative(now, cs.LastPost)
		block := fmt.Sprintf(
			"[%s %s %s]\n- %d player posts.\n- %s total.\n- %d GM posts.\n- Avg gap: %s.\n- Last post: %s.",
			RankIcon(i), cs.Name, cs.Trend.Icon(),
			cs.Player7d, PostsStr(cs.Total7d), cs.GM7d,
			GapHoursLabel(cs.AvgGapAll, cs.AvgGapOK), label)

		var posters []string
		for j, p := range cs.TopPosters {
			b := RankIcon(j) + " " + p.FullName + "\n"
			if p.Username != "" {
				b += "- @" + p.Username + "\n"
			}
			b += "- " + PostsStr(p.Sessions)
			posters = append(posters, b)
		}

		lines = append(lines, "\n"+sectionRule+"\n\n"+block+"\n\n"+strings.Join(posters, "\n"))
	}

	if len(dead) > 0 {
		lines = append(lines, "\n⚠️ Dead campaigns (0 posts in 7 days):")
		for _, cs := range dead {
			label, _ := BriefRelative(now, cs.LastPost)
			lines = append(lines, fmt.Sprintf("💀 [%s] (last post: %s)", cs.Name, label))
		}
	}

	var gapRanked []rank.CampaignStats
	for _, cs := range board.Campaigns {
		if cs.PlayerGapOK {
			gapRanked = append(gapRanked, cs)
		}
	}
	if len(gapRanked) > 0 {
		sort.Slice(gapRanked, func(i, j int) bool { return gapRanked[i].PlayerGap < gapRanked[j].PlayerGap })
		lines = append(lines, "\n"+sectionRule+"\n\n⏱ Fastest player response gaps:")
		for i, cs := range gapRanked {
			lines = append(lines, fmt.Sprintf("%s %s: %s", RankIcon(i), cs.Name, GapHoursLabel(cs.PlayerGap, true)))
		}
	}

	if len(board.Streaks) > 0 {
		lines = append(lines, "\n"+sectionRule+"\n\n🔥 Longest Active Streaks:")
		for i, s := range board.Streaks {
			lines = append(lines, fmt.Sprintf("%s %s: %d-day streak (%s)", RankIcon(i), s.Name, s.Streak, s.Campaign))
		}
	}

	if len(board.Global) > 0 {
		lines = append(lines, "\n"+sectionRule)
		var blocks []string
		for i, g := range board.Global {
			word := "campaigns"
			if g.Campaigns == 1 {
				word = "campaign"
			}
			b := RankIcon(i) + " " + g.FullName + "\n"
			if g.Username != "" {
				b += "- @" + g.Username + "\n"
			}
			b += fmt.Sprintf("- %s across %d %s", PostsStr(g.Sessions), g.Campaigns, word)
			blocks = append(blocks, b)
		}
		lines = append(lines, "\n⭐ Top Players of the Week:\n\n"+strings.Join(blocks, "\n\n"))

		if mvp, ok := board.MVP(); ok {
			lines = append(lines, fmt.Sprintf("\n🏆 MVP of the Week: %s. Claim a Hero Point from your GM!", mvp.FullName))
		}
	}

	return strings.Join(lines, "\n")
}

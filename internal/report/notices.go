package report

import (
	"fmt"
	"strings"
	"time"
)

// Inactivity warning templates by week threshold. Week 3 doubles as the
// fallback for any later configured step before removal.
var warningTemplates = map[int]string{
	1: "%s hasn't posted in %s PBP for %d days (last: %s). Everything okay?",
	2: "%s still no post in %s PBP. It's been %d days now (last: %s).",
	3: "%s it's been %d days without a post in %s PBP (last: %s). 1 week until auto-removal from the campaign.",
}

// InactivityAlert names the last poster and how long the topic has been
// quiet.
func InactivityAlert(campaign, lastUser string, totalPosts int64, lastPost, now time.Time) string {
	countStr := ""
	if totalPosts > 0 {
		countStr = fmt.Sprintf(" (%d total posts)", totalPosts)
	}
	return fmt.Sprintf("No new posts in %s PBP for %s.\nLast post was from %s%s on %s.",
		campaign, ElapsedLabel(now.Sub(lastPost)), lastUser, countStr, Date(lastPost))
}

// Warning renders the ladder step for a silent player.
func Warning(week int, mention, campaign string, daysSilent int, lastPost time.Time) string {
	tmpl, ok := warningTemplates[week]
	if !ok {
		tmpl = warningTemplates[3]
	}
	if week >= 3 {
		return fmt.Sprintf(tmpl, mention, daysSilent, campaign, Date(lastPost))
	}
	return fmt.Sprintf(tmpl, mention, campaign, daysSilent, Date(lastPost))
}

// Removal announces a player dropping off the tracked roster.
func Removal(mention, campaign string, daysSilent int, lastPost time.Time) string {
	return fmt.Sprintf(
		"%s has not posted in %s PBP for %d days (last: %s). They are no longer tracked as an active player in this campaign.",
		mention, campaign, daysSilent, Date(lastPost))
}

// Recruitment asks the group to fill open campaign seats.
func Recruitment(campaign string, roster []string, required int) string {
	needed := required - len(roster)
	var section string
	if len(roster) > 0 {
		section = fmt.Sprintf("Current roster (%d/%d):\n- %s", len(roster), required, strings.Join(roster, "\n- "))
	} else {
		section = fmt.Sprintf("Current roster: 0/%d (no active players)", required)
	}
	return fmt.Sprintf("📢 %s needs %d more player%s!\n\n%s\n\nKnow anyone who'd like to join? Send them to the recruitment topic!",
		campaign, needed, Plural(needed), section)
}

// Anniversary celebrates a campaign birthday.
func Anniversary(campaign string, years int, created time.Time) string {
	yearStr := "1 year"
	if years != 1 {
		yearStr = fmt.Sprintf("%d years", years)
	}
	return fmt.Sprintf("🎂 %s is %s old today!\n\nCampaign started %s. Here's to more adventures ahead.",
		campaign, yearStr, LongDate(created))
}

// StreakMilestone celebrates a calendar-day posting streak.
func StreakMilestone(name, campaign string, days int) string {
	return fmt.Sprintf("🔥 %s just hit a %d-day posting streak in %s! Keep the momentum going.", name, days, campaign)
}

// CampaignMilestone celebrates a campaign's lifetime message count.
func CampaignMilestone(campaign string, count int64) string {
	return fmt.Sprintf("🎉 %s just crossed %s messages! What a story so far.", campaign, Comma(count))
}

// GlobalMilestone celebrates the whole group's lifetime message count.
func GlobalMilestone(groupName string, count int64) string {
	return fmt.Sprintf("🌍 The %s community just crossed %s messages across all campaigns! Thanks for keeping the stories alive.",
		groupName, Comma(count))
}

// CombatPing lists the players holding up the current round.
func CombatPing(round int, missing []string, phaseStart, now time.Time) string {
	hours := int(now.Sub(phaseStart).Hours())
	return fmt.Sprintf("Round %d - waiting on: %s\n(%dh since players' phase started on %s)",
		round, strings.Join(missing, ", "), hours, Date(phaseStart))
}

// AllActed tells the GM every player has posted this round.
func AllActed(round int) string {
	return fmt.Sprintf("All players have posted for round %d. The enemies' phase awaits the GM!", round)
}

// PaceDrop flags a campaign whose posting volume halved week over week.
func PaceDrop(campaign string, thisWeek, lastWeek int) string {
	return fmt.Sprintf("📉 Pace check: %s is at %s this week, down from %s last week. Everything alright over there?",
		campaign, PostsStr(thisWeek), PostsStr(lastWeek))
}

// SilenceAlert nudges a campaign whose topic has gone quiet for days.
func SilenceAlert(campaign string, lastPost, now time.Time) string {
	return fmt.Sprintf("💤 %s has been silent for %s. Anyone up for a post to revive the scene?",
		campaign, ElapsedLabel(now.Sub(lastPost)))
}

// DailyTip wraps one rotation entry.
func DailyTip(tip string) string {
	return "💡 PBP tip of the day: " + tip
}

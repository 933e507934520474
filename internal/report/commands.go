package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/combat"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// Status builds the /status reply for one campaign: party size, recency,
// weekly volume, combat, and anyone quiet or away.
func Status(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign int64, set config.Settings, now time.Time) string {
	name := maps.Name(campaign)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Status for %s:\n", name)

	if p := snap.Paused[campaign]; p != nil {
		reason := p.Reason
		if reason == "" {
			reason = "no reason given"
		}
		fmt.Fprintf(&b, "\n⏸️ PAUSED: %s\n", reason)
	}

	fmt.Fprintf(&b, "\nParty: %d/%d players.\n", snap.RosterSize(campaign), set.RequiredPlayers)

	if t := snap.Topics[campaign]; t != nil {
		label, _ := BriefRelative(now, t.LastPostAt)
		fmt.Fprintf(&b, "Last post: %s by %s.\n", label, t.LastUserName)
	} else {
		b.WriteString("Last post: never.\n")
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	week := 0
	for _, stamps := range snap.CampaignTimestamps(campaign) {
		week += len(activity.Sessions(activity.InWindow(stamps, weekAgo, time.Time{}), set.BurstWindow()))
	}
	fmt.Fprintf(&b, "This week: %s.\n", PostsStr(week))

	if c := snap.Combats[campaign]; c != nil {
		fmt.Fprintf(&b, "⚔️ Combat: Round %d, %s' turn.\n", c.Round, strings.ToLower(c.Phase.Label()))
	}

	var atRisk, away []string
	for _, uid := range snap.RosterIDs(campaign) {
		p, _ := snap.Player(campaign, uid)
		if a, ok := snap.AwayFor(campaign, uid, now); ok {
			away = append(away, fmt.Sprintf("- %s: %s", FullName(p.FirstName, p.LastName), awayLabel(a)))
			continue
		}
		if p.LastPostAt.IsZero() {
			continue
		}
		if days := int(now.Sub(p.LastPostAt).Hours() / 24); days >= 7 {
			atRisk = append(atRisk, fmt.Sprintf("- %s: %dd since last post", FullName(p.FirstName, p.LastName), days))
		}
	}
	if len(atRisk) > 0 {
		b.WriteString("\nAt risk (7+ days quiet):\n" + strings.Join(atRisk, "\n") + "\n")
	}
	if len(away) > 0 {
		b.WriteString("\n✈️ Away:\n" + strings.Join(away, "\n") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func awayLabel(a *snapshot.Away) string {
	label := "away"
	if a.Reason != "" {
		label += ": " + a.Reason
	}
	if !a.Until.IsZero() {
		label += fmt.Sprintf(" (until %s)", Date(a.Until))
	}
	return label
}

// MyStats builds the /mystats reply for one user in one campaign.
func MyStats(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign, user int64, set config.Settings, now time.Time) string {
	name := maps.Name(campaign)
	stamps := snap.UserTimestamps(campaign, user)
	total := snap.Counts[campaign][user]
	if total == 0 && len(stamps) == 0 {
		return fmt.Sprintf("No posts tracked for you in %s yet.", name)
	}

	role := "Player"
	if maps.IsGM(campaign, user) {
		role = "GM"
	}
	st := GatherUserStats(stamps, total, set.BurstWindow(), now)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your stats for %s (%s):\n", name, role)
	if char, ok := maps.CharacterName(campaign, user); ok {
		fmt.Fprintf(&b, "- Character: %s.\n", char)
	}
	fmt.Fprintf(&b, "- %s total.\n", PostsStr(st.Total))
	fmt.Fprintf(&b, "- %d posting session%s.\n", st.Sessions, Plural(st.Sessions))
	fmt.Fprintf(&b, "- %s in the last week.\n", PostsStr(st.WeekCount))
	fmt.Fprintf(&b, "- Avg gap between posts: %s.\n", st.AvgGap)
	fmt.Fprintf(&b, "- Last post: %s.", st.LastPost)
	if st.Streak >= 2 {
		fmt.Fprintf(&b, "\n- %d-day streak 🔥.", st.Streak)
	}
	return b.String()
}

// Party builds the /party reply: configured characters split by whether
// their player is still on the active roster.
func Party(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign int64, now time.Time) string {
	name := maps.Name(campaign)
	pair := maps.Pair(campaign)
	if pair == nil || len(pair.Characters) == 0 {
		return fmt.Sprintf("%s has no characters configured.", name)
	}

	ids := make([]int64, 0, len(pair.Characters))
	for uid := range pair.Characters {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var active, inactive []string
	for _, uid := range ids {
		char := pair.Characters[uid]
		p, ok := snap.Player(campaign, uid)
		if !ok {
			inactive = append(inactive, "- "+char)
			continue
		}
		line := fmt.Sprintf("- %s (%s)", char, FullName(p.FirstName, p.LastName))
		if a, isAway := snap.AwayFor(campaign, uid, now); isAway {
			line += " ✈️ away"
			if a.Reason != "" {
				line += ": " + a.Reason
			}
		}
		active = append(active, line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎭 Party of %s:\n", name)
	if len(active) > 0 {
		b.WriteString("\nActive:\n" + strings.Join(active, "\n") + "\n")
	}
	if len(inactive) > 0 {
		b.WriteString("\nInactive:\n" + strings.Join(inactive, "\n") + "\n")
	}
	fmt.Fprintf(&b, "\n%d active, %d inactive.", len(active), len(inactive))
	return b.String()
}

// WhosTurn builds the /whosturn reply from the campaign's combat record.
func WhosTurn(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign int64, now time.Time) string {
	name := maps.Name(campaign)
	c := snap.Combats[campaign]
	if c == nil {
		return fmt.Sprintf("No active combat in %s.", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %s, Round %d: %s' turn", name, c.Round, c.Phase.Label())
	if !c.PhaseStartedAt.IsZero() && now.After(c.PhaseStartedAt) {
		fmt.Fprintf(&b, " (%s so far)", ElapsedLabel(now.Sub(c.PhaseStartedAt)))
	}
	b.WriteString(".\n")

	if len(c.Enemies) > 0 {
		fmt.Fprintf(&b, "Enemies: %s.\n", strings.Join(c.Enemies, ", "))
	}

	if c.Phase == combat.PhaseEnemies {
		b.WriteString("Waiting on the GM.")
		return b.String()
	}

	var acted []string
	for _, uid := range c.ActedIDs() {
		acted = append(acted, rosterName(snap, campaign, uid))
	}
	var waiting []string
	for _, uid := range c.Missing(snap.RosterIDs(campaign)) {
		waiting = append(waiting, rosterName(snap, campaign, uid))
	}

	if len(acted) == 0 {
		b.WriteString("Acted: nobody yet.\n")
	} else {
		fmt.Fprintf(&b, "Acted: %s.\n", strings.Join(acted, ", "))
	}
	if len(waiting) == 0 {
		b.WriteString("Waiting on: nobody, the round is ready to advance!")
	} else {
		fmt.Fprintf(&b, "Waiting on: %s.", strings.Join(waiting, ", "))
	}
	return b.String()
}

func rosterName(snap *snapshot.Snapshot, campaign, user int64) string {
	if p, ok := snap.Player(campaign, user); ok {
		return FullName(p.FirstName, p.LastName)
	}
	return fmt.Sprintf("User %d", user)
}

// Catchup builds the /catchup reply: everything posted since the asking
// user's own last post, grouped by author.
func Catchup(snap *snapshot.Snapshot, maps *config.TopicMaps, campaign, user int64, now time.Time) string {
	name := maps.Name(campaign)
	mine := snap.UserTimestamps(campaign, user)
	if len(mine) == 0 {
		return fmt.Sprintf("You have no posting history in %s yet.", name)
	}
	myLast, _ := latest(mine)

	var gmCount int
	counts := make(map[int64]int)
	for uid, stamps := range snap.CampaignTimestamps(campaign) {
		if uid == user {
			continue
		}
		n := 0
		for _, ts := range stamps {
			if ts.After(myLast) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		if maps.IsGM(campaign, uid) {
			gmCount += n
		} else {
			counts[uid] = n
		}
	}

	total := gmCount
	for _, n := range counts {
		total += n
	}

	var b strings.Builder
	switch {
	case total == 0 && now.Sub(myLast) < time.Hour:
		fmt.Fprintf(&b, "✅ You're all caught up in %s!", name)
	case total == 0:
		fmt.Fprintf(&b, "Nobody has posted in %s since your last post (%s). The floor is yours!",
			name, RelativeDate(now, myLast))
	default:
		fmt.Fprintf(&b, "📬 %s since your last post in %s (%s):\n",
			PostsStr(total), name, RelativeDate(now, myLast))
		if gmCount > 0 {
			fmt.Fprintf(&b, "- GM: %s\n", PostsStr(gmCount))
		}
		ids := make([]int64, 0, len(counts))
		for uid := range counts {
			ids = append(ids, uid)
		}
		sort.Slice(ids, func(i, j int) bool {
			if counts[ids[i]] != counts[ids[j]] {
				return counts[ids[i]] > counts[ids[j]]
			}
			return ids[i] < ids[j]
		})
		for _, uid := range ids {
			fmt.Fprintf(&b, "- %s: %s\n", rosterName(snap, campaign, uid), PostsStr(counts[uid]))
		}
	}

	if c := snap.Combats[campaign]; c != nil && c.Phase == combat.PhasePlayers {
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		if c.HasActed(user) {
			fmt.Fprintf(&b, "⚔️ Combat: Round %d, you've already acted this round.", c.Round)
		} else {
			fmt.Fprintf(&b, "⚔️ Combat: Round %d, you haven't acted yet this round.", c.Round)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Overview builds the /overview reply: one line per configured campaign.
func Overview(snap *snapshot.Snapshot, maps *config.TopicMaps, now time.Time) string {
	if len(maps.Campaigns) == 0 {
		return "No campaigns configured."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Overview of %d campaign%s:\n\n", len(maps.Campaigns), Plural(len(maps.Campaigns)))
	for _, campaign := range maps.Campaigns {
		last := "never"
		if t := snap.Topics[campaign]; t != nil {
			last, _ = BriefRelative(now, t.LastPostAt)
		}
		line := fmt.Sprintf("- %s: last post %s, %d active players", maps.Name(campaign), last, snap.RosterSize(campaign))
		if snap.IsPaused(campaign) {
			line += " ⏸️"
		}
		if snap.Combats[campaign] != nil {
			line += " ⚔️"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// CombatStarted announces a fresh combat.
func CombatStarted(name string, enemies []string) string {
	msg := fmt.Sprintf("⚔️ Combat started in %s! Round 1, players' turn.", name)
	if len(enemies) > 0 {
		msg += "\nEnemies: " + strings.Join(enemies, ", ") + "."
	}
	return msg
}

// RoundSet announces an explicit /round change.
func RoundSet(round int, phase combat.Phase) string {
	return fmt.Sprintf("Round %d. %s' turn.", round, phase.Label())
}

// PhaseAdvanced announces the state after a /next.
func PhaseAdvanced(c *combat.State) string {
	if c.Phase == combat.PhaseEnemies {
		return fmt.Sprintf("⚔️ Round %d: Enemies' turn. Over to the GM.", c.Round)
	}
	return fmt.Sprintf("⚔️ Round %d: Players' turn. Everyone in!", c.Round)
}

// EnemyRoster announces an /enemies update.
func EnemyRoster(enemies []string) string {
	if len(enemies) == 0 {
		return "⚔️ Enemy roster cleared."
	}
	return fmt.Sprintf("⚔️ Enemy roster updated: %s.", strings.Join(enemies, ", "))
}

// CombatEnded summarises a finished combat, replaying the log.
func CombatEnded(name string, c *combat.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Combat ended in %s after %d round%s.", name, c.Round, Plural(c.Round))
	if len(c.Log) > 0 {
		b.WriteString("\n\nHighlights:")
		for _, e := range c.Log {
			fmt.Fprintf(&b, "\nR%d: %s", e.Round, e.Text)
		}
	}
	return b.String()
}

// CombatLog formats the running combat log for display.
func CombatLog(name string, c *combat.State) string {
	if c == nil {
		return fmt.Sprintf("No active combat in %s.", name)
	}
	if len(c.Log) == 0 {
		return fmt.Sprintf("⚔️ Combat log for %s is empty.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ Combat log for %s:\n", name)
	for _, e := range c.Log {
		fmt.Fprintf(&b, "R%d: %s\n", e.Round, e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HelpText is the /help and /pbphelp reply.
const HelpText = `📖 Play-by-post bot commands:

Everyone:
/status — campaign health at a glance
/mystats (or /me) — your posting stats
/party — who plays whom
/whosturn — who still owes an action
/catchup — what happened since your last post
/overview — every campaign at a glance
/combatlog — show the combat log
/away [days] [reason] — pause your warnings while you travel
/back — clear your away status

GM only:
/pause [reason] — pause all checks for this campaign
/resume — resume checks
/combat [enemy, enemy, ...] — start combat tracking
/round N players|enemies — set round and phase
/next — advance one phase
/enemies [enemy, enemy, ...] — update the enemy list
/clog [text] — note a combat event
/endcombat — stop combat tracking`

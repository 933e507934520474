package intake

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/combat"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// handleCommand dispatches one slash command. Returns false for text that
// is not a recognised command. GM-only commands from non-GMs are dropped
// without a reply, matching how the group treats stray slash text.
func (p *Processor) handleCommand(ctx context.Context, maps *config.TopicMaps, campaign int64, msg *telegram.Message, text string, now time.Time, res *Result) bool {
	cmd, args, _ := strings.Cut(text, " ")
	cmd = strings.ToLower(cmd)
	args = strings.TrimSpace(args)

	snap := p.Snapshot
	set := p.Config.Settings()
	name := maps.Name(campaign)
	from := msg.From
	isGM := maps.IsGM(campaign, from.ID)

	switch cmd {
	case "/help", "/pbphelp":
		p.reply(ctx, msg.ThreadID, report.HelpText, res)

	case "/status":
		p.reply(ctx, msg.ThreadID, report.Status(snap, maps, campaign, set, now), res)

	case "/mystats", "/me":
		p.reply(ctx, msg.ThreadID, report.MyStats(snap, maps, campaign, from.ID, set, now), res)

	case "/party":
		p.reply(ctx, msg.ThreadID, report.Party(snap, maps, campaign, now), res)

	case "/whosturn":
		p.reply(ctx, msg.ThreadID, report.WhosTurn(snap, maps, campaign, now), res)

	case "/catchup":
		p.reply(ctx, msg.ThreadID, report.Catchup(snap, maps, campaign, from.ID, now), res)

	case "/overview":
		p.reply(ctx, msg.ThreadID, report.Overview(snap, maps, now), res)

	case "/combatlog":
		p.reply(ctx, msg.ThreadID, report.CombatLog(name, snap.Combats[campaign]), res)

	case "/away":
		p.handleAway(ctx, campaign, msg, args, now, res)

	case "/back":
		delete(snap.Away, snapshot.Key(campaign, from.ID))
		p.reply(ctx, msg.ThreadID, "👋 Welcome back, "+from.FirstName+"! Warnings resume as normal.", res)

	case "/pause":
		if !isGM {
			return false
		}
		snap.Paused[campaign] = &snapshot.Pause{At: now, Reason: args}
		p.reply(ctx, msg.ThreadID, "⏸️ "+name+" is paused. Checks stay quiet until /resume.", res)

	case "/resume":
		if !isGM {
			return false
		}
		delete(snap.Paused, campaign)
		p.reply(ctx, msg.ThreadID, "▶️ "+name+" has resumed. Checks are back on.", res)

	case "/combat":
		if !isGM {
			return false
		}
		if args == "end" {
			return p.endCombat(ctx, campaign, msg, name, res)
		}
		snap.Combats[campaign] = combat.Begin(splitList(args), now)
		p.reply(ctx, msg.ThreadID, report.CombatStarted(name, snap.Combats[campaign].Enemies), res)

	case "/round":
		if !isGM {
			return false
		}
		round, phase, ok := parseRound(args)
		if !ok {
			return false
		}
		c := snap.Combats[campaign]
		if c == nil {
			c = combat.Begin(nil, now)
			snap.Combats[campaign] = c
		}
		c.Set(round, phase, now)
		p.reply(ctx, msg.ThreadID, report.RoundSet(round, phase), res)

	case "/next":
		if !isGM {
			return false
		}
		c := snap.Combats[campaign]
		if c == nil {
			p.reply(ctx, msg.ThreadID, "No active combat in "+name+".", res)
			return true
		}
		c.Advance(now)
		p.reply(ctx, msg.ThreadID, report.PhaseAdvanced(c), res)

	case "/enemies":
		if !isGM {
			return false
		}
		c := snap.Combats[campaign]
		if c == nil {
			p.reply(ctx, msg.ThreadID, "No active combat in "+name+".", res)
			return true
		}
		c.Enemies = splitList(args)
		p.reply(ctx, msg.ThreadID, report.EnemyRoster(c.Enemies), res)

	case "/clog":
		if !isGM {
			return false
		}
		c := snap.Combats[campaign]
		if c == nil || args == "" {
			return false
		}
		c.AppendLog(args, now)
		p.reply(ctx, msg.ThreadID, "📝 Logged for round "+strconv.Itoa(c.Round)+".", res)

	case "/endcombat":
		if !isGM {
			return false
		}
		return p.endCombat(ctx, campaign, msg, name, res)

	default:
		return false
	}
	return true
}

func (p *Processor) handleAway(ctx context.Context, campaign int64, msg *telegram.Message, args string, now time.Time, res *Result) {
	until, reason := parseAway(args, now)
	p.Snapshot.Away[snapshot.Key(campaign, msg.From.ID)] = &snapshot.Away{At: now, Until: until, Reason: reason}

	text := "✈️ " + msg.From.FirstName + " is marked away"
	if !until.IsZero() {
		text += " until " + report.Date(until)
	}
	text += ". Warnings and combat pings are paused; post or send /back to return."
	p.reply(ctx, msg.ThreadID, text, res)
}

func (p *Processor) endCombat(ctx context.Context, campaign int64, msg *telegram.Message, name string, res *Result) bool {
	c := p.Snapshot.Combats[campaign]
	if c == nil {
		return false
	}
	p.reply(ctx, msg.ThreadID, report.CombatEnded(name, c), res)
	delete(p.Snapshot.Combats, campaign)
	return true
}

// splitList parses a comma-separated enemy list, dropping empties.
func splitList(args string) []string {
	if args == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(args, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRound parses "/round <N> <players|enemies>" arguments.
func parseRound(args string) (int, combat.Phase, bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return 0, "", false
	}
	round, err := strconv.Atoi(fields[0])
	if err != nil || round < 1 {
		return 0, "", false
	}
	phase := combat.Phase(strings.ToLower(fields[1]))
	if !phase.Valid() {
		return 0, "", false
	}
	return round, phase, true
}

// parseAway reads an optional leading duration from /away arguments:
// "3 days vacation" pins a return date and keeps the rest as the reason,
// anything else is an indefinite absence with the whole text as reason.
func parseAway(args string, now time.Time) (time.Time, string) {
	fields := strings.Fields(args)
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
			var days int
			switch strings.ToLower(fields[1]) {
			case "day", "days", "d":
				days = n
			case "week", "weeks", "w":
				days = n * 7
			}
			if days > 0 {
				reason := strings.Join(fields[2:], " ")
				if reason == "" {
					reason = "Away"
				}
				return now.Add(time.Duration(days) * 24 * time.Hour), reason
			}
		}
	}
	if args == "" {
		return time.Time{}, "No reason given"
	}
	return time.Time{}, args
}

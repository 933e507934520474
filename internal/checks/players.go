package checks

import (
	"context"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// warningLadder warns silent players at each configured week mark and
// removes them past the removal threshold. Thresholds are tested
// ascending and the walk stops at the first unmet one, so a player gets
// at most one message per run and never skips a step, however irregular
// the run schedule is. Paused campaigns and away players sit the whole
// ladder out.
func (e *Engine) warningLadder(ctx context.Context, r *run) {
	snap := e.Snapshot

	var removals []snapshot.PlayerKey
	for _, key := range sortedPlayerKeys(snap.Players) {
		player := snap.Players[key]
		pair := r.maps.Pair(key.Campaign)
		if pair == nil || !pair.FeatureEnabled(config.FeatureWarnings) {
			continue
		}
		if snap.IsPaused(key.Campaign) {
			continue
		}
		if _, away := snap.AwayFor(key.Campaign, key.User, r.now); away {
			continue
		}

		daysSilent := int(r.now.Sub(player.LastPostAt).Hours() / 24)
		currentWeek := daysSilent / 7
		mention := report.Mention(player.FirstName, player.LastName, player.Username)
		thread := r.maps.ChatTopic(key.Campaign)

		if currentWeek >= r.set.RemoveWeeks {
			if player.WarnedWeek < r.set.RemoveWeeks {
				e.Logger.Info("Removing inactive player",
					"campaign", pair.Name, "player", player.FirstName, "days", daysSilent)
				if e.send(ctx, thread, report.Removal(mention, pair.Name, daysSilent, player.LastPostAt), r) {
					removals = append(removals, key)
				}
			}
			continue
		}

		for _, mark := range r.set.WarnWeeks {
			if currentWeek >= mark && player.WarnedWeek < mark {
				e.Logger.Info("Warning inactive player",
					"campaign", pair.Name, "player", player.FirstName, "week", mark)
				if e.send(ctx, thread, report.Warning(mark, mention, pair.Name, daysSilent, player.LastPostAt), r) {
					player.WarnedWeek = mark
				}
				break
			}
		}
	}

	for _, key := range removals {
		snap.RemovePlayer(key.Campaign, key.User, r.now)
		r.res.Removed++
	}
}

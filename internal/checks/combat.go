package checks

import (
	"context"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
)

// combatPings chases players who owe an action this players' phase.
// Away players are left alone; if everyone missing is away there is
// nothing to send and the ping stamp stays put.
func (e *Engine) combatPings(ctx context.Context, r *run) {
	snap := e.Snapshot
	threshold := time.Duration(r.set.CombatPingHours) * time.Hour

	for _, campaign := range r.maps.Campaigns {
		c := snap.Combats[campaign]
		if c == nil {
			continue
		}
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureCombat) {
			continue
		}
		if snap.IsPaused(campaign) {
			continue
		}
		if !c.PingDue(threshold, r.now) {
			continue
		}

		var waiting []string
		for _, uid := range c.Missing(snap.RosterIDs(campaign)) {
			if _, away := snap.AwayFor(campaign, uid, r.now); away {
				continue
			}
			if p, ok := snap.Player(campaign, uid); ok {
				waiting = append(waiting, report.Mention(p.FirstName, p.LastName, p.Username))
			}
		}
		if len(waiting) == 0 {
			continue
		}

		e.Logger.Info("Combat ping",
			"campaign", pair.Name, "round", c.Round, "waiting", len(waiting))
		if e.send(ctx, r.maps.ChatTopic(campaign), report.CombatPing(c.Round, waiting, c.PhaseStartedAt, r.now), r) {
			c.LastPingAt = r.now
		}
	}
}

package checks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// flavourBoons are the narrative award options. The picker mixes three
// of these with one mechanical boon.
var flavourBoons = []string{
	"A friendly NPC of your choice remembers your name and greets you warmly next scene.",
	"Your character finds a small, oddly specific trinket that is exactly what they wanted.",
	"The next tavern you visit has your favourite meal waiting, on the house.",
	"A stray animal adopts your character for the rest of the chapter.",
	"You may declare one minor, harmless detail about the current scene to be true.",
	"Your character wakes up tomorrow perfectly rested, whatever the night held.",
	"A rumour of your character's heroics (embellished, of course) spreads through town.",
	"The weather does exactly what would be most dramatic for your next entrance.",
	"Your character's gear is mysteriously clean and mended come morning.",
	"An old acquaintance owes your character a small favour, redeemable this chapter.",
	"The GM will work one word of your choice into the next scene description.",
	"Something mildly beneficial happens to you today.",
}

// mechanicalBoons carry actual table weight, so exactly one is offered.
var mechanicalBoons = []string{
	"+1 circumstance bonus on your next skill check.",
	"Recover 1d6 extra HP during your next rest.",
	"Your next critical failure on a skill check is a regular failure instead.",
	"Gain a +1 circumstance bonus to initiative in your next combat.",
	"+1 circumstance bonus to your next saving throw.",
	"Your next successful Strike deals 1 extra damage.",
	"Gain 1 temporary HP at the start of your next combat.",
	"Your next Recall Knowledge check gains a +2 circumstance bonus.",
	"+10 feet to your Speed for your first turn of your next combat.",
	"The DC of your next skill check is reduced by 1.",
}

// pickBoons draws the weekly award options: three distinct flavour boons
// plus one mechanical boon, in that order.
func pickBoons() []string {
	out := make([]string, 0, 4)
	for _, i := range rand.Perm(len(flavourBoons))[:3] {
		out = append(out, flavourBoons[i])
	}
	return append(out, mechanicalBoons[rand.IntN(len(mechanicalBoons))])
}

// weeklyAwards crowns each campaign's most consistent player and posts
// the boon picker. The pending record ties later callback taps back to
// the picker message and the winner.
func (e *Engine) weeklyAwards(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureAward) {
			continue
		}
		if !intervalElapsed(snap.LastAward[campaign], r.set.AwardIntervalDays, r.now) {
			continue
		}

		isGM := func(user int64) bool { return r.maps.IsGM(campaign, user) }
		candidates := rank.AwardCandidates(snap, campaign, isGM, r.set.AwardMinSessions, r.set.BurstWindow(), r.now)
		if len(candidates) == 0 {
			e.Logger.Info("No award candidates",
				"campaign", pair.Name, "min_sessions", r.set.AwardMinSessions)
			continue
		}
		winner, _ := rank.Winner(candidates)

		boons := pickBoons()
		base := report.AwardBase(pair.Name, winner, r.now)
		choices := make([]telegram.Choice, len(boons))
		for i := range boons {
			choices[i] = telegram.Choice{
				Label: fmt.Sprintf("Boon #%d", i+1),
				Data:  fmt.Sprintf("boon:%d:%d", campaign, i),
			}
		}

		e.Logger.Info("Weekly award",
			"campaign", pair.Name, "winner", winner.FirstName, "avg_gap_h", winner.AvgGapHours)
		msgID, err := e.Messenger.SendWithChoices(ctx, e.Config.GroupID,
			r.maps.ChatTopic(campaign), report.AwardOffer(base, boons), choices)
		if err != nil {
			r.res.AddErrorf("award picker for %s: %v", pair.Name, err)
			continue
		}
		r.res.Sent++
		snap.LastAward[campaign] = r.now
		snap.Pending[campaign] = &snapshot.PendingAward{
			MessageID: msgID,
			Winner:    winner.UserID,
			Options:   boons,
			BaseText:  base,
			PostedAt:  r.now,
		}
	}
}

// expirePendingAwards settles pickers the winner never tapped: past the
// expiry window the first boon is locked in and the picker rewritten.
// The pending record survives a failed edit so the next run retries.
func (e *Engine) expirePendingAwards(ctx context.Context, r *run) {
	snap := e.Snapshot
	expiry := time.Duration(r.set.AwardExpiryHours) * time.Hour

	campaigns := make([]int64, 0, len(snap.Pending))
	for campaign := range snap.Pending {
		campaigns = append(campaigns, campaign)
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i] < campaigns[j] })

	for _, campaign := range campaigns {
		pending := snap.Pending[campaign]
		if r.now.Sub(pending.PostedAt) < expiry {
			continue
		}
		text := report.AwardResult(pending.Options, 0, pending.BaseText, report.AwardExpiredLabel)
		if err := e.Messenger.Edit(ctx, e.Config.GroupID, pending.MessageID, text); err != nil {
			r.res.AddErrorf("finalize expired award for campaign %d: %v", campaign, err)
			continue
		}
		delete(snap.Pending, campaign)
		e.Logger.Info("Expired award picker auto-selected first boon",
			"campaign", r.maps.Name(campaign))
	}
}

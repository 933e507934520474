package checks

import (
	"context"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
)

// streakMilestones celebrates a player's calendar-day posting streak the
// first time it reaches each configured mark. The celebrated value is
// monotonic per (campaign, user): a streak that breaks and rebuilds past
// an old mark does not re-fire it.
func (e *Engine) streakMilestones(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, key := range sortedPlayerKeys(snap.Players) {
		pair := r.maps.Pair(key.Campaign)
		if pair == nil || !pair.FeatureEnabled(config.FeatureMilestones) {
			continue
		}
		streak := activity.Streak(snap.UserTimestamps(key.Campaign, key.User), r.now)
		mark := highestCrossed(int64(streak), r.set.StreakMilestones)
		if mark == 0 || int(mark) <= snap.CelebratedStreaks[key] {
			continue
		}

		player := snap.Players[key]
		name := report.FullName(player.FirstName, player.LastName)
		if e.send(ctx, r.maps.ChatTopic(key.Campaign), report.StreakMilestone(name, pair.Name, int(mark)), r) {
			snap.CelebratedStreaks[key] = int(mark)
		}
	}
}

// anniversaries congratulates a campaign on the month/day of its
// configured creation date, once per year reached.
func (e *Engine) anniversaries(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureAnniversary) || pair.Created == "" {
			continue
		}
		created, err := time.Parse("2006-01-02", pair.Created)
		if err != nil {
			e.Logger.Warn("Bad campaign creation date", "campaign", pair.Name, "created", pair.Created)
			continue
		}
		if created.Month() != r.now.Month() || created.Day() != r.now.Day() {
			continue
		}
		years := r.now.Year() - created.Year()
		if years < 1 || snap.CelebratedAnniversaries[campaign] >= years {
			continue
		}

		if e.send(ctx, r.maps.ChatTopic(campaign), report.Anniversary(pair.Name, years, created), r) {
			snap.CelebratedAnniversaries[campaign] = years
		}
	}
}

// messageMilestones celebrates lifetime message totals: per campaign at
// its configured steps, and across the whole group at the global steps.
// Only the highest crossed-but-uncelebrated mark fires, so a backlog of
// crossings collapses into one notice.
func (e *Engine) messageMilestones(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureMilestones) {
			continue
		}
		mark := highestCrossed(snap.CampaignTotal(campaign), r.set.MessageMilestones)
		if mark == 0 || mark <= snap.CampaignMilestones[campaign] {
			continue
		}
		if e.send(ctx, r.maps.ChatTopic(campaign), report.CampaignMilestone(pair.Name, mark), r) {
			snap.CampaignMilestones[campaign] = mark
		}
	}

	mark := highestCrossed(snap.GlobalTotal(), r.set.GlobalMessageMilestones)
	if mark == 0 || mark <= snap.GlobalMilestone {
		return
	}
	if e.send(ctx, e.globalThread(r.maps), report.GlobalMilestone(e.Config.GroupName, mark), r) {
		snap.GlobalMilestone = mark
	}
}

// highestCrossed returns the largest milestone at or below total, 0 when
// none is crossed. Milestones are configured ascending.
func highestCrossed(total int64, milestones []int) int64 {
	var crossed int64
	for _, m := range milestones {
		if total >= int64(m) {
			crossed = int64(m)
		}
	}
	return crossed
}

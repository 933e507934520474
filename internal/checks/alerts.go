package checks

import (
	"context"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// inactivityAlerts nudges a campaign whose play topic has gone quiet.
// Debounced per campaign by the same threshold, so a dead topic is
// reminded once per alert window, not once per run.
func (e *Engine) inactivityAlerts(ctx context.Context, r *run) {
	snap := e.Snapshot
	threshold := time.Duration(r.set.AlertAfterHours) * time.Hour

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureAlerts) || snap.IsPaused(campaign) {
			continue
		}
		topic := snap.Topics[campaign]
		if topic == nil {
			e.Logger.Info("No messages tracked yet", "campaign", pair.Name)
			continue
		}
		if r.now.Sub(topic.LastPostAt) < threshold {
			continue
		}
		if last := snap.LastAlert[campaign]; !last.IsZero() && r.now.Sub(last) < threshold {
			continue
		}

		count := snap.Counts[campaign][topic.LastUserID]
		text := report.InactivityAlert(pair.Name, topic.LastUserName, count, topic.LastPostAt, r.now)
		if e.send(ctx, r.maps.ChatTopic(campaign), text, r) {
			snap.LastAlert[campaign] = r.now
		}
	}
}

// silenceAlerts posts a one-shot "scene needs revival" notice when a
// campaign has seen no post from anyone for the silence threshold. The
// flag clears itself as soon as fresh activity shows up.
func (e *Engine) silenceAlerts(ctx context.Context, r *run) {
	snap := e.Snapshot
	threshold := time.Duration(r.set.SilenceHours) * time.Hour

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureSilence) || snap.IsPaused(campaign) {
			continue
		}
		last, ok := latestPost(snap, campaign)
		if !ok {
			continue
		}
		if r.now.Sub(last) < threshold {
			delete(snap.SilenceAlerted, campaign)
			continue
		}
		if snap.SilenceAlerted[campaign] {
			continue
		}
		if e.send(ctx, r.maps.ChatTopic(campaign), report.SilenceAlert(pair.Name, last, r.now), r) {
			snap.SilenceAlerted[campaign] = true
		}
	}
}

// paceDropAlerts scans for campaigns whose posting volume collapsed
// week-over-week. One marker gates the whole scan and advances when the
// scan completes, alerts or not; the drop list is recomputed fresh each
// time.
func (e *Engine) paceDropAlerts(ctx context.Context, r *run) {
	snap := e.Snapshot
	if !intervalElapsed(snap.LastPaceDrop, r.set.PaceDropIntervalDays, r.now) {
		return
	}
	weekAgo := r.now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := r.now.Add(-14 * 24 * time.Hour)

	for _, campaign := range r.maps.Campaigns {
		thisWeek, lastWeek := 0, 0
		for _, stamps := range snap.CampaignTimestamps(campaign) {
			thisWeek += len(activity.InWindow(stamps, weekAgo, time.Time{}))
			lastWeek += len(activity.InWindow(stamps, twoWeeksAgo, weekAgo))
		}
		if lastWeek < r.set.PaceDropMinLastWeek {
			continue
		}
		if float64(thisWeek) >= float64(lastWeek)*r.set.PaceDropRatio {
			continue
		}
		e.Logger.Info("Pace drop detected",
			"campaign", r.maps.Name(campaign), "this_week", thisWeek, "last_week", lastWeek)
		e.send(ctx, r.maps.ChatTopic(campaign), report.PaceDrop(r.maps.Name(campaign), thisWeek, lastWeek), r)
	}

	snap.LastPaceDrop = r.now
}

// latestPost finds the most recent raw timestamp in a campaign, any role.
func latestPost(snap *snapshot.Snapshot, campaign int64) (time.Time, bool) {
	var last time.Time
	for _, stamps := range snap.CampaignTimestamps(campaign) {
		for _, ts := range stamps {
			if ts.After(last) {
				last = ts
			}
		}
	}
	return last, !last.IsZero()
}

package checks

import (
	"context"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
)

// rosterDigests posts the periodic party roster per campaign. A campaign
// with nothing to report keeps its stale timer so the digest appears as
// soon as there is something to say.
func (e *Engine) rosterDigests(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureRoster) {
			continue
		}
		if !intervalElapsed(snap.LastRoster[campaign], r.set.RosterIntervalDays, r.now) {
			continue
		}

		text := report.RosterSummary(snap, r.maps, campaign, r.set, r.now)
		if text == "" {
			continue
		}

		e.Logger.Info("Posting roster", "campaign", pair.Name)
		if e.send(ctx, r.maps.ChatTopic(campaign), text, r) {
			snap.LastRoster[campaign] = r.now
		}
	}
}

// paceReports posts the week-over-week pace comparison per campaign.
func (e *Engine) paceReports(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeaturePace) {
			continue
		}
		if !intervalElapsed(snap.LastPace[campaign], r.set.PaceIntervalDays, r.now) {
			continue
		}

		counts := e.gatherPace(r, campaign)
		if counts.ThisWeek() == 0 && counts.LastWeek() == 0 {
			continue
		}

		e.Logger.Info("Pace report",
			"campaign", pair.Name, "this_week", counts.ThisWeek(), "last_week", counts.LastWeek())
		if e.send(ctx, r.maps.ChatTopic(campaign), report.PaceReport(pair.Name, counts, r.now), r) {
			snap.LastPace[campaign] = r.now
		}
	}
}

// gatherPace counts raw posts for the trailing week and the week before,
// split GM/player. Raw counts, not sessions: pace measures volume.
func (e *Engine) gatherPace(r *run, campaign int64) report.PaceCounts {
	weekAgo := r.now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := r.now.Add(-14 * 24 * time.Hour)

	var counts report.PaceCounts
	for user, stamps := range e.Snapshot.CampaignTimestamps(campaign) {
		this := len(activity.InWindow(stamps, weekAgo, time.Time{}))
		last := len(activity.InWindow(stamps, twoWeeksAgo, weekAgo))
		if r.maps.IsGM(campaign, user) {
			counts.GMThis += this
			counts.GMLast += last
		} else {
			counts.PlayerThis += this
			counts.PlayerLast += last
		}
	}
	return counts
}

// postLeaderboard posts the cross-campaign board to the global thread.
func (e *Engine) postLeaderboard(ctx context.Context, r *run) {
	snap := e.Snapshot

	if !intervalElapsed(snap.LastLeaderboard, r.set.LeaderboardIntervalDays, r.now) {
		return
	}

	board := rank.Gather(snap, r.maps, r.set.BurstWindow(), r.now)
	if len(board.Campaigns) == 0 {
		e.Logger.Info("No campaign data for leaderboard")
		return
	}

	e.Logger.Info("Posting leaderboard", "campaigns", len(board.Campaigns))
	if e.send(ctx, e.globalThread(r.maps), report.Leaderboard(board, r.now), r) {
		snap.LastLeaderboard = r.now
	}
}

// weeklyDigest posts the one-message community recap to the global thread.
func (e *Engine) weeklyDigest(ctx context.Context, r *run) {
	snap := e.Snapshot

	if !intervalElapsed(snap.LastDigest, r.set.DigestIntervalDays, r.now) {
		return
	}

	board := rank.Gather(snap, r.maps, r.set.BurstWindow(), r.now)
	if len(board.Campaigns) == 0 {
		return
	}

	e.Logger.Info("Posting weekly digest")
	if e.send(ctx, e.globalThread(r.maps), report.WeeklyDigest(board, e.Config.GroupName, r.now), r) {
		snap.LastDigest = r.now
	}
}

// recruitmentNotices nudges campaigns below the required roster size. A
// full roster resets the timer silently so the next shortfall waits a
// whole interval again.
func (e *Engine) recruitmentNotices(ctx context.Context, r *run) {
	snap := e.Snapshot

	for _, campaign := range r.maps.Campaigns {
		pair := r.maps.Pair(campaign)
		if !pair.FeatureEnabled(config.FeatureRecruitment) {
			continue
		}
		if snap.IsPaused(campaign) {
			continue
		}
		if !intervalElapsed(snap.LastRecruitment[campaign], r.set.RecruitmentIntervalDays, r.now) {
			continue
		}

		ids := snap.RosterIDs(campaign)
		roster := make([]string, 0, len(ids))
		for _, uid := range ids {
			if p, ok := snap.Player(campaign, uid); ok {
				roster = append(roster, report.Mention(p.FirstName, p.LastName, p.Username))
			}
		}

		if len(roster) >= r.set.RequiredPlayers {
			snap.LastRecruitment[campaign] = r.now
			continue
		}

		e.Logger.Info("Recruitment notice",
			"campaign", pair.Name, "roster", len(roster), "required", r.set.RequiredPlayers)
		if e.send(ctx, r.maps.ChatTopic(campaign), report.Recruitment(pair.Name, roster, r.set.RequiredPlayers), r) {
			snap.LastRecruitment[campaign] = r.now
		}
	}
}

// Package checks runs the fixed ordered list of periodic checks against
// the snapshot: inactivity alerts, the warning ladder, digests, awards,
// milestones, combat pings, and the weekly archive. Every check decides
// independently from its own debounce record and one shared "now"; a
// debounce record only advances once the send it gates has been
// confirmed, so a failed delivery retries naturally on the next run.
package checks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/archive"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// Messenger is the outbound surface the checks call: plain notices, the
// award picker, and picker edits.
type Messenger interface {
	Send(ctx context.Context, chatID, threadID int64, text string) (int64, error)
	SendWithChoices(ctx context.Context, chatID, threadID int64, text string, choices []telegram.Choice) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
}

// ArchiveSink persists the weekly per-campaign aggregates.
type ArchiveSink interface {
	WriteWeek(week string, docs map[int64]archive.Document) error
}

// Engine runs every periodic check for one group.
type Engine struct {
	Config    *config.GroupConfig
	Snapshot  *snapshot.Snapshot
	Messenger Messenger
	Archive   ArchiveSink
	Logger    *slog.Logger
}

// Result tracks what one check pass did.
type Result struct {
	Sent     int
	Removed  int
	Archived bool
	Errors   []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	return fmt.Sprintf("sent=%d removed=%d archived=%t errors=%d",
		r.Sent, r.Removed, r.Archived, len(r.Errors))
}

// run carries the per-invocation shared values into each check.
type run struct {
	maps *config.TopicMaps
	set  config.Settings
	now  time.Time
	res  *Result
}

// Run executes every check once, in order. A check failure or panic is
// recorded and logged but never blocks the checks after it.
func (e *Engine) Run(ctx context.Context, now time.Time) Result {
	var res Result
	r := &run{maps: e.Config.Maps(), set: e.Config.Settings(), now: now, res: &res}

	checks := []struct {
		label string
		fn    func(context.Context, *run)
	}{
		{"Topic alerts", e.inactivityAlerts},
		{"Player activity", e.warningLadder},
		{"Roster summary", e.rosterDigests},
		{"Weekly award", e.weeklyAwards},
		{"Award expiry", e.expirePendingAwards},
		{"Pace report", e.paceReports},
		{"Streak milestones", e.streakMilestones},
		{"Anniversaries", e.anniversaries},
		{"Message milestones", e.messageMilestones},
		{"Combat pings", e.combatPings},
		{"Leaderboard", e.postLeaderboard},
		{"Weekly digest", e.weeklyDigest},
		{"Recruitment", e.recruitmentNotices},
		{"Weekly archive", e.weeklyArchive},
		{"Pace drop", e.paceDropAlerts},
		{"Silence alerts", e.silenceAlerts},
		{"Daily tip", e.dailyTip},
	}
	for _, c := range checks {
		e.runCheck(ctx, c.label, c.fn, r)
	}
	return res
}

func (e *Engine) runCheck(ctx context.Context, label string, fn func(context.Context, *run), r *run) {
	defer func() {
		if p := recover(); p != nil {
			r.res.AddErrorf("%s: panic: %v", label, p)
			e.Logger.Error("Check panicked", "check", label, "panic", p)
		}
	}()
	fn(ctx, r)
}

// send delivers one notice and accounts for it. Callers skip their
// debounce update when it reports false.
func (e *Engine) send(ctx context.Context, threadID int64, text string, r *run) bool {
	if _, err := e.Messenger.Send(ctx, e.Config.GroupID, threadID, text); err != nil {
		r.res.AddErrorf("send to thread %d: %v", threadID, err)
		e.Logger.Warn("Send failed", "thread", threadID, "error", err)
		return false
	}
	r.res.Sent++
	return true
}

// globalThread is where group-wide notices go: the configured
// leaderboard topic, or the first campaign's chat topic as a fallback.
func (e *Engine) globalThread(maps *config.TopicMaps) int64 {
	if e.Config.LeaderboardTopicID != 0 {
		return e.Config.LeaderboardTopicID
	}
	if len(maps.Campaigns) > 0 {
		return maps.ChatTopic(maps.Campaigns[0])
	}
	return 0
}

// intervalElapsed reports whether the debounce interval has passed since
// last fired. A zero last means the check has never fired.
func intervalElapsed(last time.Time, days int, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= time.Duration(days)*24*time.Hour
}

func hoursElapsed(last time.Time, hours int, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= time.Duration(hours)*time.Hour
}

// sortedPlayerKeys returns roster keys in (campaign, user) order so
// per-player checks walk the roster deterministically.
func sortedPlayerKeys(players map[snapshot.PlayerKey]*snapshot.Player) []snapshot.PlayerKey {
	keys := make([]snapshot.PlayerKey, 0, len(players))
	for key := range players {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Campaign != keys[j].Campaign {
			return keys[i].Campaign < keys[j].Campaign
		}
		return keys[i].User < keys[j].User
	})
	return keys
}

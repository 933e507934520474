package checks

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/archive"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
)

// weeklyArchive writes last week's per-campaign aggregates through the
// archive sink, once per ISO week. The current week is still in
// progress, so the window always covers the week before now.
func (e *Engine) weeklyArchive(ctx context.Context, r *run) {
	snap := e.Snapshot

	lastWeek := r.now.AddDate(0, 0, -7)
	week := archive.WeekKey(lastWeek)
	if snap.LastArchivedWeek == week {
		return
	}

	weekStart := archive.WeekStart(lastWeek)
	weekEnd := weekStart.AddDate(0, 0, 7)
	burst := r.set.BurstWindow()

	docs := make(map[int64]archive.Document, len(r.maps.Campaigns))
	for _, campaign := range r.maps.Campaigns {
		doc := archive.Document{
			Campaign:      r.maps.Name(campaign),
			Week:          week,
			WeekStart:     weekStart.Format("2006-01-02"),
			ActivePlayers: snap.RosterSize(campaign),
			Players:       map[string]archive.PlayerWeek{},
		}

		var playerSessions []time.Time
		for user, stamps := range snap.CampaignTimestamps(campaign) {
			posts := activity.InWindow(stamps, weekStart, weekEnd)
			sessions := activity.Sessions(posts, burst)
			if r.maps.IsGM(campaign, user) {
				doc.GMPosts += len(sessions)
				continue
			}
			doc.PlayerPosts += len(sessions)
			playerSessions = append(playerSessions, sessions...)
			if len(sessions) == 0 {
				continue
			}

			var first, last, username string
			if p, ok := snap.Player(campaign, user); ok {
				first, last, username = p.FirstName, p.LastName, p.Username
			}
			pw := archive.PlayerWeek{Posts: len(posts), Sessions: len(sessions)}
			if gap, ok := activity.AvgGapHours(sessions); ok {
				pw.AvgGapH = roundTenth(gap)
			}
			doc.Players[report.Mention(first, last, username)] = pw
		}

		doc.TotalPosts = doc.GMPosts + doc.PlayerPosts
		if gap, ok := activity.AvgGapHours(playerSessions); ok {
			doc.PlayerAvgGapH = roundTenth(gap)
		}
		doc.TopPlayers = topPosters(doc.Players)
		docs[campaign] = doc
	}

	if err := e.Archive.WriteWeek(week, docs); err != nil {
		r.res.AddErrorf("archive week %s: %v", week, err)
		e.Logger.Warn("Archive write failed", "week", week, "error", err)
		return
	}
	snap.LastArchivedWeek = week
	r.res.Archived = true
	e.Logger.Info("Archived weekly data", "week", week, "campaigns", len(docs))
}

func roundTenth(v float64) *float64 {
	rounded := math.Round(v*10) / 10
	return &rounded
}

// topPosters ranks the week's players by session count, busiest first,
// capped at five.
func topPosters(players map[string]archive.PlayerWeek) []archive.TopPoster {
	out := make([]archive.TopPoster, 0, len(players))
	for name, pw := range players {
		out = append(out, archive.TopPoster{Name: name, Sessions: pw.Sessions})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions != out[j].Sessions {
			return out[i].Sessions > out[j].Sessions
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

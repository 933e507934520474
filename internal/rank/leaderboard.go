package rank

import (
	"sort"
	"strconv"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// CampaignStats is one campaign's entry on the cross-campaign board.
// Session counts cover the trailing 7 days; the trend compares raw post
// volume over the last 3 days against the 3 days before that.
type CampaignStats struct {
	Campaign  int64
	Name      string
	Total7d   int
	Player7d  int
	GM7d      int
	Trend     activity.Trend
	AvgGapAll float64
	AvgGapOK  bool
	// Player-only response gap, the ranking metric for the gap section.
	PlayerGap   float64
	PlayerGapOK bool
	LastPost    time.Time
	TopPosters  []Poster
}

// Poster is a ranked player inside one campaign's leaderboard block.
type Poster struct {
	UserID   int64
	FullName string
	Username string
	Sessions int
}

// GlobalPoster aggregates one player's sessions across every campaign.
type GlobalPoster struct {
	UserID    int64
	FullName  string
	Username  string
	Sessions  int
	Campaigns int
}

// StreakEntry is one player's active calendar-day streak for the streak
// section. Streaks below 2 days are not gathered.
type StreakEntry struct {
	UserID   int64
	Name     string
	Campaign string
	Streak   int
}

// Leaderboard is everything the cross-campaign board needs, gathered in
// one pass over the snapshot.
type Leaderboard struct {
	// Campaigns is sorted by player session volume, busiest first.
	Campaigns []CampaignStats
	// Global is sorted by cross-campaign sessions, busiest first.
	Global []GlobalPoster
	// Streaks is sorted by streak length, longest first.
	Streaks []StreakEntry
}

// Gather collects per-campaign stats, the global player table, and the
// streak list for every configured campaign.
func Gather(snap *snapshot.Snapshot, maps *config.TopicMaps, burst time.Duration, now time.Time) Leaderboard {
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	threeDaysAgo := now.Add(-3 * 24 * time.Hour)
	sixDaysAgo := now.Add(-6 * 24 * time.Hour)

	var board Leaderboard
	globals := make(map[int64]*GlobalPoster)

	for _, campaign := range maps.Campaigns {
		cs := CampaignStats{Campaign: campaign, Name: maps.Name(campaign)}

		var recent3d, prev3d int
		var allSessions, playerSessions []time.Time

		for user, stamps := range snap.CampaignTimestamps(campaign) {
			recent3d += len(activity.InWindow(stamps, threeDaysAgo, time.Time{}))
			prev3d += len(activity.InWindow(stamps, sixDaysAgo, threeDaysAgo))

			for _, ts := range stamps {
				if ts.After(cs.LastPost) {
					cs.LastPost = ts
				}
			}

			sessions := activity.Sessions(activity.InWindow(stamps, sevenDaysAgo, time.Time{}), burst)
			n := len(sessions)
			allSessions = append(allSessions, sessions...)

			if maps.IsGM(campaign, user) {
				cs.GM7d += n
				continue
			}
			cs.Player7d += n
			playerSessions = append(playerSessions, sessions...)

			if n == 0 {
				continue
			}
			p := posterIdentity(snap, campaign, user)
			p.Sessions = n
			cs.TopPosters = append(cs.TopPosters, p)

			g, ok := globals[user]
			if !ok {
				g = &GlobalPoster{UserID: user, FullName: p.FullName, Username: p.Username}
				globals[user] = g
			}
			g.Sessions += n
			g.Campaigns++

			if streak := activity.Streak(stamps, now); streak >= 2 {
				board.Streaks = append(board.Streaks, StreakEntry{
					UserID:   user,
					Name:     p.FullName,
					Campaign: cs.Name,
					Streak:   streak,
				})
			}
		}

		cs.Total7d = cs.GM7d + cs.Player7d
		cs.Trend = activity.Classify(recent3d, prev3d)

		sort.Slice(allSessions, func(i, j int) bool { return allSessions[i].Before(allSessions[j]) })
		cs.AvgGapAll, cs.AvgGapOK = activity.AvgGapHours(allSessions)
		sort.Slice(playerSessions, func(i, j int) bool { return playerSessions[i].Before(playerSessions[j]) })
		cs.PlayerGap, cs.PlayerGapOK = activity.AvgGapHours(playerSessions)

		sort.Slice(cs.TopPosters, func(i, j int) bool {
			if cs.TopPosters[i].Sessions != cs.TopPosters[j].Sessions {
				return cs.TopPosters[i].Sessions > cs.TopPosters[j].Sessions
			}
			return cs.TopPosters[i].UserID < cs.TopPosters[j].UserID
		})

		board.Campaigns = append(board.Campaigns, cs)
	}

	sort.Slice(board.Campaigns, func(i, j int) bool {
		if board.Campaigns[i].Player7d != board.Campaigns[j].Player7d {
			return board.Campaigns[i].Player7d > board.Campaigns[j].Player7d
		}
		return board.Campaigns[i].Campaign < board.Campaigns[j].Campaign
	})

	for _, g := range globals {
		board.Global = append(board.Global, *g)
	}
	sort.Slice(board.Global, func(i, j int) bool {
		if board.Global[i].Sessions != board.Global[j].Sessions {
			return board.Global[i].Sessions > board.Global[j].Sessions
		}
		return board.Global[i].UserID < board.Global[j].UserID
	})

	sort.Slice(board.Streaks, func(i, j int) bool {
		if board.Streaks[i].Streak != board.Streaks[j].Streak {
			return board.Streaks[i].Streak > board.Streaks[j].Streak
		}
		return board.Streaks[i].UserID < board.Streaks[j].UserID
	})

	return board
}

// MVP returns the top global poster, if the week had any player activity.
func (b Leaderboard) MVP() (GlobalPoster, bool) {
	if len(b.Global) == 0 {
		return GlobalPoster{}, false
	}
	return b.Global[0], true
}

func posterIdentity(snap *snapshot.Snapshot, campaign, user int64) Poster {
	p := Poster{UserID: user}
	if rec, ok := snap.Player(campaign, user); ok {
		p.FullName = rec.DisplayName()
		p.Username = rec.Username
	} else {
		p.FullName = "User " + strconv.FormatInt(user, 10)
	}
	return p
}

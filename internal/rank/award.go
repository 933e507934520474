// Package rank scores players for the weekly consistency award. The
// winner is the rostered player with the smallest average gap between
// posting sessions over the trailing week, not raw volume.
package rank

import (
	"math"
	"sort"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// Candidate is a player eligible for the weekly award.
type Candidate struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	Sessions  int
	// AvgGapHours is +Inf when the gap is undefined, which sorts such
	// candidates last.
	AvgGapHours float64
}

// AwardCandidates returns players with at least minSessions posting
// sessions in the trailing 7 days, ordered best first: smallest average
// gap, ties broken by lowest user id.
func AwardCandidates(snap *snapshot.Snapshot, campaign int64, isGM func(int64) bool, minSessions int, burst time.Duration, now time.Time) []Candidate {
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var out []Candidate
	for user, stamps := range snap.CampaignTimestamps(campaign) {
		if isGM(user) {
			continue
		}
		sessions := activity.Sessions(activity.InWindow(stamps, weekAgo, time.Time{}), burst)
		if len(sessions) < minSessions {
			continue
		}
		gap, ok := activity.AvgGapHours(sessions)
		if !ok {
			gap = math.Inf(1)
		}

		c := Candidate{UserID: user, Sessions: len(sessions), AvgGapHours: gap, FirstName: "Unknown"}
		if p, ok := snap.Player(campaign, user); ok {
			c.FirstName = p.FirstName
			c.LastName = p.LastName
			c.Username = p.Username
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgGapHours != out[j].AvgGapHours {
			return out[i].AvgGapHours < out[j].AvgGapHours
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Winner picks the best candidate, if any.
func Winner(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

// Package snapshot defines the single state document the engine carries
// between runs: the update offset, per-topic activity, the player roster,
// message history, combat records, and the debounce stamps every periodic
// check consults before posting.
package snapshot

import (
	"sort"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/combat"
)

// Snapshot is the whole engine state. It is loaded once per run, mutated
// in place by intake and the checks, and saved back at the end; nothing
// else touches it concurrently.
type Snapshot struct {
	// Offset is the next Telegram update id to fetch (max seen + 1).
	Offset int64 `json:"offset"`

	Topics     map[int64]*TopicRecord          `json:"topics"`
	Players    map[PlayerKey]*Player           `json:"players"`
	Removed    map[PlayerKey]*RemovedPlayer    `json:"removed_players"`
	Counts     map[int64]map[int64]int64       `json:"message_counts"`
	Timestamps map[int64]map[int64][]time.Time `json:"post_timestamps"`

	Combats map[int64]*combat.State `json:"combat"`
	Pending map[int64]*PendingAward `json:"pending_awards"`
	Paused  map[int64]*Pause        `json:"paused_campaigns"`
	Away    map[PlayerKey]*Away     `json:"away"`

	// Debounce stamps. Zero time means the check has never fired.
	LastAlert       map[int64]time.Time `json:"last_alerts"`
	LastRoster      map[int64]time.Time `json:"last_roster"`
	LastAward       map[int64]time.Time `json:"last_award"`
	LastPace        map[int64]time.Time `json:"last_pace"`
	LastRecruitment map[int64]time.Time `json:"last_recruitment"`
	LastLeaderboard time.Time           `json:"last_leaderboard"`
	LastDigest      time.Time           `json:"last_digest"`
	LastPaceDrop    time.Time           `json:"last_pace_drop_check"`
	LastTip         time.Time           `json:"last_daily_tip"`

	// Monotonic celebration markers: highest threshold already fired.
	CelebratedStreaks       map[PlayerKey]int `json:"celebrated_streaks"`
	CampaignMilestones      map[int64]int64   `json:"celebrated_milestones"`
	GlobalMilestone         int64             `json:"global_milestone"`
	CelebratedAnniversaries map[int64]int     `json:"celebrated_anniversaries"`

	// SilenceAlerted is the one-shot flag per campaign; cleared when the
	// campaign shows fresh activity.
	SilenceAlerted map[int64]bool `json:"silence_alerted"`

	UsedTips         []int  `json:"used_tip_indices"`
	LastArchivedWeek string `json:"last_archived_week"`
}

// New returns an empty snapshot with every map initialised.
func New() *Snapshot {
	s := &Snapshot{}
	s.Backfill()
	return s
}

// Backfill initialises any nil maps, so documents written by older
// versions load cleanly.
func (s *Snapshot) Backfill() {
	if s.Topics == nil {
		s.Topics = make(map[int64]*TopicRecord)
	}
	if s.Players == nil {
		s.Players = make(map[PlayerKey]*Player)
	}
	if s.Removed == nil {
		s.Removed = make(map[PlayerKey]*RemovedPlayer)
	}
	if s.Counts == nil {
		s.Counts = make(map[int64]map[int64]int64)
	}
	if s.Timestamps == nil {
		s.Timestamps = make(map[int64]map[int64][]time.Time)
	}
	if s.Combats == nil {
		s.Combats = make(map[int64]*combat.State)
	}
	if s.Pending == nil {
		s.Pending = make(map[int64]*PendingAward)
	}
	if s.Paused == nil {
		s.Paused = make(map[int64]*Pause)
	}
	if s.Away == nil {
		s.Away = make(map[PlayerKey]*Away)
	}
	if s.LastAlert == nil {
		s.LastAlert = make(map[int64]time.Time)
	}
	if s.LastRoster == nil {
		s.LastRoster = make(map[int64]time.Time)
	}
	if s.LastAward == nil {
		s.LastAward = make(map[int64]time.Time)
	}
	if s.LastPace == nil {
		s.LastPace = make(map[int64]time.Time)
	}
	if s.LastRecruitment == nil {
		s.LastRecruitment = make(map[int64]time.Time)
	}
	if s.CelebratedStreaks == nil {
		s.CelebratedStreaks = make(map[PlayerKey]int)
	}
	if s.CampaignMilestones == nil {
		s.CampaignMilestones = make(map[int64]int64)
	}
	if s.CelebratedAnniversaries == nil {
		s.CelebratedAnniversaries = make(map[int64]int)
	}
	if s.SilenceAlerted == nil {
		s.SilenceAlerted = make(map[int64]bool)
	}
}

// --------------------------------------------------------------------------
// Activity recording
// --------------------------------------------------------------------------

// RecordPost folds one tracked message into the activity maps: topic
// record, per-user count, and the raw timestamp list.
func (s *Snapshot) RecordPost(campaign, user int64, name string, at time.Time) {
	s.Topics[campaign] = &TopicRecord{LastPostAt: at, LastUserID: user, LastUserName: name}

	if s.Counts[campaign] == nil {
		s.Counts[campaign] = make(map[int64]int64)
	}
	s.Counts[campaign][user]++

	if s.Timestamps[campaign] == nil {
		s.Timestamps[campaign] = make(map[int64][]time.Time)
	}
	s.Timestamps[campaign][user] = append(s.Timestamps[campaign][user], at)
}

// UserTimestamps returns the raw timestamps one user has posted in one
// campaign, oldest first.
func (s *Snapshot) UserTimestamps(campaign, user int64) []time.Time {
	return s.Timestamps[campaign][user]
}

// CampaignTimestamps returns the per-user timestamp lists for a campaign.
// The returned map is live; callers must not mutate it.
func (s *Snapshot) CampaignTimestamps(campaign int64) map[int64][]time.Time {
	return s.Timestamps[campaign]
}

// CampaignTotal sums the lifetime message counts for one campaign.
func (s *Snapshot) CampaignTotal(campaign int64) int64 {
	var total int64
	for _, n := range s.Counts[campaign] {
		total += n
	}
	return total
}

// GlobalTotal sums lifetime message counts across every campaign.
func (s *Snapshot) GlobalTotal() int64 {
	var total int64
	for campaign := range s.Counts {
		total += s.CampaignTotal(campaign)
	}
	return total
}

// --------------------------------------------------------------------------
// Roster
// --------------------------------------------------------------------------

// Player returns the active roster entry for (campaign, user).
func (s *Snapshot) Player(campaign, user int64) (*Player, bool) {
	p, ok := s.Players[Key(campaign, user)]
	return p, ok
}

// RosterIDs returns the ids of active players in a campaign, ascending.
func (s *Snapshot) RosterIDs(campaign int64) []int64 {
	var ids []int64
	for key := range s.Players {
		if key.Campaign == campaign {
			ids = append(ids, key.User)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RosterSize counts active players in a campaign.
func (s *Snapshot) RosterSize(campaign int64) int {
	n := 0
	for key := range s.Players {
		if key.Campaign == campaign {
			n++
		}
	}
	return n
}

// RemovePlayer moves an active roster entry to the removed set. Counts
// and timestamps are left alone so history survives a comeback.
func (s *Snapshot) RemovePlayer(campaign, user int64, now time.Time) {
	key := Key(campaign, user)
	p, ok := s.Players[key]
	if !ok {
		return
	}
	s.Removed[key] = &RemovedPlayer{
		UserID:    user,
		FirstName: p.FirstName,
		Username:  p.Username,
		RemovedAt: now,
	}
	delete(s.Players, key)
}

// --------------------------------------------------------------------------
// Pause and away
// --------------------------------------------------------------------------

// IsPaused reports whether a campaign is on hold.
func (s *Snapshot) IsPaused(campaign int64) bool {
	_, ok := s.Paused[campaign]
	return ok
}

// AwayFor returns the away record for (campaign, user) if one is still in
// force. Lapsed timed records are deleted on sight.
func (s *Snapshot) AwayFor(campaign, user int64, now time.Time) (*Away, bool) {
	key := Key(campaign, user)
	a, ok := s.Away[key]
	if !ok {
		return nil, false
	}
	if a.Expired(now) {
		delete(s.Away, key)
		return nil, false
	}
	return a, true
}

// --------------------------------------------------------------------------
// Retention
// --------------------------------------------------------------------------

// Prune drops raw timestamps older than the retention horizon, then any
// user and campaign entries left empty.
func (s *Snapshot) Prune(retention time.Duration, now time.Time) {
	cutoff := now.Add(-retention)
	for campaign, byUser := range s.Timestamps {
		for user, stamps := range byUser {
			kept := stamps[:0]
			for _, ts := range stamps {
				if !ts.Before(cutoff) {
					kept = append(kept, ts)
				}
			}
			if len(kept) == 0 {
				delete(byUser, user)
				continue
			}
			byUser[user] = kept
		}
		if len(byUser) == 0 {
			delete(s.Timestamps, campaign)
		}
	}
}

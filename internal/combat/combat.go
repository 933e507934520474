// Package combat models the per-campaign combat round tracker: a round
// counter plus a players/enemies phase, with an acted-set so the engine
// knows which players still owe an action this phase.
package combat

import (
	"sort"
	"time"
)

// Phase is whose half of the round is running.
type Phase string

const (
	PhasePlayers Phase = "players"
	PhaseEnemies Phase = "enemies"
)

// Valid reports whether p is one of the two known phases.
func (p Phase) Valid() bool {
	return p == PhasePlayers || p == PhaseEnemies
}

// Label returns the phase name for messages ("Players" / "Enemies").
func (p Phase) Label() string {
	if p == PhaseEnemies {
		return "Enemies"
	}
	return "Players"
}

// LogEntry is one GM-recorded combat event.
type LogEntry struct {
	Round int       `json:"round"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// State is a live combat in one campaign. A campaign has at most one;
// ending combat deletes the record.
type State struct {
	Round          int                 `json:"round"`
	Phase          Phase               `json:"phase"`
	StartedAt      time.Time           `json:"started_at"`
	PhaseStartedAt time.Time           `json:"phase_started_at"`
	Acted          map[int64]time.Time `json:"players_acted"`
	LastPingAt     time.Time           `json:"last_ping_at"`
	// AllActedNotified gates the one-shot "everyone has posted" notice.
	// Reset whenever the round or phase changes.
	AllActedNotified bool       `json:"all_acted_notified"`
	Enemies          []string   `json:"enemies,omitempty"`
	Log              []LogEntry `json:"log,omitempty"`
}

// Begin starts a new combat at round 1, players' phase.
func Begin(enemies []string, now time.Time) *State {
	return &State{
		Round:          1,
		Phase:          PhasePlayers,
		StartedAt:      now,
		PhaseStartedAt: now,
		Acted:          make(map[int64]time.Time),
		Enemies:        enemies,
	}
}

// Set moves the combat to the given round and phase. Re-asserting the
// current round and phase is a no-op so the acted-set and ping stamps
// survive; any actual change resets them.
func (s *State) Set(round int, phase Phase, now time.Time) {
	if round == s.Round && phase == s.Phase {
		return
	}
	s.Round = round
	s.Phase = phase
	s.PhaseStartedAt = now
	s.Acted = make(map[int64]time.Time)
	s.LastPingAt = time.Time{}
	s.AllActedNotified = false
}

// Advance steps one phase forward: players to enemies within the round,
// enemies to players of the next round.
func (s *State) Advance(now time.Time) {
	if s.Phase == PhasePlayers {
		s.Set(s.Round, PhaseEnemies, now)
		return
	}
	s.Set(s.Round+1, PhasePlayers, now)
}

// RecordAction marks a player as having acted this phase. Returns true
// when the action is newly recorded; repeats and posts outside the
// players' phase are ignored.
func (s *State) RecordAction(user int64, at time.Time) bool {
	if s.Phase != PhasePlayers {
		return false
	}
	if s.Acted == nil {
		s.Acted = make(map[int64]time.Time)
	}
	if _, ok := s.Acted[user]; ok {
		return false
	}
	s.Acted[user] = at
	return true
}

// HasActed reports whether the player already acted this phase.
func (s *State) HasActed(user int64) bool {
	_, ok := s.Acted[user]
	return ok
}

// ActedIDs returns the players who acted this phase, ascending by id.
func (s *State) ActedIDs() []int64 {
	ids := make([]int64, 0, len(s.Acted))
	for id := range s.Acted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Missing returns the subset of roster that has not acted this phase,
// preserving roster order.
func (s *State) Missing(roster []int64) []int64 {
	var out []int64
	for _, id := range roster {
		if _, ok := s.Acted[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// AllActed reports whether every rostered player has acted this phase.
// An empty roster never counts as complete.
func (s *State) AllActed(roster []int64) bool {
	if len(roster) == 0 {
		return false
	}
	return len(s.Missing(roster)) == 0
}

// PingDue reports whether a waiting-on ping should go out: players'
// phase, the phase has been open at least threshold, and any earlier
// ping is itself at least threshold old.
func (s *State) PingDue(threshold time.Duration, now time.Time) bool {
	if s.Phase != PhasePlayers {
		return false
	}
	if now.Sub(s.PhaseStartedAt) < threshold {
		return false
	}
	if !s.LastPingAt.IsZero() && now.Sub(s.LastPingAt) < threshold {
		return false
	}
	return true
}

// AppendLog records a GM note against the current round.
func (s *State) AppendLog(text string, at time.Time) {
	s.Log = append(s.Log, LogEntry{Round: s.Round, Text: text, At: at})
}

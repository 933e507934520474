package api

import (
	"net/http"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/activity"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	src     Source
	group   *config.GroupConfig
	started time.Time
}

// NewHandler creates a Handler with shared dependencies.
func NewHandler(src Source, group *config.GroupConfig) *Handler {
	return &Handler{src: src, group: group, started: time.Now()}
}

// Healthz returns basic health status. The process is healthy as soon as
// it serves; the last finished run is attached once one exists.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	}
	if run, ok := h.src.Latest(); ok {
		body["last_run_id"] = run.ID
		body["last_run_at"] = run.At.UTC().Format(time.RFC3339)
	}
	writeJSONObject(w, http.StatusOK, body)
}

// --------------------------------------------------------------------------
// /api/status
// --------------------------------------------------------------------------

type statusResponse struct {
	RunID      string           `json:"run_id"`
	RunAt      time.Time        `json:"run_at"`
	DurationMS int64            `json:"duration_ms"`
	Offset     int64            `json:"offset"`
	Intake     intakeStatus     `json:"intake"`
	Checks     checksStatus     `json:"checks"`
	Group      groupStatus      `json:"group"`
	Campaigns  []campaignStatus `json:"campaigns"`
}

type intakeStatus struct {
	Updates   int      `json:"updates"`
	Tracked   int      `json:"tracked"`
	Commands  int      `json:"commands"`
	Callbacks int      `json:"callbacks"`
	Rejoined  int      `json:"rejoined"`
	Errors    []string `json:"errors,omitempty"`
}

type checksStatus struct {
	Sent     int      `json:"sent"`
	Removed  int      `json:"removed"`
	Archived bool     `json:"archived"`
	Errors   []string `json:"errors,omitempty"`
}

type groupStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type campaignStatus struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	RosterSize   int           `json:"roster_size"`
	Away         int           `json:"away"`
	Paused       bool          `json:"paused"`
	PausedReason string        `json:"paused_reason,omitempty"`
	Messages     int64         `json:"messages"`
	LastPostAt   *time.Time    `json:"last_post_at,omitempty"`
	LastPoster   string        `json:"last_poster,omitempty"`
	Combat       *combatStatus `json:"combat,omitempty"`
	PendingAward bool          `json:"pending_award,omitempty"`
}

type combatStatus struct {
	Round int    `json:"round"`
	Phase string `json:"phase"`
}

// Status reports what the latest run did and where every campaign
// stands. 503 until the first run completes.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	run, ok := h.src.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "NO_RUN", "no completed run yet")
		return
	}

	resp := statusResponse{
		RunID:      run.ID,
		RunAt:      run.At,
		DurationMS: run.Duration.Milliseconds(),
		Offset:     run.Snapshot.Offset,
		Intake: intakeStatus{
			Updates:   run.Intake.Updates,
			Tracked:   run.Intake.Tracked,
			Commands:  run.Intake.Commands,
			Callbacks: run.Intake.Callbacks,
			Rejoined:  run.Intake.Rejoined,
			Errors:    run.Intake.Errors,
		},
		Checks: checksStatus{
			Sent:     run.Checks.Sent,
			Removed:  run.Checks.Removed,
			Archived: run.Checks.Archived,
			Errors:   run.Checks.Errors,
		},
		Group: groupStatus{ID: h.group.GroupID, Name: h.group.GroupName},
	}

	maps := h.group.Maps()
	snap := run.Snapshot
	for _, campaign := range maps.Campaigns {
		cs := campaignStatus{
			ID:         campaign,
			Name:       maps.Name(campaign),
			RosterSize: len(snap.RosterIDs(campaign)),
		}
		for key, a := range snap.Away {
			if key.Campaign == campaign && !a.Expired(run.At) {
				cs.Away++
			}
		}
		if p := snap.Paused[campaign]; p != nil {
			cs.Paused = true
			cs.PausedReason = p.Reason
		}
		for _, n := range snap.Counts[campaign] {
			cs.Messages += n
		}
		if topic := snap.Topics[campaign]; topic != nil {
			at := topic.LastPostAt
			cs.LastPostAt = &at
			cs.LastPoster = topic.LastUserName
		}
		if c := snap.Combats[campaign]; c != nil {
			cs.Combat = &combatStatus{Round: c.Round, Phase: string(c.Phase)}
		}
		if _, pending := snap.Pending[campaign]; pending {
			cs.PendingAward = true
		}
		resp.Campaigns = append(resp.Campaigns, cs)
	}

	writeJSONObject(w, http.StatusOK, resp)
}

// --------------------------------------------------------------------------
// /api/leaderboard
// --------------------------------------------------------------------------

type leaderboardResponse struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Campaigns   []campaignBoard `json:"campaigns"`
	Global      []globalPoster  `json:"global"`
	Streaks     []streakBoard   `json:"streaks,omitempty"`
}

type campaignBoard struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Sessions7d       int           `json:"sessions_7d"`
	PlayerSessions7d int           `json:"player_sessions_7d"`
	GMSessions7d     int           `json:"gm_sessions_7d"`
	Trend            string        `json:"trend"`
	AvgGapHours      *float64      `json:"avg_gap_hours,omitempty"`
	PlayerGapHours   *float64      `json:"player_gap_hours,omitempty"`
	LastPostAt       *time.Time    `json:"last_post_at,omitempty"`
	TopPosters       []posterBoard `json:"top_posters,omitempty"`
}

type posterBoard struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Sessions int    `json:"sessions"`
}

type globalPoster struct {
	Name      string `json:"name"`
	Username  string `json:"username,omitempty"`
	Sessions  int    `json:"sessions"`
	Campaigns int    `json:"campaigns"`
}

type streakBoard struct {
	Name     string `json:"name"`
	Campaign string `json:"campaign"`
	Days     int    `json:"days"`
}

// Leaderboard serves the cross-campaign board computed over the latest
// run's snapshot, the JSON twin of the posted leaderboard message.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	run, ok := h.src.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "NO_RUN", "no completed run yet")
		return
	}

	set := h.group.Settings()
	board := rank.Gather(run.Snapshot, h.group.Maps(), set.BurstWindow(), run.At)

	resp := leaderboardResponse{RunID: run.ID, GeneratedAt: run.At}
	for _, cs := range board.Campaigns {
		cb := campaignBoard{
			ID:               cs.Campaign,
			Name:             cs.Name,
			Sessions7d:       cs.Total7d,
			PlayerSessions7d: cs.Player7d,
			GMSessions7d:     cs.GM7d,
			Trend:            trendLabel(cs.Trend),
		}
		if cs.AvgGapOK {
			gap := cs.AvgGapAll
			cb.AvgGapHours = &gap
		}
		if cs.PlayerGapOK {
			gap := cs.PlayerGap
			cb.PlayerGapHours = &gap
		}
		if !cs.LastPost.IsZero() {
			at := cs.LastPost
			cb.LastPostAt = &at
		}
		for _, p := range cs.TopPosters {
			cb.TopPosters = append(cb.TopPosters, posterBoard{
				Name:     p.FullName,
				Username: p.Username,
				Sessions: p.Sessions,
			})
		}
		resp.Campaigns = append(resp.Campaigns, cb)
	}
	for _, g := range board.Global {
		resp.Global = append(resp.Global, globalPoster{
			Name:      g.FullName,
			Username:  g.Username,
			Sessions:  g.Sessions,
			Campaigns: g.Campaigns,
		})
	}
	for _, s := range board.Streaks {
		resp.Streaks = append(resp.Streaks, streakBoard{
			Name:     s.Name,
			Campaign: s.Campaign,
			Days:     s.Streak,
		})
	}

	writeJSONObject(w, http.StatusOK, resp)
}

func trendLabel(t activity.Trend) string {
	switch t {
	case activity.TrendDormant:
		return "dormant"
	case activity.TrendNew:
		return "new"
	case activity.TrendUp:
		return "up"
	case activity.TrendDown:
		return "down"
	default:
		return "steady"
	}
}

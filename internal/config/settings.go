package config

import (
	"fmt"
	"time"
)

// Settings holds every engine tunable. A value is built once per run from
// the defaults plus the group file's settings block and passed explicitly
// into each component; nothing reads tunables from package state.
type Settings struct {
	// Session normalization
	BurstWindowMinutes int `json:"post_session_minutes"`

	// Inactivity alert (per campaign)
	AlertAfterHours int `json:"alert_after_hours"`

	// Player warning ladder
	WarnWeeks   []int `json:"player_warn_weeks"`
	RemoveWeeks int   `json:"player_remove_weeks"`

	// Periodic check intervals
	RosterIntervalDays      int `json:"roster_interval_days"`
	AwardIntervalDays       int `json:"award_interval_days"`
	PaceIntervalDays        int `json:"pace_interval_days"`
	LeaderboardIntervalDays int `json:"leaderboard_interval_days"`
	RecruitmentIntervalDays int `json:"recruitment_interval_days"`
	DigestIntervalDays      int `json:"digest_interval_days"`
	PaceDropIntervalDays    int `json:"pace_drop_interval_days"`
	TipIntervalHours        int `json:"tip_interval_hours"`

	// Weekly consistency award
	AwardMinSessions int `json:"award_min_sessions"`
	AwardExpiryHours int `json:"award_expiry_hours"`

	// Combat
	CombatPingHours int `json:"combat_ping_hours"`

	// Recruitment
	RequiredPlayers int `json:"required_players"`

	// Pace-drop alert
	PaceDropMinLastWeek int     `json:"pace_drop_min_last_week"`
	PaceDropRatio       float64 `json:"pace_drop_ratio"`

	// Silence alert
	SilenceHours int `json:"silence_hours"`

	// Monotonic milestones
	StreakMilestones        []int `json:"streak_milestones"`
	MessageMilestones       []int `json:"message_milestones"`
	GlobalMessageMilestones []int `json:"global_message_milestones"`

	// Raw timestamp retention
	RetentionDays int `json:"retention_days"`
}

// DefaultSettings returns the engine defaults. The group file's settings
// block overrides individual fields; list-valued fields replace wholesale.
func DefaultSettings() Settings {
	return Settings{
		BurstWindowMinutes: 10,

		AlertAfterHours: 4,

		WarnWeeks:   []int{1, 2, 3},
		RemoveWeeks: 4,

		RosterIntervalDays:      3,
		AwardIntervalDays:       7,
		PaceIntervalDays:        7,
		LeaderboardIntervalDays: 3,
		RecruitmentIntervalDays: 14,
		DigestIntervalDays:      7,
		PaceDropIntervalDays:    7,
		TipIntervalHours:        24,

		AwardMinSessions: 5,
		AwardExpiryHours: 48,

		CombatPingHours: 4,

		RequiredPlayers: 6,

		PaceDropMinLastWeek: 5,
		PaceDropRatio:       0.5,

		SilenceHours: 48,

		StreakMilestones:        []int{7, 14, 30, 60, 100},
		MessageMilestones:       []int{100, 500, 1000, 2500, 5000, 10000, 25000},
		GlobalMessageMilestones: []int{1000, 5000, 10000, 25000, 50000, 100000},

		RetentionDays: 15,
	}
}

// BurstWindow returns the session burst window as a duration.
func (s Settings) BurstWindow() time.Duration {
	return time.Duration(s.BurstWindowMinutes) * time.Minute
}

// Retention returns the raw timestamp retention as a duration.
func (s Settings) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// validate reports settings combinations the engine cannot run with.
func (s Settings) validate() []string {
	var problems []string
	if s.BurstWindowMinutes <= 0 {
		problems = append(problems, "post_session_minutes must be positive")
	}
	if s.RequiredPlayers <= 0 {
		problems = append(problems, "required_players must be positive")
	}
	if s.RetentionDays < 14 {
		problems = append(problems, "retention_days below 14 breaks week-over-week metrics")
	}
	if len(s.WarnWeeks) == 0 {
		problems = append(problems, "player_warn_weeks must not be empty")
	}
	for i := 1; i < len(s.WarnWeeks); i++ {
		if s.WarnWeeks[i] <= s.WarnWeeks[i-1] {
			problems = append(problems, "player_warn_weeks must be strictly ascending")
			break
		}
	}
	if len(s.WarnWeeks) > 0 && s.RemoveWeeks <= s.WarnWeeks[len(s.WarnWeeks)-1] {
		problems = append(problems, fmt.Sprintf(
			"player_remove_weeks (%d) must exceed the last warning week (%d)",
			s.RemoveWeeks, s.WarnWeeks[len(s.WarnWeeks)-1]))
	}
	if s.PaceDropRatio <= 0 || s.PaceDropRatio >= 1 {
		problems = append(problems, "pace_drop_ratio must be between 0 and 1")
	}
	return problems
}

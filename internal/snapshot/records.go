package snapshot

import (
	"strconv"
	"time"
)

// TopicRecord tracks the most recent post seen in a campaign topic.
type TopicRecord struct {
	LastPostAt   time.Time `json:"last_post_at"`
	LastUserID   int64     `json:"last_user_id"`
	LastUserName string    `json:"last_user_name"`
}

// Player is an active roster entry. The campaign and user ids live in the
// map key; UserID is duplicated here so records are self-describing.
type Player struct {
	UserID     int64     `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name,omitempty"`
	Username   string    `json:"username,omitempty"`
	LastPostAt time.Time `json:"last_post_at"`
	// WarnedWeek is the highest inactivity warning already delivered
	// (0 = none). Reset to 0 whenever the player posts.
	WarnedWeek int `json:"warned_week,omitempty"`
}

// DisplayName returns the best human-readable name for the player.
func (p *Player) DisplayName() string {
	return displayName(p.FirstName, p.LastName, p.Username, p.UserID)
}

// RemovedPlayer remembers a roster entry dropped for inactivity. Message
// counts and timestamps survive removal so a returning player keeps their
// history.
type RemovedPlayer struct {
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	Username  string    `json:"username,omitempty"`
	RemovedAt time.Time `json:"removed_at"`
}

// PendingAward is a posted weekly-award picker waiting for the winner to
// tap a choice.
type PendingAward struct {
	MessageID int64     `json:"message_id"`
	Winner    int64     `json:"winner"`
	Options   []string  `json:"options"`
	BaseText  string    `json:"base_text"`
	PostedAt  time.Time `json:"posted_at"`
}

// Pause marks a campaign as deliberately on hold.
type Pause struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

// Away marks a single player as temporarily exempt from warnings and
// combat pings. Until is zero for an indefinite absence.
type Away struct {
	At     time.Time `json:"at"`
	Until  time.Time `json:"until"`
	Reason string    `json:"reason,omitempty"`
}

// Expired reports whether a timed away record has lapsed.
func (a *Away) Expired(now time.Time) bool {
	return !a.Until.IsZero() && now.After(a.Until)
}

func displayName(first, last, username string, id int64) string {
	name := first
	if last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}
	if name == "" {
		name = username
	}
	if name == "" {
		name = "User " + strconv.FormatInt(id, 10)
	}
	return name
}

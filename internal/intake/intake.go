// Package intake folds fetched Telegram updates into the snapshot:
// activity recording, roster upkeep, slash commands, and award-picker
// callbacks. It advances the update offset as it goes so a crash never
// replays handled updates into double-counted posts.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// Messenger is the outbound surface intake needs: replies, picker edits,
// and callback acknowledgements.
type Messenger interface {
	Send(ctx context.Context, chatID, threadID int64, text string) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Acknowledge(ctx context.Context, callbackID, text string) error
}

// Processor folds updates for one group.
type Processor struct {
	Config    *config.GroupConfig
	Snapshot  *snapshot.Snapshot
	Messenger Messenger
	Logger    *slog.Logger
}

// Result tracks counts and errors from one intake pass.
type Result struct {
	Updates   int
	Tracked   int
	Commands  int
	Callbacks int
	Rejoined  int
	Errors    []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	return fmt.Sprintf("updates=%d tracked=%d commands=%d callbacks=%d rejoined=%d errors=%d",
		r.Updates, r.Tracked, r.Commands, r.Callbacks, r.Rejoined, len(r.Errors))
}

// Process folds a batch of updates into the snapshot. Messages outside
// the configured group or its PBP topics are skipped but still advance
// the offset.
func (p *Processor) Process(ctx context.Context, updates []telegram.Update, now time.Time) Result {
	var res Result
	maps := p.Config.Maps()
	snap := p.Snapshot

	for i := range updates {
		u := &updates[i]
		res.Updates++
		if u.UpdateID >= snap.Offset {
			snap.Offset = u.UpdateID + 1
		}

		if u.CallbackQuery != nil {
			p.handleCallback(ctx, u.CallbackQuery, &res)
			continue
		}
		msg := u.Message
		if msg == nil {
			continue
		}
		if msg.Chat.ID != p.Config.GroupID || msg.ThreadID == 0 {
			continue
		}
		campaign, ok := maps.Canonical(msg.ThreadID)
		if !ok {
			continue
		}
		if msg.From == nil || msg.From.IsBot {
			continue
		}

		at := now
		if msg.Date != 0 {
			at = time.Unix(msg.Date, 0).UTC()
		}

		text := strings.TrimSpace(msg.Text)
		if text == "" {
			text = strings.TrimSpace(msg.Caption)
		}
		isCommand := strings.HasPrefix(text, "/")
		if isCommand {
			if p.handleCommand(ctx, maps, campaign, msg, text, now, &res) {
				res.Commands++
			}
		}

		p.track(ctx, maps, campaign, msg, isCommand, at, &res)
	}
	return res
}

// track folds one message into the activity maps and keeps the roster,
// away set, and combat acted-set in step with it.
func (p *Processor) track(ctx context.Context, maps *config.TopicMaps, campaign int64, msg *telegram.Message, isCommand bool, at time.Time, res *Result) {
	snap := p.Snapshot
	from := msg.From

	snap.RecordPost(campaign, from.ID, from.FirstName, at)
	res.Tracked++

	if !maps.IsGM(campaign, from.ID) {
		key := snapshot.Key(campaign, from.ID)
		if _, wasRemoved := snap.Removed[key]; wasRemoved {
			delete(snap.Removed, key)
			res.Rejoined++
			p.Logger.Info("Player rejoined after removal",
				"campaign", maps.Name(campaign), "user", from.FirstName)
		}
		snap.Players[key] = &snapshot.Player{
			UserID:     from.ID,
			FirstName:  from.FirstName,
			LastName:   from.LastName,
			Username:   from.Username,
			LastPostAt: at,
		}
	}

	// A real post ends an away spell; commands are bookkeeping, not play.
	if !isCommand {
		if _, ok := snap.AwayFor(campaign, from.ID, at); ok {
			delete(snap.Away, snapshot.Key(campaign, from.ID))
			p.Logger.Info("Away cleared by post",
				"campaign", maps.Name(campaign), "user", from.FirstName)
		}
	}

	c := snap.Combats[campaign]
	if c == nil || isCommand || maps.IsGM(campaign, from.ID) {
		return
	}
	if !c.RecordAction(from.ID, at) {
		return
	}
	if c.AllActedNotified || !c.AllActed(snap.RosterIDs(campaign)) {
		return
	}
	if _, err := p.Messenger.Send(ctx, p.Config.GroupID, msg.ThreadID, report.AllActed(c.Round)); err != nil {
		res.AddErrorf("all-acted notice for %s: %v", maps.Name(campaign), err)
		return
	}
	c.AllActedNotified = true
}

// reply sends a command response back into the thread it came from.
func (p *Processor) reply(ctx context.Context, threadID int64, text string, res *Result) {
	if text == "" {
		return
	}
	if _, err := p.Messenger.Send(ctx, p.Config.GroupID, threadID, text); err != nil {
		res.AddErrorf("reply: %v", err)
	}
}

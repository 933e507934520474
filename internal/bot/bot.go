// Package bot wires one full engine pass: load the snapshot, drain the
// pending Telegram updates, fold them in, run every periodic check, and
// save the snapshot back. The serve loop repeats that pass on a ticker
// and publishes each finished run for the status server.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/checks"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/intake"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/store"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// Transport is the full Telegram surface a run needs: the update fetch
// plus the outbound primitives intake and the checks send through.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, error)
	Send(ctx context.Context, chatID, threadID int64, text string) (int64, error)
	SendWithChoices(ctx context.Context, chatID, threadID int64, text string, choices []telegram.Choice) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Acknowledge(ctx context.Context, callbackID, text string) error
}

// Runner owns the load -> intake -> checks -> save cycle for one group.
type Runner struct {
	Group   *config.GroupConfig
	Store   store.Store
	Client  Transport
	Archive checks.ArchiveSink
	Logger  *slog.Logger

	latest atomic.Pointer[RunStatus]
}

// RunStatus is one finished run: its correlation id, what intake and the
// checks did, and a private copy of the snapshot as it was saved. The
// status server reads these without touching live state.
type RunStatus struct {
	ID       string
	At       time.Time
	Duration time.Duration
	Intake   intake.Result
	Checks   checks.Result
	Snapshot *snapshot.Snapshot
}

// RunOnce executes a single batch pass at the given time. A fetch
// failure degrades to an empty batch (the offset stays put, so the next
// run picks the updates up); a save failure fails the run, since an
// unsaved snapshot would double-post everything on the next pass.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (*RunStatus, error) {
	id := ulid.Make().String()
	logger := r.Logger.With("run", id)
	start := time.Now()

	snap, err := r.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	updates, err := r.Client.GetUpdates(ctx, snap.Offset, 0)
	if err != nil {
		logger.Warn("Update fetch failed, running checks only", "error", err)
	}

	proc := &intake.Processor{Config: r.Group, Snapshot: snap, Messenger: r.Client, Logger: logger}
	intakeRes := proc.Process(ctx, updates, now)

	engine := &checks.Engine{Config: r.Group, Snapshot: snap, Messenger: r.Client, Archive: r.Archive, Logger: logger}
	checkRes := engine.Run(ctx, now)

	snap.Prune(r.Group.Settings().Retention(), now)

	if err := r.Store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	status := &RunStatus{
		ID:       id,
		At:       now,
		Duration: time.Since(start),
		Intake:   intakeRes,
		Checks:   checkRes,
		Snapshot: clone(snap),
	}
	r.latest.Store(status)

	logger.Info("Run finished",
		"duration", status.Duration.Round(time.Millisecond),
		"intake", intakeRes.Summary(),
		"checks", checkRes.Summary())
	return status, nil
}

// Serve repeats RunOnce on a fixed interval until the context is
// cancelled. The first pass runs immediately; passes never overlap. A
// failed pass is logged and retried on the next tick.
func (r *Runner) Serve(ctx context.Context, interval time.Duration) {
	r.Logger.Info("Run loop started", "interval", interval)

	if _, err := r.RunOnce(ctx, time.Now().UTC()); err != nil {
		r.Logger.Error("Run failed", "error", err)
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if _, err := r.RunOnce(ctx, time.Now().UTC()); err != nil {
				r.Logger.Error("Run failed", "error", err)
			}
		case <-ctx.Done():
			r.Logger.Info("Run loop stopped")
			return
		}
	}
}

// Latest returns the most recently completed run, if any.
func (r *Runner) Latest() (*RunStatus, bool) {
	status := r.latest.Load()
	return status, status != nil
}

// clone deep-copies the snapshot through its JSON form, the same shape
// every store backend round-trips it through.
func clone(snap *snapshot.Snapshot) *snapshot.Snapshot {
	raw, err := json.Marshal(snap)
	if err != nil {
		return snapshot.New()
	}
	var dup snapshot.Snapshot
	if err := json.Unmarshal(raw, &dup); err != nil {
		return snapshot.New()
	}
	dup.Backfill()
	return &dup
}

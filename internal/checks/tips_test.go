package checks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDailyTipSendsAndTracks(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	e, m := newEngine(t)

	r := newRun(e, now)
	e.dailyTip(context.Background(), r)

	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}
	if m.sent[0].ThreadID != 500 {
		t.Errorf("tip went to thread %d, want the global thread", m.sent[0].ThreadID)
	}
	if !strings.Contains(m.sent[0].Text, "💡 PBP tip of the day:") {
		t.Errorf("text = %q", m.sent[0].Text)
	}
	if len(e.Snapshot.UsedTips) != 1 {
		t.Errorf("UsedTips = %v, want one entry", e.Snapshot.UsedTips)
	}
	if !e.Snapshot.LastTip.Equal(now) {
		t.Errorf("LastTip = %v, want %v", e.Snapshot.LastTip, now)
	}
}

func TestDailyTipHonorsCooldown(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	e, m := newEngine(t)
	e.Snapshot.LastTip = now.Add(-10 * time.Hour)

	e.dailyTip(context.Background(), newRun(e, now))
	if len(m.sent) != 0 {
		t.Fatalf("sent %d messages inside the cooldown", len(m.sent))
	}
}

func TestDailyTipPicksUnusedTip(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	e, m := newEngine(t)
	for i := 0; i < len(tips)-1; i++ {
		e.Snapshot.UsedTips = append(e.Snapshot.UsedTips, i)
	}

	e.dailyTip(context.Background(), newRun(e, now))

	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}
	last := tips[len(tips)-1]
	if !strings.Contains(m.sent[0].Text, last) {
		t.Errorf("text = %q, want the one unused tip %q", m.sent[0].Text, last)
	}
	got := e.Snapshot.UsedTips
	if len(got) != len(tips) || got[len(got)-1] != len(tips)-1 {
		t.Errorf("UsedTips = %v, want the final index appended", got)
	}
}

func TestDailyTipResetsCycle(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	e, m := newEngine(t)
	for i := range tips {
		e.Snapshot.UsedTips = append(e.Snapshot.UsedTips, i)
	}

	e.dailyTip(context.Background(), newRun(e, now))

	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}
	if got := e.Snapshot.UsedTips; len(got) != 1 {
		t.Errorf("UsedTips = %v, want a fresh cycle with one entry", got)
	}
}

func TestDailyTipKeepsStateOnFailedSend(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	e, m := newEngine(t)
	m.sendErr = errors.New("telegram down")

	r := newRun(e, now)
	e.dailyTip(context.Background(), r)

	if len(r.res.Errors) != 1 {
		t.Fatalf("errors = %v, want the failed send recorded", r.res.Errors)
	}
	if len(e.Snapshot.UsedTips) != 0 || !e.Snapshot.LastTip.IsZero() {
		t.Error("failed send must not advance tip state")
	}
}

package checks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

func TestInactivityAlertFires(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)

	e.inactivityAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	m := fake.sent[0]
	if m.ThreadID != 200 {
		t.Errorf("thread = %d, want Crownfall chat topic 200", m.ThreadID)
	}
	if !strings.Contains(m.Text, "No new posts in Crownfall") {
		t.Errorf("text = %q", m.Text)
	}
	if !strings.Contains(m.Text, "Alice (3 total posts)") {
		t.Errorf("text = %q, want last poster with their count", m.Text)
	}
	if !e.Snapshot.LastAlert[100].Equal(now) {
		t.Errorf("LastAlert = %v, want %v", e.Snapshot.LastAlert[100], now)
	}
}

func TestInactivityAlertSkipsFreshTopic(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-2*time.Hour), time.Hour)

	e.inactivityAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 for a topic under the threshold", len(fake.sent))
	}
}

func TestInactivityAlertDebounces(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)

	e.Snapshot.LastAlert[100] = now.Add(-2 * time.Hour)
	e.inactivityAlerts(context.Background(), newRun(e, now))
	if len(fake.sent) != 0 {
		t.Fatalf("alerted again %v inside the alert window", fake.sent)
	}

	e.Snapshot.LastAlert[100] = now.Add(-5 * time.Hour)
	e.inactivityAlerts(context.Background(), newRun(e, now))
	if len(fake.sent) != 1 {
		t.Errorf("sent %d messages, want a re-alert once the window passed", len(fake.sent))
	}
}

func TestInactivityAlertSkipsPausedCampaign(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)
	e.Snapshot.Paused[100] = &snapshot.Pause{At: now.Add(-time.Hour), Reason: "GM moving house"}

	e.inactivityAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 for a paused campaign", len(fake.sent))
	}
}

func TestInactivityAlertHonorsDisabledFeature(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngineWith(t, `{
		"group_id": -100,
		"gm_user_ids": [999],
		"topic_pairs": [
			{"name": "Crownfall", "chat_topic_id": 200, "pbp_topic_ids": [100], "disabled_features": ["alerts"]}
		]
	}`)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)

	e.inactivityAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 with alerts disabled", len(fake.sent))
	}
}

func TestInactivityAlertRetriesAfterFailedSend(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)

	fake.sendErr = errors.New("telegram down")
	r := newRun(e, now)
	e.inactivityAlerts(context.Background(), r)
	if len(r.res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one send failure", r.res.Errors)
	}
	if !e.Snapshot.LastAlert[100].IsZero() {
		t.Fatal("failed send must not advance the alert stamp")
	}

	fake.sendErr = nil
	e.inactivityAlerts(context.Background(), newRun(e, now))
	if len(fake.sent) != 1 {
		t.Errorf("sent %d messages, want the retry to deliver", len(fake.sent))
	}
	if !e.Snapshot.LastAlert[100].Equal(now) {
		t.Errorf("LastAlert = %v, want %v after the delivered retry", e.Snapshot.LastAlert[100], now)
	}
}

func TestSilenceAlertLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 2, now.Add(-50*time.Hour), time.Hour)

	e.silenceAlerts(context.Background(), newRun(e, now))
	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want the first silence alert", len(fake.sent))
	}
	if !strings.Contains(fake.sent[0].Text, "💤 Crownfall has been silent") {
		t.Errorf("text = %q", fake.sent[0].Text)
	}

	e.silenceAlerts(context.Background(), newRun(e, now.Add(time.Hour)))
	if len(fake.sent) != 1 {
		t.Fatal("silence alert repeated while the flag was set")
	}

	// Fresh activity clears the flag; renewed silence fires again.
	later := now.Add(24 * time.Hour)
	e.Snapshot.RecordPost(100, 42, "Alice", later)
	e.silenceAlerts(context.Background(), newRun(e, later.Add(time.Hour)))
	if e.Snapshot.SilenceAlerted[100] {
		t.Fatal("fresh activity should clear the silence flag")
	}

	e.silenceAlerts(context.Background(), newRun(e, later.Add(60*time.Hour)))
	if len(fake.sent) != 2 {
		t.Errorf("sent %d messages, want a second alert after the flag reset", len(fake.sent))
	}
}

func TestSilenceAlertSkipsPaused(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 2, now.Add(-50*time.Hour), time.Hour)
	e.Snapshot.Paused[100] = &snapshot.Pause{At: now}

	e.silenceAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 for a paused campaign", len(fake.sent))
	}
}

func TestPaceDropAlertFires(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	// 10 posts last week, 2 this week: well past the halving threshold.
	seedRoster(e.Snapshot, 100, 42, "Alice", 10, now.Add(-8*24*time.Hour), time.Hour)
	e.Snapshot.RecordPost(100, 42, "Alice", now.Add(-2*24*time.Hour))
	e.Snapshot.RecordPost(100, 42, "Alice", now.Add(-1*24*time.Hour))

	e.paceDropAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	text := fake.sent[0].Text
	if !strings.Contains(text, "📉 Pace check: Crownfall") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "2 posts this week, down from 10 posts") {
		t.Errorf("text = %q, want raw week-over-week counts", text)
	}
	if !e.Snapshot.LastPaceDrop.Equal(now) {
		t.Errorf("LastPaceDrop = %v, want %v", e.Snapshot.LastPaceDrop, now)
	}
}

func TestPaceDropIgnoresQuietCampaigns(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	// Only 3 posts last week: below the minimum floor, no alert.
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-8*24*time.Hour), time.Hour)

	e.paceDropAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 below the last-week floor", len(fake.sent))
	}
	if !e.Snapshot.LastPaceDrop.Equal(now) {
		t.Error("scan marker should advance even when nothing is alerted")
	}
}

func TestPaceDropScanIsDebounced(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	seedRoster(e.Snapshot, 100, 42, "Alice", 10, now.Add(-8*24*time.Hour), time.Hour)
	stamp := now.Add(-2 * 24 * time.Hour)
	e.Snapshot.LastPaceDrop = stamp

	e.paceDropAlerts(context.Background(), newRun(e, now))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want 0 inside the scan interval", len(fake.sent))
	}
	if !e.Snapshot.LastPaceDrop.Equal(stamp) {
		t.Error("skipped scan must leave the marker alone")
	}
}

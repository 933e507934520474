package checks

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/archive"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

type sentMessage struct {
	ChatID   int64
	ThreadID int64
	Text     string
}

type choiceMessage struct {
	ThreadID int64
	Text     string
	Choices  []telegram.Choice
}

type editRecord struct {
	MessageID int64
	Text      string
}

type fakeMessenger struct {
	sent    []sentMessage
	choices []choiceMessage
	edits   []editRecord
	sendErr error
	editErr error
}

func (f *fakeMessenger) Send(_ context.Context, chatID, threadID int64, text string) (int64, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID, threadID, text})
	return int64(9000 + len(f.sent)), nil
}

func (f *fakeMessenger) SendWithChoices(_ context.Context, chatID, threadID int64, text string, choices []telegram.Choice) (int64, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.choices = append(f.choices, choiceMessage{threadID, text, choices})
	return int64(7000 + len(f.choices)), nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID, messageID int64, text string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editRecord{messageID, text})
	return nil
}

func (f *fakeMessenger) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1].Text
}

// panicMessenger simulates a collaborator blowing up mid-check.
type panicMessenger struct{}

func (panicMessenger) Send(context.Context, int64, int64, string) (int64, error) {
	panic("messenger exploded")
}

func (panicMessenger) SendWithChoices(context.Context, int64, int64, string, []telegram.Choice) (int64, error) {
	panic("messenger exploded")
}

func (panicMessenger) Edit(context.Context, int64, int64, string) error {
	panic("messenger exploded")
}

type fakeArchive struct {
	weeks  map[string]map[int64]archive.Document
	writes int
	err    error
}

func (f *fakeArchive) WriteWeek(week string, docs map[int64]archive.Document) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	if f.weeks == nil {
		f.weeks = make(map[string]map[int64]archive.Document)
	}
	f.weeks[week] = docs
	return nil
}

func newEngine(t *testing.T) (*Engine, *fakeMessenger) {
	t.Helper()
	return newEngineWith(t, `{
		"group_id": -100,
		"leaderboard_topic_id": 500,
		"gm_user_ids": [999],
		"topic_pairs": [
			{"name": "Crownfall", "chat_topic_id": 200, "pbp_topic_ids": [100, 101]},
			{"name": "Dregs", "chat_topic_id": 400, "pbp_topic_ids": [300]}
		]
	}`)
}

func newEngineWith(t *testing.T, rawConfig string) (*Engine, *fakeMessenger) {
	t.Helper()
	gc, err := config.ParseGroupConfig([]byte(rawConfig))
	if err != nil {
		t.Fatalf("ParseGroupConfig: %v", err)
	}
	fake := &fakeMessenger{}
	return &Engine{
		Config:    gc,
		Snapshot:  snapshot.New(),
		Messenger: fake,
		Archive:   &fakeArchive{},
		Logger:    slog.New(slog.DiscardHandler),
	}, fake
}

func newRun(e *Engine, now time.Time) *run {
	return &run{maps: e.Config.Maps(), set: e.Config.Settings(), now: now, res: &Result{}}
}

// seedRoster adds an active player with count posts ending at last,
// spaced gap apart.
func seedRoster(snap *snapshot.Snapshot, campaign, user int64, first string, count int, last time.Time, gap time.Duration) {
	for i := count - 1; i >= 0; i-- {
		snap.RecordPost(campaign, user, first, last.Add(-time.Duration(i)*gap))
	}
	snap.Players[snapshot.Key(campaign, user)] = &snapshot.Player{
		UserID:     user,
		FirstName:  first,
		LastPostAt: last,
	}
}

func TestRunFiresOnceThenGoesQuiet(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, fake := newEngine(t)
	sink := &fakeArchive{}
	e.Archive = sink
	seedRoster(e.Snapshot, 100, 42, "Alice", 6, now.Add(-time.Hour), 12*time.Hour)

	res := e.Run(context.Background(), now)
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Sent == 0 {
		t.Fatal("first run on fresh state should send something")
	}
	if !res.Archived {
		t.Error("first run should archive last week")
	}
	if len(sink.weeks) != 1 {
		t.Errorf("archived weeks = %d, want 1", len(sink.weeks))
	}
	if !strings.Contains(res.Summary(), "archived=true") {
		t.Errorf("summary = %q", res.Summary())
	}

	fake.sent, fake.choices = nil, nil
	res2 := e.Run(context.Background(), now.Add(time.Hour))
	if res2.Sent != 0 {
		t.Errorf("second run sent %d messages, want 0: %+v", res2.Sent, fake.sent)
	}
	if res2.Archived {
		t.Error("second run re-archived the same week")
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	e, _ := newEngine(t)
	e.Messenger = panicMessenger{}
	sink := &fakeArchive{}
	e.Archive = sink
	seedRoster(e.Snapshot, 100, 42, "Alice", 3, now.Add(-30*time.Hour), time.Hour)

	res := e.Run(context.Background(), now)

	var sawPanic bool
	for _, msg := range res.Errors {
		if strings.HasPrefix(msg, "Topic alerts: panic:") {
			sawPanic = true
		}
	}
	if !sawPanic {
		t.Errorf("errors = %v, want a recorded panic from the alert check", res.Errors)
	}
	if !res.Archived {
		t.Error("archive check should still run after earlier checks panic")
	}
	if len(sink.weeks) != 1 {
		t.Errorf("archived weeks = %d, want 1", len(sink.weeks))
	}
}

func TestGlobalThreadFallsBackToFirstCampaign(t *testing.T) {
	e, _ := newEngineWith(t, `{
		"group_id": -100,
		"gm_user_ids": [999],
		"topic_pairs": [
			{"name": "Crownfall", "chat_topic_id": 200, "pbp_topic_ids": [100]}
		]
	}`)
	if got := e.globalThread(e.Config.Maps()); got != 200 {
		t.Errorf("globalThread = %d, want first campaign's chat topic 200", got)
	}

	e2, _ := newEngine(t)
	if got := e2.globalThread(e2.Config.Maps()); got != 500 {
		t.Errorf("globalThread = %d, want configured leaderboard topic 500", got)
	}
}

func TestIntervalElapsed(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		days int
		want bool
	}{
		{"never fired", time.Time{}, 7, true},
		{"just fired", now.Add(-time.Hour), 7, false},
		{"one day short", now.Add(-6 * 24 * time.Hour), 7, false},
		{"exactly due", now.Add(-7 * 24 * time.Hour), 7, true},
		{"overdue", now.Add(-30 * 24 * time.Hour), 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intervalElapsed(tt.last, tt.days, now); got != tt.want {
				t.Errorf("intervalElapsed = %t, want %t", got, tt.want)
			}
		})
	}
}

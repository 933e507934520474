package intake

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

type sentMessage struct {
	ChatID   int64
	ThreadID int64
	Text     string
}

type editRecord struct {
	ChatID    int64
	MessageID int64
	Text      string
}

type fakeMessenger struct {
	sent  []sentMessage
	edits []editRecord
	acks  []string
}

func (f *fakeMessenger) Send(_ context.Context, chatID, threadID int64, text string) (int64, error) {
	f.sent = append(f.sent, sentMessage{chatID, threadID, text})
	return int64(9000 + len(f.sent)), nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID, messageID int64, text string) error {
	f.edits = append(f.edits, editRecord{chatID, messageID, text})
	return nil
}

func (f *fakeMessenger) Acknowledge(_ context.Context, _ string, text string) error {
	f.acks = append(f.acks, text)
	return nil
}

func (f *fakeMessenger) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1].Text
}

func newProcessor(t *testing.T) (*Processor, *fakeMessenger) {
	t.Helper()
	gc, err := config.ParseGroupConfig([]byte(`{
		"group_id": -100,
		"gm_user_ids": [999],
		"topic_pairs": [
			{"name": "Crownfall", "chat_topic_id": 200, "pbp_topic_ids": [100, 101]},
			{"name": "Dregs", "chat_topic_id": 400, "pbp_topic_ids": [300]}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseGroupConfig: %v", err)
	}
	fake := &fakeMessenger{}
	return &Processor{
		Config:    gc,
		Snapshot:  snapshot.New(),
		Messenger: fake,
		Logger:    slog.New(slog.DiscardHandler),
	}, fake
}

func msgUpdate(updateID, thread, user int64, first, text string, at time.Time) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: updateID * 10,
			From:      &telegram.User{ID: user, FirstName: first},
			Chat:      telegram.Chat{ID: -100},
			ThreadID:  thread,
			Date:      at.Unix(),
			Text:      text,
		},
	}
}

func TestProcessTracksMessages(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)

	res := p.Process(context.Background(), []telegram.Update{
		msgUpdate(1001, 100, 42, "Alice", "I attack the goblin", now),
	}, now)

	if p.Snapshot.Offset != 1002 {
		t.Errorf("offset = %d, want 1002", p.Snapshot.Offset)
	}
	if res.Tracked != 1 {
		t.Errorf("tracked = %d, want 1", res.Tracked)
	}
	topic := p.Snapshot.Topics[100]
	if topic == nil || topic.LastUserName != "Alice" {
		t.Fatalf("topic record = %+v", topic)
	}
	player, ok := p.Snapshot.Player(100, 42)
	if !ok || player.FirstName != "Alice" {
		t.Fatalf("player record = %+v", player)
	}
	if p.Snapshot.Counts[100][42] != 1 {
		t.Errorf("count = %d, want 1", p.Snapshot.Counts[100][42])
	}
	if len(p.Snapshot.UserTimestamps(100, 42)) != 1 {
		t.Errorf("timestamps = %d, want 1", len(p.Snapshot.UserTimestamps(100, 42)))
	}
}

func TestProcessSkipsForeignAndBotTraffic(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	wrongGroup := msgUpdate(2001, 100, 42, "Alice", "hello", now)
	wrongGroup.Message.Chat.ID = -999

	noThread := msgUpdate(2002, 100, 42, "Alice", "hello", now)
	noThread.Message.ThreadID = 0

	unknownTopic := msgUpdate(2003, 555, 42, "Alice", "hello", now)

	bot := msgUpdate(2004, 100, 77, "Bot", "beep", now)
	bot.Message.From.IsBot = true

	res := p.Process(context.Background(), []telegram.Update{wrongGroup, noThread, unknownTopic, bot}, now)

	if p.Snapshot.Offset != 2005 {
		t.Errorf("offset = %d, want 2005 (skips still advance)", p.Snapshot.Offset)
	}
	if res.Tracked != 0 || len(p.Snapshot.Topics) != 0 {
		t.Errorf("nothing should be tracked: %+v", res)
	}
	if len(fake.sent) != 0 {
		t.Errorf("no replies expected, got %v", fake.sent)
	}
}

func TestProcessGMIsCountedButNotRostered(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(3001, 100, 999, "GM", "The goblin attacks!", now),
	}, now)

	if _, ok := p.Snapshot.Player(100, 999); ok {
		t.Error("GM must not get a roster entry")
	}
	if p.Snapshot.Counts[100][999] != 1 {
		t.Errorf("GM count = %d, want 1", p.Snapshot.Counts[100][999])
	}
}

func TestProcessFoldsSplitTopics(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(4001, 100, 42, "Alice", "part one", now),
		msgUpdate(4002, 101, 42, "Alice", "part two", now.Add(time.Minute)),
	}, now)

	if p.Snapshot.Counts[100][42] != 2 {
		t.Errorf("split topic posts should fold to the canonical campaign, count = %d", p.Snapshot.Counts[100][42])
	}
	if len(p.Snapshot.Counts) != 1 {
		t.Errorf("only the canonical campaign should exist: %v", p.Snapshot.Counts)
	}
}

func TestProcessRejoinsRemovedPlayer(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)
	key := snapshot.Key(100, 42)
	p.Snapshot.Removed[key] = &snapshot.RemovedPlayer{UserID: 42, FirstName: "Alice", RemovedAt: now.Add(-30 * 24 * time.Hour)}

	res := p.Process(context.Background(), []telegram.Update{
		msgUpdate(5001, 100, 42, "Alice", "I'm back, sorry all!", now),
	}, now)

	if _, stillRemoved := p.Snapshot.Removed[key]; stillRemoved {
		t.Error("removed record should be cleared on a fresh post")
	}
	if _, ok := p.Snapshot.Player(100, 42); !ok {
		t.Error("player should be back on the roster")
	}
	if res.Rejoined != 1 {
		t.Errorf("rejoined = %d, want 1", res.Rejoined)
	}
}

func TestProcessResetsWarningOnPost(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)
	p.Snapshot.Players[snapshot.Key(100, 42)] = &snapshot.Player{
		UserID: 42, FirstName: "Alice", WarnedWeek: 2,
		LastPostAt: now.Add(-16 * 24 * time.Hour),
	}

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(5101, 100, 42, "Alice", "finally posting again", now),
	}, now)

	player, _ := p.Snapshot.Player(100, 42)
	if player.WarnedWeek != 0 {
		t.Errorf("warned week = %d, want 0 after posting", player.WarnedWeek)
	}
	if !player.LastPostAt.Equal(now) {
		t.Errorf("last post = %v, want %v", player.LastPostAt, now)
	}
}

func TestHelpCommand(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	res := p.Process(context.Background(), []telegram.Update{
		msgUpdate(6001, 100, 42, "Alice", "/help", now),
	}, now)

	if res.Commands != 1 {
		t.Errorf("commands = %d, want 1", res.Commands)
	}
	if got := fake.lastText(t); !strings.Contains(got, "/status") {
		t.Errorf("help reply = %q", got)
	}
	if fake.sent[0].ThreadID != 100 {
		t.Errorf("reply thread = %d, want the asking thread", fake.sent[0].ThreadID)
	}
}

func TestStatusCommand(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(6101, 100, 42, "Alice", "/status", now),
	}, now)

	if got := fake.lastText(t); !strings.Contains(got, "Status for Crownfall") {
		t.Errorf("status reply = %q", got)
	}
}

func TestPauseAndResume(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(7001, 100, 999, "GM", "/pause Holiday break", now),
	}, now)

	pause := p.Snapshot.Paused[100]
	if pause == nil || pause.Reason != "Holiday break" {
		t.Fatalf("pause record = %+v", pause)
	}
	if got := fake.lastText(t); !strings.Contains(strings.ToLower(got), "paused") {
		t.Errorf("pause reply = %q", got)
	}

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(7002, 100, 999, "GM", "/resume", now),
	}, now)

	if p.Snapshot.IsPaused(100) {
		t.Error("campaign should be unpaused")
	}
	if got := fake.lastText(t); !strings.Contains(strings.ToLower(got), "resumed") {
		t.Errorf("resume reply = %q", got)
	}
}

func TestPauseIgnoresNonGM(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	res := p.Process(context.Background(), []telegram.Update{
		msgUpdate(7101, 100, 42, "Alice", "/pause trying to pause", now),
	}, now)

	if p.Snapshot.IsPaused(100) {
		t.Error("non-GM must not pause a campaign")
	}
	if res.Commands != 0 {
		t.Errorf("commands = %d, want 0", res.Commands)
	}
	if len(fake.sent) != 0 {
		t.Errorf("no reply expected, got %v", fake.sent)
	}
}

func TestAwayAndBack(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, fake := newProcessor(t)

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(8001, 100, 42, "Alice", "/away 3 days vacation", now),
	}, now)

	record := p.Snapshot.Away[snapshot.Key(100, 42)]
	if record == nil {
		t.Fatal("away record missing")
	}
	if record.Reason != "vacation" {
		t.Errorf("reason = %q, want vacation", record.Reason)
	}
	if !record.Until.Equal(now.Add(3 * 24 * time.Hour)) {
		t.Errorf("until = %v, want +3d", record.Until)
	}
	if got := fake.lastText(t); !strings.Contains(got, "✈️") {
		t.Errorf("away reply = %q", got)
	}

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(8002, 100, 42, "Alice", "/back", now),
	}, now)

	if _, ok := p.Snapshot.Away[snapshot.Key(100, 42)]; ok {
		t.Error("away record should be cleared by /back")
	}
	if got := fake.lastText(t); !strings.Contains(got, "👋") {
		t.Errorf("back reply = %q", got)
	}
}

func TestAwayAutoClearsOnPost(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)
	p.Snapshot.Away[snapshot.Key(100, 42)] = &snapshot.Away{At: now.Add(-24 * time.Hour), Reason: "holiday"}

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(8101, 100, 42, "Alice", "I check the chest for traps.", now),
	}, now)

	if _, ok := p.Snapshot.Away[snapshot.Key(100, 42)]; ok {
		t.Error("away should auto-clear on a real post")
	}
}

func TestAwaySurvivesCommands(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	p, _ := newProcessor(t)
	p.Snapshot.Away[snapshot.Key(100, 42)] = &snapshot.Away{At: now.Add(-24 * time.Hour), Reason: "holiday"}

	p.Process(context.Background(), []telegram.Update{
		msgUpdate(8201, 100, 42, "Alice", "/status", now),
	}, now)

	if _, ok := p.Snapshot.Away[snapshot.Key(100, 42)]; !ok {
		t.Error("commands must not clear away status")
	}
}

func TestParseAway(t *testing.T) {
	now := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		args   string
		days   int
		reason string
	}{
		{"3 days vacation", 3, "vacation"},
		{"2 weeks", 14, "Away"},
		{"busy with real life stuff", 0, "busy with real life stuff"},
		{"", 0, "No reason given"},
	}
	for _, c := range cases {
		until, reason := parseAway(c.args, now)
		if reason != c.reason {
			t.Errorf("parseAway(%q) reason = %q, want %q", c.args, reason, c.reason)
		}
		if c.days == 0 {
			if !until.IsZero() {
				t.Errorf("parseAway(%q) until = %v, want indefinite", c.args, until)
			}
			continue
		}
		if want := now.Add(time.Duration(c.days) * 24 * time.Hour); !until.Equal(want) {
			t.Errorf("parseAway(%q) until = %v, want %v", c.args, until, want)
		}
	}
}

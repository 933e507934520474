package activity

import (
	"testing"
	"time"
)

var base = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

const window = 10 * time.Minute

func at(d time.Duration) time.Time { return base.Add(d) }

func TestSessions(t *testing.T) {
	tests := []struct {
		name   string
		stamps []time.Time
		want   int
	}{
		{"empty", nil, 0},
		{"single post", []time.Time{base}, 1},
		{"burst collapses", []time.Time{base, at(3 * time.Minute), at(6 * time.Minute)}, 1},
		{"anchor based not chained", []time.Time{base, at(6 * time.Minute), at(12 * time.Minute)}, 2},
		{"exactly at window stays", []time.Time{base, at(window)}, 1},
		{"just past window splits", []time.Time{base, at(window + time.Second)}, 2},
		{"three sessions", []time.Time{base, at(5 * time.Minute), at(30 * time.Minute), at(2 * time.Hour)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sessions(tt.stamps, window)
			if len(got) != tt.want {
				t.Errorf("Sessions = %v, want %d entries", got, tt.want)
			}
		})
	}
}

func TestSessionsOrderIndependent(t *testing.T) {
	ordered := []time.Time{base, at(5 * time.Minute), at(30 * time.Minute), at(2 * time.Hour)}
	shuffled := []time.Time{at(2 * time.Hour), base, at(30 * time.Minute), at(5 * time.Minute)}

	a := Sessions(ordered, window)
	b := Sessions(shuffled, window)
	if len(a) != len(b) {
		t.Fatalf("order changed session count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("session %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSessionsIdempotent(t *testing.T) {
	stamps := []time.Time{base, at(5 * time.Minute), at(30 * time.Minute), at(35 * time.Minute), at(2 * time.Hour)}
	once := Sessions(stamps, window)
	twice := Sessions(once, window)
	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: %d then %d", len(once), len(twice))
	}
}

func TestInWindow(t *testing.T) {
	stamps := []time.Time{at(-48 * time.Hour), at(-24 * time.Hour), at(-time.Hour), base}
	after := at(-24 * time.Hour)

	got := InWindow(stamps, after, time.Time{})
	if len(got) != 3 {
		t.Fatalf("open window = %v, want 3", got)
	}

	got = InWindow(stamps, after, base)
	if len(got) != 2 {
		t.Fatalf("half-open window = %v, want 2 (before bound excluded)", got)
	}
	if !got[0].Equal(after) {
		t.Fatal("after bound should be included")
	}
}

func TestAvgGapHours(t *testing.T) {
	if _, ok := AvgGapHours(nil); ok {
		t.Fatal("empty input should have no average")
	}
	if _, ok := AvgGapHours([]time.Time{base}); ok {
		t.Fatal("single timestamp should have no average")
	}

	gap, ok := AvgGapHours([]time.Time{base, at(2 * time.Hour), at(6 * time.Hour)})
	if !ok {
		t.Fatal("average undefined for 3 timestamps")
	}
	if gap != 3.0 {
		t.Fatalf("avg gap = %v, want 3.0", gap)
	}

	// Unsorted input gives the same answer.
	gap2, _ := AvgGapHours([]time.Time{at(6 * time.Hour), base, at(2 * time.Hour)})
	if gap2 != gap {
		t.Fatalf("unsorted input changed average: %v vs %v", gap2, gap)
	}
}

func TestStreak(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	day := func(d, h int) time.Time { return now.Add(-time.Duration(d*24+h) * time.Hour) }

	tests := []struct {
		name   string
		stamps []time.Time
		want   int
	}{
		{"empty", nil, 0},
		{"four consecutive days", []time.Time{day(0, 2), day(1, 5), day(2, 3), day(3, 8)}, 4},
		{"gap breaks streak", []time.Time{day(0, 2), day(1, 5), day(3, 3)}, 2},
		{"stale posts", []time.Time{day(5, 0)}, 0},
		{"same day counts once", []time.Time{now.Add(-time.Hour), now.Add(-3 * time.Hour), now.Add(-5 * time.Hour), day(1, 2)}, 2},
		{"latest yesterday still active", []time.Time{day(1, 2), day(2, 2)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.stamps, now); got != tt.want {
				t.Errorf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakNeverShrinksWithMorePosts(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	stamps := []time.Time{now.Add(-2 * time.Hour), now.Add(-26 * time.Hour)}
	before := Streak(stamps, now)
	after := Streak(append(stamps, now.Add(-time.Hour)), now)
	if after < before {
		t.Fatalf("adding a post shrank the streak: %d -> %d", before, after)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		recent, previous int
		want             Trend
	}{
		{0, 0, TrendDormant},
		{10, 0, TrendNew},
		{20, 10, TrendUp},
		{5, 10, TrendDown},
		{10, 10, TrendSteady},
		{115, 100, TrendSteady}, // exactly +15% stays steady
		{116, 100, TrendUp},
		{85, 100, TrendSteady}, // exactly -15% stays steady
		{84, 100, TrendDown},
	}

	for _, tt := range tests {
		if got := Classify(tt.recent, tt.previous); got != tt.want {
			t.Errorf("Classify(%d, %d) = %v, want %v", tt.recent, tt.previous, got, tt.want)
		}
	}
}

func TestTrendIcons(t *testing.T) {
	icons := map[Trend]string{
		TrendDormant: "💤",
		TrendNew:     "🆕",
		TrendUp:      "📈",
		TrendDown:    "📉",
		TrendSteady:  "➡️",
	}
	for trend, want := range icons {
		if got := trend.Icon(); got != want {
			t.Errorf("Icon(%v) = %q, want %q", trend, got, want)
		}
	}
}

// Package archive persists compact weekly per-campaign aggregates as
// JSON documents, one file per ISO week. The snapshot only retains raw
// timestamps for a couple of weeks; the archive is what keeps long-term
// pacing trends queryable after they fall off that horizon.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// TopPoster is one of the week's most active players by session count.
type TopPoster struct {
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
}

// PlayerWeek is a single player's slice of the archived week.
type PlayerWeek struct {
	Posts    int      `json:"posts"`
	Sessions int      `json:"sessions"`
	AvgGapH  *float64 `json:"avg_gap_h"`
}

// Document is one campaign's aggregate for one ISO week. PlayerAvgGapH
// is nil when the week had fewer than two player sessions.
type Document struct {
	Campaign      string                `json:"campaign"`
	Week          string                `json:"week"`
	WeekStart     string                `json:"week_start"`
	GMPosts       int                   `json:"gm_posts"`
	PlayerPosts   int                   `json:"player_posts"`
	TotalPosts    int                   `json:"total_posts"`
	PlayerAvgGapH *float64              `json:"player_avg_gap_h"`
	ActivePlayers int                   `json:"active_players"`
	TopPlayers    []TopPoster           `json:"top_players"`
	Players       map[string]PlayerWeek `json:"player_breakdown,omitempty"`
}

// Writer stores week documents under one directory: <dir>/<week>.json,
// each holding every campaign's document keyed by canonical campaign id.
type Writer struct {
	dir string
}

// NewWriter returns an archive writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteWeek writes the documents for one ISO week. The file goes through
// a temp name and rename so a crash mid-write never leaves a torn
// document behind.
func (w *Writer) WriteWeek(week string, docs map[int64]Document) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	keyed := make(map[string]Document, len(docs))
	for campaign, doc := range docs {
		keyed[strconv.FormatInt(campaign, 10)] = doc
	}
	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode week %s: %w", week, err)
	}

	path := filepath.Join(w.dir, week+".json")
	tmp, err := os.CreateTemp(w.dir, week+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp archive file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp archive file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace archive file: %w", err)
	}
	return nil
}

// ReadWeek loads the documents for one ISO week, keyed by campaign id.
// A missing week returns an empty map.
func (w *Writer) ReadWeek(week string) (map[int64]Document, error) {
	data, err := os.ReadFile(filepath.Join(w.dir, week+".json"))
	if os.IsNotExist(err) {
		return map[int64]Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read week %s: %w", week, err)
	}

	var keyed map[string]Document
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("decode week %s: %w", week, err)
	}

	docs := make(map[int64]Document, len(keyed))
	for key, doc := range keyed {
		campaign, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode week %s: bad campaign key %q", week, key)
		}
		docs[campaign] = doc
	}
	return docs, nil
}

// WeekKey formats the ISO week key for a time, e.g. "2026-W08".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekStart returns the UTC midnight Monday opening t's ISO week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday()+6) % 7 // Monday = 0
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -weekday)
}

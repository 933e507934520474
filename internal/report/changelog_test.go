package report

import (
	"strings"
	"testing"
)

const sampleChangelog = `# Changelog

All notable changes to this project will be documented in this file.

## [1.2.0] - 2026-03-01

### Added
- **Combat tracker** with per-phase pings
- Away command accepts a ` + "`duration`" + ` argument

### Fixed
- Streaks now survive a *quiet* Sunday

## [1.1.0] - 2026-02-10

### Added
- Weekly digest
`

func TestLatestEntry(t *testing.T) {
	header, body := LatestEntry(sampleChangelog)
	if header != "## [1.2.0] - 2026-03-01" {
		t.Errorf("header = %q", header)
	}
	if !strings.HasPrefix(body, "### Added") {
		t.Errorf("body starts with %q", body[:min(len(body), 20)])
	}
	if strings.Contains(body, "1.1.0") || strings.Contains(body, "Weekly digest") {
		t.Errorf("body leaked the older entry:\n%s", body)
	}
}

func TestLatestEntryMissing(t *testing.T) {
	header, body := LatestEntry("# Changelog\n\nnothing released yet\n")
	if header != "" || body != "" {
		t.Errorf("got %q / %q, want empty", header, body)
	}
}

func TestLatestEntryLastBlockRunsToEOF(t *testing.T) {
	_, body := LatestEntry("## [0.1.0] - 2026-01-01\n\n- first cut\n- second line")
	if body != "- first cut\n- second line" {
		t.Errorf("body = %q", body)
	}
}

func TestChangelogMessage(t *testing.T) {
	header, body := LatestEntry(sampleChangelog)
	got := ChangelogMessage(header, body)

	if !strings.HasPrefix(got, "🤖 <b>PBP Reminder Bot v1.2.0</b>  (2026-03-01)") {
		t.Errorf("title line = %q", strings.SplitN(got, "\n", 2)[0])
	}
	for _, want := range []string{
		"<b>Added</b>",
		"<b>Fixed</b>",
		"<b>Combat tracker</b> with per-phase pings",
		"<code>duration</code> argument",
		"a <i>quiet</i> Sunday",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "###") || strings.Contains(got, "**") {
		t.Errorf("markdown leftovers in message:\n%s", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank-line runs not collapsed:\n%s", got)
	}
}

func TestChangelogMessageWithoutVersionOrDate(t *testing.T) {
	got := ChangelogMessage("## Unreleased", "- pending")
	if !strings.HasPrefix(got, "🤖 <b>PBP Reminder Bot vUnknown</b>\n") {
		t.Errorf("title = %q", strings.SplitN(got, "\n", 2)[0])
	}
}

func TestSplitMessageShortTextUntouched(t *testing.T) {
	chunks := SplitMessage("hello\n\nworld", 100)
	if len(chunks) != 1 || chunks[0] != "hello\n\nworld" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitMessageBreaksOnParagraphs(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 40)
	chunks := SplitMessage(a+"\n\n"+b+"\n\n"+c, 90)

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != a+"\n\n"+b {
		t.Errorf("chunks[0] = %q", chunks[0])
	}
	if chunks[1] != c {
		t.Errorf("chunks[1] = %q", chunks[1])
	}
	for i, chunk := range chunks {
		if len(chunk) > 90 {
			t.Errorf("chunk %d is %d bytes", i, len(chunk))
		}
	}
}

func TestSplitMessageFallsBackToLines(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Repeat(string(rune('a'+i)), 30))
	}
	oversized := strings.Join(lines, "\n") // one 309-byte paragraph

	chunks := SplitMessage("intro\n\n"+oversized, 100)
	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want at least 3: %q", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d is %d bytes", i, len(chunk))
		}
	}
	if joined := strings.Join(chunks, "\n"); !strings.Contains(joined, lines[9]) {
		t.Error("tail line lost in split")
	}
}

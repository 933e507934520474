package report

import (
	"regexp"
	"strings"
)

// MaxMessageLength is the Bot API ceiling for one message's text.
const MaxMessageLength = 4096

var (
	versionRe   = regexp.MustCompile(`\[(.+?)\]`)
	entryDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*([^*]+)\*`)
	codeRe      = regexp.MustCompile("`(.+?)`")
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

// LatestEntry extracts the topmost version block from changelog text.
// The header is the "## [x.y.z] - date" line; the body runs until the
// next "## [" header or end of input. Header is "" when the changelog
// carries no version entries.
func LatestEntry(text string) (header, body string) {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "## [") {
			start = i
			break
		}
	}
	if start == -1 {
		return "", ""
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## [") {
			end = i
			break
		}
	}

	header = strings.TrimSpace(lines[start])
	body = strings.TrimSpace(strings.Join(lines[start+1:end], "\n"))
	return header, body
}

// ChangelogMessage renders one changelog entry as a Telegram HTML post.
// "### Section" lines become bold section headers; **bold**, *italic*
// and `code` map to their HTML tags. Bold is replaced before italic so
// a bold pair's stars are never re-matched as italics.
func ChangelogMessage(header, body string) string {
	version := "Unknown"
	if m := versionRe.FindStringSubmatch(header); m != nil {
		version = m[1]
	}
	title := "🤖 <b>PBP Reminder Bot v" + version + "</b>"
	if date := entryDateRe.FindString(header); date != "" {
		title += "  (" + date + ")"
	}

	var processed []string
	for _, line := range strings.Split(body, "\n") {
		if section, ok := strings.CutPrefix(line, "### "); ok {
			processed = append(processed, "\n<b>"+strings.TrimSpace(section)+"</b>")
			continue
		}
		line = boldRe.ReplaceAllString(line, "<b>$1</b>")
		line = italicRe.ReplaceAllString(line, "<i>$1</i>")
		line = codeRe.ReplaceAllString(line, "<code>$1</code>")
		processed = append(processed, line)
	}

	result := title + "\n" + strings.Join(processed, "\n")
	result = blankRunsRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// SplitMessage cuts text into chunks of at most max bytes, breaking on
// paragraph boundaries and falling back to single lines when one
// paragraph alone is oversized.
func SplitMessage(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	current := ""
	flush := func() {
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = ""
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		candidate := paragraph
		if current != "" {
			candidate = current + "\n\n" + paragraph
		}
		if len(candidate) <= max {
			current = candidate
			continue
		}
		flush()

		if len(paragraph) <= max {
			current = paragraph
			continue
		}
		for _, line := range strings.Split(paragraph, "\n") {
			candidate := line
			if current != "" {
				candidate = current + "\n" + line
			}
			if len(candidate) <= max {
				current = candidate
				continue
			}
			flush()
			current = line
		}
	}
	flush()

	return chunks
}

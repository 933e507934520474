package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/rank"
)

// Labels for the finalized award message, depending on whether the winner
// tapped a boon or the picker expired.
const (
	AwardChosenLabel  = "Chosen boon"
	AwardExpiredLabel = "Boon (auto-selected)"
)

// AwardBase builds the Player of the Week announcement without the boon
// list. It is stored on the pending record so the picker message can be
// rebuilt when finalized.
func AwardBase(campaign string, winner rank.Candidate, now time.Time) string {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	return fmt.Sprintf(
		"Player of the Week for %s: %s!\n(%s to %s)\n\n%s this week with an average gap of %.1fh between posts. The most consistent driver of the story.",
		campaign,
		Mention(winner.FirstName, winner.LastName, winner.Username),
		Date(weekAgo), Date(now),
		PostsStr(winner.Sessions), winner.AvgGapHours)
}

// AwardOffer appends the numbered boon list to the base announcement.
func AwardOffer(base string, options []string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nChoose your boon:\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, opt)
	}
	return b.String()
}

// AwardResult rebuilds the picker message once a boon is settled: unchosen
// options struck through, the chosen one checked. The base text and
// options are HTML-escaped here because the original message was sent as
// plain text.
func AwardResult(options []string, chosen int, base, label string) string {
	var b strings.Builder
	b.WriteString(HTMLEscape(base))
	b.WriteString("\n\n")
	b.WriteString(label)
	b.WriteString(":")
	for i, opt := range options {
		escaped := HTMLEscape(opt)
		if i == chosen {
			fmt.Fprintf(&b, "\n%d. %s ✓\n", i+1, escaped)
		} else {
			fmt.Fprintf(&b, "\n<s>%d. %s</s>\n", i+1, escaped)
		}
	}
	return b.String()
}

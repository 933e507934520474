package checks

import (
	"context"
	"math/rand/v2"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
)

// tips rotate group-wide; every entry appears once before the cycle
// starts over.
var tips = []string{
	"End your post with a hook: a question, an action, or an opening another player can pick up.",
	"A two-line reaction today keeps the scene moving better than a perfect post next week.",
	"Use /away before a trip so the party knows not to wait on you.",
	"Bold your dice calls and mechanical intent so the GM can resolve them at a glance.",
	"Reread the last three posts before writing yours. Continuity beats speed.",
	"Stuck on what to do? Ask your character what they're afraid of, then poke it.",
	"React to at least one other character in every post. Shared spotlight is doubled spotlight.",
	"If combat stalls, declare your intent and let the GM fill in the rolls.",
	"Post order is a guideline outside combat. Don't wait for permission to speak in a scene.",
	"Keep table talk in the chat topic and story in the play topic.",
	"Back from time away? /catchup shows what you missed without the scroll.",
	"Describing a failure well earns more table goodwill than narrating a success.",
}

// dailyTip posts the next rotating tip to the global thread, roughly
// once a day.
func (e *Engine) dailyTip(ctx context.Context, r *run) {
	snap := e.Snapshot

	if !hoursElapsed(snap.LastTip, r.set.TipIntervalHours, r.now) {
		return
	}

	used := make(map[int]bool, len(snap.UsedTips))
	for _, idx := range snap.UsedTips {
		used[idx] = true
	}
	var unused []int
	for i := range tips {
		if !used[i] {
			unused = append(unused, i)
		}
	}
	fresh := len(unused) > 0
	if !fresh {
		for i := range tips {
			unused = append(unused, i)
		}
	}
	idx := unused[rand.IntN(len(unused))]

	if !e.send(ctx, e.globalThread(r.maps), report.DailyTip(tips[idx]), r) {
		return
	}
	if fresh {
		snap.UsedTips = append(snap.UsedTips, idx)
	} else {
		snap.UsedTips = []int{idx}
	}
	snap.LastTip = r.now
}

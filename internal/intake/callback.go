package intake

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/report"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/telegram"
)

// Award picker callback data: "boon:<campaign>:<choice index>".
const boonPrefix = "boon:"

// handleCallback settles an award-picker tap: only the recorded winner
// may choose, the picker message is rewritten with the choice locked in,
// and the pending record is cleared so later taps read as expired.
func (p *Processor) handleCallback(ctx context.Context, cb *telegram.CallbackQuery, res *Result) {
	if !strings.HasPrefix(cb.Data, boonPrefix) {
		return
	}
	res.Callbacks++

	ack := func(text string) {
		if err := p.Messenger.Acknowledge(ctx, cb.ID, text); err != nil {
			res.AddErrorf("acknowledge callback: %v", err)
		}
	}

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		ack("Invalid choice.")
		return
	}
	campaign, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		ack("Invalid choice.")
		return
	}
	choice, err := strconv.Atoi(parts[2])
	if err != nil {
		ack("Invalid choice.")
		return
	}

	pending := p.Snapshot.Pending[campaign]
	if pending == nil {
		ack("This choice has expired.")
		return
	}
	if cb.From.ID != pending.Winner {
		ack("Only the Player of the Week can choose!")
		return
	}
	if choice < 0 || choice >= len(pending.Options) {
		ack("Invalid choice.")
		return
	}

	text := report.AwardResult(pending.Options, choice, pending.BaseText, report.AwardChosenLabel)
	if err := p.Messenger.Edit(ctx, p.Config.GroupID, pending.MessageID, text); err != nil {
		res.AddErrorf("edit award picker: %v", err)
		return
	}
	ack(fmt.Sprintf("You chose boon #%d!", choice+1))
	delete(p.Snapshot.Pending, campaign)

	p.Logger.Info("Weekly award boon chosen", "campaign", campaign, "choice", choice+1)
}

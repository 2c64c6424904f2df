package workers

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"chatroom/contract"
	"chatroom/domain"
	"chatroom/moderation"
)

// Ensure *ModerationWorker implements contract.Worker at compile time.
var _ contract.Worker = (*ModerationWorker)(nil)

// ModerationWorker is the first pipeline stage: it censors message
// content before anything is persisted or broadcast. All other command
// kinds pass through untouched, in order.
type ModerationWorker struct {
	moderator moderation.Moderator
	commands  <-chan domain.Command
	roomOps   chan<- domain.Command
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	commands <-chan domain.Command, roomOps chan<- domain.Command,
	log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		commands:  commands,
		roomOps:   roomOps,
		log:       log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if postCmd, isPost := cmd.(domain.PostMessageCommand); isPost {
				cmd = w.sanitize(postCmd)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.roomOps <- cmd:
			}
		}
	}
}

func (w *ModerationWorker) sanitize(cmd domain.PostMessageCommand) domain.PostMessageCommand {
	sanitized, foundWords := w.moderator.Censor(cmd.Content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(cmd.Content)
		w.log.Warn("Censored message content",
			"author", cmd.Author,
			"room", cmd.Room,
			"words", len(foundWords),
			"lang", info.Lang.Iso6391())
	}
	cmd.Content = sanitized
	return cmd
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

const archiveWriteTimeout = 5 * time.Second

// HistoryStore keeps voted tasks after they leave the live session.
type HistoryStore interface {
	AppendVotedTask(ctx context.Context, code string, task model.VotedTask) error
	VotedTasks(ctx context.Context, code string) ([]model.VotedTask, error)
}

type archiveEntry struct {
	code string
	task model.VotedTask
}

// Archiver writes voted tasks to a HistoryStore off the dispatch goroutine.
type Archiver struct {
	store  HistoryStore
	queue  chan archiveEntry
	logger *zap.Logger
}

func NewArchiver(store HistoryStore, size int, logger *zap.Logger) *Archiver {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Archiver{
		store:  store,
		queue:  make(chan archiveEntry, size),
		logger: logger,
	}
}

// Record queues task for writing. It never blocks; a full queue drops the entry.
func (a *Archiver) Record(code string, task model.VotedTask) {
	select {
	case a.queue <- archiveEntry{code: code, task: task}:
	default:
		a.logger.Warn("archive queue full, dropping voted task",
			zap.String("session", code), zap.String("task", task.ID))
	}
}

// Run writes queued entries until ctx is cancelled, then flushes what is left.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case entry := <-a.queue:
			a.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-a.queue:
					a.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (a *Archiver) History(ctx context.Context, code string) ([]model.VotedTask, error) {
	return a.store.VotedTasks(ctx, code)
}

func (a *Archiver) write(entry archiveEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
	defer cancel()
	if err := a.store.AppendVotedTask(ctx, entry.code, entry.task); err != nil {
		a.logger.Error("could not archive voted task", zap.String("session", entry.code), zap.Error(err))
		return
	}
	a.logger.Debug("archived voted task", zap.String("session", entry.code), zap.String("task", entry.task.ID))
}

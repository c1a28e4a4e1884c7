package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
)

const (
	archiveQueueSize = 256
	seedTimeout      = 2 * time.Second
	saveTimeout      = 5 * time.Second
)

type archiveJob struct {
	roomID string
	code   string
}

// Archiver bridges the registry's document hooks to a SnapshotStore. The
// registry calls Observe with a room lock held, so the write is handed to
// a worker goroutine; a full queue drops the write rather than stall the
// room. Later writes for the same room supersede dropped ones.
//
// The jobs channel is never closed: sessions can still dispatch edits
// while the server shuts down, so Observe stays safe to call after Close
// and degrades to a no-op.
type Archiver struct {
	store  SnapshotStore
	logger zerolog.Logger
	jobs   chan archiveJob
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
}

// NewArchiver starts the archive worker.
func NewArchiver(store SnapshotStore, logger zerolog.Logger) *Archiver {
	a := &Archiver{
		store:  store,
		logger: logger,
		jobs:   make(chan archiveJob, archiveQueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Archiver) run() {
	defer close(a.done)
	for {
		select {
		case job := <-a.jobs:
			a.save(job)
		case <-a.quit:
			// Flush whatever was queued before the stop signal.
			for {
				select {
				case job := <-a.jobs:
					a.save(job)
				default:
					return
				}
			}
		}
	}
}

func (a *Archiver) save(job archiveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := a.store.SaveSnapshot(ctx, job.roomID, job.code); err != nil {
		a.logger.Warn().Err(err).Str("room", job.roomID).Msg("snapshot save failed")
	}
}

// Observe enqueues a snapshot write. Never blocks; after Close it is a
// no-op.
func (a *Archiver) Observe(roomID, code string) {
	select {
	case <-a.quit:
		return
	default:
	}
	select {
	case a.jobs <- archiveJob{roomID: roomID, code: code}:
	default:
		metrics.SnapshotDrops.Inc()
		a.logger.Warn().Str("room", roomID).Msg("archive queue full, snapshot dropped")
	}
}

// Seed returns the stored document for a room about to be created. Load
// failures degrade to the welcome document.
func (a *Archiver) Seed(roomID string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	snap, err := a.store.LoadSnapshot(ctx, roomID)
	if err != nil {
		a.logger.Warn().Err(err).Str("room", roomID).Msg("snapshot load failed")
		return "", false
	}
	if snap == nil {
		return "", false
	}
	return snap.Code, true
}

// Close drains pending writes and stops the worker. Safe to call more
// than once.
func (a *Archiver) Close() {
	a.closeOnce.Do(func() { close(a.quit) })
	<-a.done
}

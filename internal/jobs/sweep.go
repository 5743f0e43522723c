package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/config"
)

// SweepFunc removes stale state and reports how much it touched.
type SweepFunc func(context.Context) (int64, error)

type sweepTask struct {
	name string
	fn   SweepFunc
}

// SweepJob runs its tasks once at start and then on every tick.
type SweepJob struct {
	tasks    []sweepTask
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewSweepJob(interval time.Duration) *SweepJob {
	return &SweepJob{
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Add registers a task. Call before Start.
func (j *SweepJob) Add(name string, fn SweepFunc) *SweepJob {
	j.tasks = append(j.tasks, sweepTask{name: name, fn: fn})
	return j
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Int("tasks", len(j.tasks)).Msg("sweep job started")
}

// Stop waits for an in-flight pass to finish.
func (j *SweepJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		<-j.stopped
		log.Info().Msg("sweep job stopped")
	})
}

func (j *SweepJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), config.SweepPassTimeout)
	defer cancel()

	for _, task := range j.tasks {
		j.runSweep(ctx, task.name, task.fn)
	}
}

func (j *SweepJob) runSweep(ctx context.Context, name string, fn SweepFunc) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to sweep %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("swept %s", name)
	}
}

// Package progress draws live progress bars for a run from the runner's
// lifecycle callbacks.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// DefaultUpdateFrequency refreshes the display ten times a second.
const DefaultUpdateFrequency = 100 * time.Millisecond

// Counts is a snapshot of the run counters.
type Counts struct {
	Total      int
	Completed  int
	Running    int
	Successful int
	Changed    int
	Failed     int
}

const (
	trackCompleted = iota
	trackRunning
	trackSuccessful
	trackChanged
	trackFailed
	numTrackers
)

var trackerNames = [numTrackers]string{"Completed", "Concurrent", "Successful", "Changed", "Failed"}

// Bar is an api.Processor that keeps per-run counters and mirrors them into
// five go-pretty trackers. All counters move together under one lock.
type Bar struct {
	totalHosts int
	out        io.Writer
	freq       time.Duration

	mu       sync.Mutex
	counts   Counts
	pw       progress.Writer
	trackers [numTrackers]*progress.Tracker
	done     chan struct{}
}

var _ api.Processor = (*Bar)(nil)

type Option func(*Bar)

// WithTotalHosts overrides the host count reported by the runner.
func WithTotalHosts(n int) Option { return func(b *Bar) { b.totalHosts = n } }

func WithOutput(w io.Writer) Option { return func(b *Bar) { b.out = w } }

func WithUpdateFrequency(d time.Duration) Option {
	return func(b *Bar) {
		if d > 0 {
			b.freq = d
		}
	}
}

func New(opts ...Option) *Bar {
	b := &Bar{out: os.Stdout, freq: DefaultUpdateFrequency}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunStarted resets the counters and starts the live display.
func (b *Bar) RunStarted(info api.RunInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pw != nil {
		b.stopLocked()
	}

	total := b.totalHosts
	if total <= 0 {
		total = info.Hosts
	}
	concurrency := min(total, max(info.Workers, 1))
	b.counts = Counts{Total: total}

	pw := progress.NewWriter()
	pw.SetOutputWriter(b.out)
	pw.SetAutoStop(false)
	pw.SetUpdateFrequency(b.freq)
	pw.SetTrackerLength(30)
	pw.SetMessageLength(12)
	pw.SetSortBy(progress.SortByIndex)
	pw.Style().Visibility.Time = false
	pw.Style().Visibility.TrackerOverall = false

	for i := range b.trackers {
		limit := total
		if i == trackRunning {
			limit = concurrency
		}
		t := &progress.Tracker{
			Message:          trackerNames[i],
			Total:            int64(limit),
			Units:            progress.UnitsDefault,
			AutoStopDisabled: true,
			Index:            uint64(i),
		}
		b.trackers[i] = t
		pw.AppendTracker(t)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.Render()
	}()
	b.pw, b.done = pw, done
	log.Debug().Str("task", info.Name).Int("hosts", total).Int("concurrency", concurrency).Msg("progress started")
}

// RunFinished marks every tracker done and waits for the display to stop.
// Calling it twice, or without RunStarted, is a no-op.
func (b *Bar) RunFinished(info api.RunInfo, _ *api.AggregatedResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pw == nil {
		return
	}
	b.stopLocked()
	log.Debug().Str("task", info.Name).Int("completed", b.counts.Completed).Int("failed", b.counts.Failed).Msg("progress stopped")
}

func (b *Bar) stopLocked() {
	for _, t := range b.trackers {
		t.MarkAsDone()
	}
	// Render creates its cancel hook asynchronously; keep stopping until the
	// render goroutine has actually returned.
	for {
		b.pw.Stop()
		select {
		case <-b.done:
			b.pw, b.done = nil, nil
			return
		case <-time.After(b.freq):
		}
	}
}

func (b *Bar) HostStarted(_ api.RunInfo, _ *api.Host) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts.Running++
	b.syncLocked()
}

func (b *Bar) HostFinished(_ api.RunInfo, _ *api.Host, result *api.MultiResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts.Running--
	b.counts.Completed++
	if result != nil && result.Failed() {
		b.counts.Failed++
	} else {
		b.counts.Successful++
	}
	if result != nil && result.Changed() {
		b.counts.Changed++
	}
	b.syncLocked()
}

func (b *Bar) SubtaskStarted(api.RunInfo, *api.Host) {}

func (b *Bar) SubtaskFinished(api.RunInfo, *api.Host, api.Outcome) {}

// Counts returns a consistent snapshot of the counters.
func (b *Bar) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

func (b *Bar) syncLocked() {
	if b.pw == nil {
		return
	}
	values := [numTrackers]int{
		b.counts.Completed, b.counts.Running, b.counts.Successful, b.counts.Changed, b.counts.Failed,
	}
	for i, t := range b.trackers {
		t.SetValue(int64(values[i]))
	}
}

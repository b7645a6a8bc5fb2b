package recipients

import (
	"context"
	"sync"
	"time"
)

// Loaded describes the recipient list currently held by a Loader.
type Loaded struct {
	Source     string
	Recipients RecipientList
	LoadedAt   time.Time
}

// Loader owns the single "loaded recipients" slot. A newer Load cancels and
// supersedes any load still in flight; a failed load leaves the previous
// list untouched.
type Loader struct {
	opts Options

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current Loaded
	closed  bool
}

// NewLoader builds a Loader that runs Extract with opts.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load runs the pipeline for file and, if no newer load started meanwhile,
// stores the result. Superseded loads return ErrSuperseded.
func (l *Loader) Load(ctx context.Context, file UploadedFile) (RecipientList, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLoaderClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.seq++
	seq := l.seq
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	list, err := Extract(runCtx, file, l.opts)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLoaderClosed
	}
	if seq != l.seq {
		return nil, ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		return nil, err
	}
	l.current = Loaded{Source: file.Name, Recipients: list.Clone(), LoadedAt: time.Now()}
	return list, nil
}

// Supersede cancels any load in flight so its result is never stored. The
// loaded list is kept. Callers use it when a newer file fails before it
// reaches Load.
func (l *Loader) Supersede() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Current returns a copy of the loaded list.
func (l *Loader) Current() Loaded {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.current
	cur.Recipients = l.current.Recipients.Clone()
	return cur
}

// Clear drops the loaded list.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = Loaded{}
}

// Close cancels any in-flight load and discards its result.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

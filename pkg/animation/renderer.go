package animation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// CommandKind selects what a Command asks the renderer to do.
type CommandKind int

const (
	// CommandBegin starts the pull-over sequence.
	CommandBegin CommandKind = iota
	// CommandRecover returns the car to its lane.
	CommandRecover
)

func (k CommandKind) String() string {
	switch k {
	case CommandBegin:
		return "begin"
	case CommandRecover:
		return "recover"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a state-change request for the render loop.
// At is when the driver transition happened; zero means "when processed".
type Command struct {
	Kind CommandKind
	At   time.Time
}

// Sink receives every frame the render loop produces.
// Render is called from the render goroutine and must not block.
type Sink interface {
	Render(f Frame)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(f Frame)

// Render calls fn(f).
func (fn SinkFunc) Render(f Frame) { fn(f) }

// Renderer runs the animation machine on its own ticker.
type Renderer struct {
	cfg     Config
	machine *Machine
	logger  *slog.Logger
	now     func() time.Time

	commands chan Command

	mu           sync.RWMutex
	sinks        []Sink
	onTransition func(Transition)
	last         Frame

	// Diagnostics
	ticks   atomic.Uint64
	dropped atomic.Uint64
}

// NewRenderer creates a renderer. It does not start the loop.
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	m := NewMachine(cfg)
	return &Renderer{
		cfg:      cfg,
		machine:  m,
		logger:   logger,
		now:      time.Now,
		commands: make(chan Command, cfg.QueueSize),
		last:     m.frame(time.Time{}),
	}
}

// AddSink registers a frame consumer.
func (r *Renderer) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// OnTransition sets the callback for state changes.
func (r *Renderer) OnTransition(fn func(Transition)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTransition = fn
}

// Send queues a command without blocking.
// Returns false when the queue is full and the command was dropped.
func (r *Renderer) Send(cmd Command) bool {
	select {
	case r.commands <- cmd:
		return true
	default:
		r.dropped.Add(1)
		r.logger.Warn("animation command dropped", "command", cmd.Kind.String())
		return false
	}
}

// Begin queues CommandBegin stamped with the current time.
func (r *Renderer) Begin() bool {
	return r.Send(Command{Kind: CommandBegin, At: r.now()})
}

// Recover queues CommandRecover stamped with the current time.
func (r *Renderer) Recover() bool {
	return r.Send(Command{Kind: CommandRecover, At: r.now()})
}

// Last returns the most recent frame.
func (r *Renderer) Last() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Dropped returns how many commands were discarded.
func (r *Renderer) Dropped() uint64 {
	return r.dropped.Load()
}

// Ticks returns how many frames were produced.
func (r *Renderer) Ticks() uint64 {
	return r.ticks.Load()
}

// Run ticks the machine until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.logger.Info("animation renderer started",
		"fps", fmt.Sprintf("%.0f", 1.0/r.cfg.TickInterval.Seconds()),
		"max_shift", r.cfg.MaxShift(),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("animation renderer stopped",
				"ticks", r.ticks.Load(),
				"dropped", r.dropped.Load(),
			)
			return ctx.Err()
		case <-ticker.C:
			r.Step(r.now())
		}
	}
}

// Step drains pending commands, advances the machine to now and
// publishes the frame. Run calls it on every tick.
func (r *Renderer) Step(now time.Time) Frame {
drain:
	for {
		select {
		case cmd := <-r.commands:
			r.apply(cmd, now)
		default:
			break drain
		}
	}

	frame, tr := r.machine.Update(now)
	if tr != nil {
		r.notify(*tr)
	}

	r.mu.Lock()
	r.last = frame
	sinks := r.sinks
	r.mu.Unlock()

	for _, s := range sinks {
		s.Render(frame)
	}

	r.ticks.Add(1)
	return frame
}

// apply runs one command against the machine.
func (r *Renderer) apply(cmd Command, now time.Time) {
	at := cmd.At
	if at.IsZero() || at.After(now) {
		at = now
	}

	var (
		tr      Transition
		changed bool
	)
	switch cmd.Kind {
	case CommandBegin:
		tr, changed = r.machine.Begin(at)
	case CommandRecover:
		tr, changed = r.machine.Recover(at)
	default:
		r.logger.Warn("unknown animation command", "command", cmd.Kind.String())
		return
	}

	if changed {
		r.notify(tr)
	}
}

func (r *Renderer) notify(tr Transition) {
	r.logger.Debug("animation transition", "from", tr.From, "to", tr.To)

	r.mu.RLock()
	fn := r.onTransition
	r.mu.RUnlock()

	if fn != nil {
		fn(tr)
	}
}

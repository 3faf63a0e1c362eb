package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-viridia/internal/log"
	"github.com/teslashibe/go-viridia/pkg/input"
)

// Config controls the scheduling loop.
type Config struct {
	// TickInterval paces Run. Zero means DefaultTickInterval.
	TickInterval time.Duration

	// HomeButton forces a return to the home task from anywhere.
	HomeButton string
}

// DefaultTickInterval gives a 50Hz control loop.
const DefaultTickInterval = 20 * time.Millisecond

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{TickInterval: DefaultTickInterval, HomeButton: input.ButtonHome}
}

// Status is a snapshot of the scheduler, safe to hand to other goroutines.
type Status struct {
	Session     string    `json:"session"`
	Task        string    `json:"task"`
	Activation  string    `json:"activation"`
	Initialized bool      `json:"initialized"`
	Tick        int       `json:"tick"`
	Iterations  uint64    `json:"iterations"`
	Switches    uint64    `json:"switches"`
	Faults      uint64    `json:"faults"`
	LastFault   string    `json:"last_fault,omitempty"`
	Since       time.Time `json:"since"`
}

// Manager runs one task at a time and owns switching between them.
//
// Everything except Status and OnStatus must be called from the goroutine
// running the loop.
type Manager struct {
	res Resources
	cfg Config
	log *slog.Logger

	// Now is the clock used for contexts. Defaults to time.Now.
	Now func() time.Time

	home        Task
	active      Task
	initialized bool
	tick        int

	session    string
	activation string
	since      time.Time

	iterations uint64
	switches   uint64
	faults     uint64
	lastFault  error

	mu       sync.RWMutex // protects status and observer
	status   Status
	observer func(Status)
}

// NewManager creates a manager over res. A nil logger uses the package
// default.
func NewManager(res Resources, cfg Config, logger *slog.Logger) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.HomeButton == "" {
		cfg.HomeButton = input.ButtonHome
	}
	if logger == nil {
		logger = log.With("component", "task")
	}
	m := &Manager{
		res:     res,
		cfg:     cfg,
		Now:     time.Now,
		session: uuid.NewString(),
	}
	m.log = logger.With("session", m.session)
	return m
}

// OnStatus registers fn to receive a snapshot after every iteration. fn runs
// on the loop goroutine and must not block.
func (m *Manager) OnStatus(fn func(Status)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// Status returns the latest snapshot.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Reset makes initial both the home task and the active task, not yet
// initialized, at tick 0.
func (m *Manager) Reset(initial Task) {
	m.home = initial
	m.switchTo(initial, "start")
	m.publish()
}

// Active returns the task currently held by the manager.
func (m *Manager) Active() Task { return m.active }

// Tick returns the number of polls since the active task was initialized.
func (m *Manager) Tick() int { return m.tick }

// Run makes initial the home task and steps the loop every tick interval
// until ctx is cancelled. On the way out the active task is shut down, the
// display shows the reason and the drive is disabled. Run returns ctx.Err().
func (m *Manager) Run(ctx context.Context, initial Task) error {
	if initial == nil {
		return errors.New("task: nil initial task")
	}
	m.Reset(initial)

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	m.log.Info("scheduler started",
		"home", initial.Name(),
		"hz", 1/m.cfg.TickInterval.Seconds())

	for {
		select {
		case <-ctx.Done():
			m.stop(context.Cause(ctx))
			return ctx.Err()
		case <-ticker.C:
			m.Step()
		}
	}
}

// Step runs one scheduling iteration.
func (m *Manager) Step() {
	if m.active == nil {
		return
	}
	m.iterations++
	defer m.publish()

	ctx := m.newContext()

	if ctx.Pressed(m.cfg.HomeButton) {
		if m.initialized {
			if err := m.guard(m.active, "shutdown", func() error { return m.active.Shutdown(ctx) }); err != nil {
				m.fault(err)
				return
			}
		}
		m.switchTo(ClearState(m.home), "home")
	}

	if !m.initialized {
		if err := m.guard(m.active, "init", func() error { return m.active.Init(ctx) }); err != nil {
			m.fault(err)
			return
		}
		m.initialized = true
		return
	}

	var next Task
	err := m.guard(m.active, "poll", func() error {
		var err error
		next, err = m.active.Poll(ctx, m.tick)
		return err
	})
	if err != nil {
		m.fault(err)
		return
	}
	if next == nil {
		m.tick++
		return
	}

	if err := m.guard(m.active, "shutdown", func() error { return m.active.Shutdown(ctx) }); err != nil {
		m.fault(err)
		return
	}
	if _, ok := next.(*ExitTask); ok {
		next = ClearState(m.home)
	}
	m.switchTo(next, "poll")
}

func (m *Manager) newContext() *Context {
	var presses input.Presses
	if m.res.Input != nil {
		presses = m.res.Input.Presses()
	}
	return NewContext(m.res, presses, m.Now())
}

// guard runs fn, turning a panic into a PanicError and tagging errors with
// the task and phase.
func (m *Manager) guard(t Task, phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(t.Name(), phase, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s %s: %w", t.Name(), phase, err)
	}
	return nil
}

// fault replaces the active task with an error display. A fault while
// clearing state for an earlier fault goes straight to that error display,
// so a dead bus cannot keep the loop cycling through ClearState.
func (m *Manager) fault(err error) {
	m.faults++
	m.lastFault = err

	var pe *PanicError
	if errors.As(err, &pe) {
		m.log.Error("task panicked", "task", pe.Task, "phase", pe.Phase, "panic", pe.Value, "stack", string(pe.Stack))
	} else {
		m.log.Error("task failed", "task", m.active.Name(), "error", err)
	}

	if cs, ok := m.active.(*ClearStateTask); ok {
		if prev, ok := cs.Next.(*ErrorTask); ok {
			m.switchTo(NewErrorTask(errors.Join(prev.Err, err)), "fault")
			return
		}
	}
	m.switchTo(ClearState(NewErrorTask(err)), "fault")
}

func (m *Manager) switchTo(next Task, reason string) {
	from := ""
	if m.active != nil {
		from = m.active.Name()
		m.switches++
	}
	m.active = next
	m.initialized = false
	m.tick = 0
	m.activation = uuid.NewString()
	m.since = m.Now()

	m.log.Info("task switch",
		"from", from,
		"to", next.Name(),
		"reason", reason,
		"activation", m.activation)
}

func (m *Manager) stop(cause error) {
	reason := "stopped"
	if cause != nil && !errors.Is(cause, context.Canceled) {
		reason = cause.Error()
	}
	m.log.Info("scheduler stopping", "task", m.active.Name(), "reason", reason)

	ctx := m.newContext()
	if m.initialized {
		if err := m.guard(m.active, "shutdown", func() error { return m.active.Shutdown(ctx) }); err != nil {
			m.log.Warn("shutdown failed", "error", err)
		}
	}
	ctx.Show("Service shutdown", reason)
	if m.res.Drive != nil {
		if err := m.res.Drive.Disable(); err != nil {
			m.log.Warn("disable drive failed", "error", err)
		}
	}
	m.initialized = false
	m.publish()
}

func (m *Manager) publish() {
	s := Status{
		Session:     m.session,
		Activation:  m.activation,
		Initialized: m.initialized,
		Tick:        m.tick,
		Iterations:  m.iterations,
		Switches:    m.switches,
		Faults:      m.faults,
		Since:       m.since,
	}
	if m.active != nil {
		s.Task = m.active.Name()
	}
	if m.lastFault != nil {
		s.LastFault = m.lastFault.Error()
	}

	m.mu.Lock()
	m.status = s
	fn := m.observer
	m.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"webinarbot/internal/config"
	"webinarbot/pkg/logx"
)

// Job names. At most one registration may exist per name.
const (
	JobDayReminder      = "day_reminder"
	JobPreEventReminder = "pre_event_reminder"
	JobHeartbeat        = "heartbeat"
)

const heartbeatSpec = "@every 10m"

// Callbacks are the thin firing hooks handed to Resync. All business logic
// (loading participants, rendering, delivery) lives behind them so the
// registry never needs to know about messages.
type Callbacks struct {
	DayReminder func()
	PreEvent    func()
	Heartbeat   func()
}

type jobDef struct {
	spec string
	fn   func()
}

// Registry owns the single long-lived cron runner and the named job table.
// All mutation goes through Start/Upsert/Remove/Resync under one mutex;
// job callbacks run on the runner's goroutines.
type Registry struct {
	mu  sync.Mutex
	log logx.Logger

	c   *cron.Cron
	loc *time.Location

	entries map[string]cron.EntryID
	defs    map[string]jobDef

	heartbeatRegistered bool
}

func NewRegistry(log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		log:     log,
		entries: map[string]cron.EntryID{},
		defs:    map[string]jobDef{},
	}
}

// Start creates the cron runner bound to loc, or reconfigures the timezone in
// place when it changed. Idempotent: a second Start with the same location is
// a no-op, and there is never more than one runner.
func (r *Registry) Start(loc *time.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startLocked(loc)
}

func (r *Registry) startLocked(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	if r.c != nil {
		if r.loc != nil && r.loc.String() == loc.String() {
			return
		}
		// Timezone change: rebuild the runner and re-register every job under
		// the new location. The old runner drains on its own goroutines; a
		// firing in flight may call back into the registry (the heartbeat
		// reads Snapshot), so waiting for it here, under the mutex, would
		// deadlock.
		old := r.c
		r.c = nil
		stopped := old.Stop()
		go func() {
			<-stopped.Done()
			r.log.Debug("old scheduler runner drained")
		}()
		r.log.Info("scheduler timezone changed", logx.String("tz", loc.String()))
	}
	r.loc = loc
	r.c = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{r.log})),
	)
	for name, d := range r.defs {
		id, err := r.c.AddFunc(d.spec, d.fn)
		if err != nil {
			r.log.Error("re-register job failed", logx.String("job", name), logx.Err(err))
			delete(r.entries, name)
			delete(r.defs, name)
			continue
		}
		r.entries[name] = id
	}
	r.c.Start()
	r.log.Info("scheduler started", logx.String("tz", loc.String()))
}

// Upsert registers fn under name with the given rule, atomically replacing any
// previous registration: a firing already in flight completes, but the old
// rule never fires again after Upsert returns.
func (r *Registry) Upsert(name string, rule FireRule, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertSpecLocked(name, rule.CronSpec(), fn)
}

func (r *Registry) upsertSpecLocked(name, spec string, fn func()) error {
	if r.c == nil {
		return fmt.Errorf("scheduler not started")
	}
	wrapped := func() {
		if fn != nil {
			fn()
		}
	}
	id, err := r.c.AddFunc(spec, wrapped)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	if old, ok := r.entries[name]; ok {
		r.c.Remove(old)
	}
	r.entries[name] = id
	r.defs[name] = jobDef{spec: spec, fn: wrapped}
	return nil
}

// Remove drops the named job. Removing a job that does not exist is not an
// error.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[name]; ok && r.c != nil {
		r.c.Remove(id)
	}
	delete(r.entries, name)
	delete(r.defs, name)
}

// Resync recomputes both reminder rules from the config snapshot and replaces
// the named jobs, starting (or re-locating) the runner first. It is the single
// entry point called on startup and after every admin schedule edit, and is
// safe to call repeatedly: rules are recomputed in full, jobs replaced by
// name, nothing leaks.
//
// The heartbeat job is registered once per process lifetime; a registration
// failure is logged and otherwise ignored.
func (r *Registry) Resync(cfg *config.Config, cb Callbacks) error {
	rs, err := DeriveRules(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.startLocked(rs.Loc)

	if err := r.upsertSpecLocked(JobDayReminder, rs.DayReminder.CronSpec(), cb.DayReminder); err != nil {
		return err
	}
	if err := r.upsertSpecLocked(JobPreEventReminder, rs.PreEvent.CronSpec(), cb.PreEvent); err != nil {
		return err
	}

	if !r.heartbeatRegistered && cb.Heartbeat != nil {
		if err := r.upsertSpecLocked(JobHeartbeat, heartbeatSpec, cb.Heartbeat); err != nil {
			r.log.Warn("heartbeat registration failed", logx.Err(err))
		} else {
			r.heartbeatRegistered = true
		}
	}

	r.log.Info("schedule resynced",
		logx.String("day_reminder", rs.DayReminder.CronSpec()),
		logx.String("pre_event", rs.PreEvent.CronSpec()),
		logx.String("tz", rs.Timezone))
	return nil
}

// Stop halts the runner, letting in-flight firings complete (bounded by ctx).
func (r *Registry) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.c
	r.c = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	r.log.Info("scheduler stopped")
}

// Snapshot returns the registered job specs by name, for operational
// visibility and tests.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.defs))
	for name, d := range r.defs {
		out[name] = d.spec
	}
	return out
}

// cronLogger adapts logx to cron.Logger for the panic-recovery chain.
type cronLogger struct{ log logx.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debug(msg, logx.Any("details", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Error(msg, logx.Err(err), logx.Any("details", kv))
}

// Package app assembles the bot: config, storage, Telegram transport, the
// schedule registry and the command router, plus lifecycle management.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"webinarbot/internal/adapters/telegram"
	"webinarbot/internal/bot"
	"webinarbot/internal/config"
	"webinarbot/internal/dispatch"
	"webinarbot/internal/schedule"
	"webinarbot/internal/sheets"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
	"webinarbot/pkg/logx"
)

const (
	updateBuffer    = 128
	dispatchTimeout = 5 * time.Minute
	stopGrace       = 10 * time.Second
)

type Options struct {
	ConfigPath string
	StorePath  string
}

type App struct {
	opts Options

	logSvc *logx.Service
	log    logx.Logger

	cfgs       *config.Manager
	store      *store.Store
	adapter    *telegram.Adapter
	registry   *schedule.Registry
	dispatcher *dispatch.Dispatcher
	sheets     *sheets.Client
	router     *bot.Router

	started time.Time
}

func New(opts Options) (*App, error) {
	cfgs := config.NewManager(opts.ConfigPath)
	cfg, err := cfgs.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	st := store.New(opts.StorePath)
	if err := st.Init(); err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	pollTimeout := 10 * time.Second
	if cfg.Telegram.PollTimeout != "" {
		if d, perr := time.ParseDuration(cfg.Telegram.PollTimeout); perr == nil && d > 0 {
			pollTimeout = d
		}
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("component", "telegram")))
	if err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	a := &App{
		opts:     opts,
		logSvc:   logSvc,
		log:      log,
		cfgs:     cfgs,
		store:    st,
		adapter:  adapter,
		registry: schedule.NewRegistry(log.With(logx.String("component", "schedule"))),
		sheets:   sheets.New(cfg.Sheets, log.With(logx.String("component", "sheets"))),
	}
	a.dispatcher = dispatch.New(adapter, st, cfgs, log.With(logx.String("component", "dispatch")))
	a.router = bot.NewRouter(bot.Deps{
		Adapter:    adapter,
		Config:     cfgs,
		Store:      st,
		Dispatcher: a.dispatcher,
		Sheets:     a.sheets,
		Resync:     a.resync,
		Logger:     log.With(logx.String("component", "bot")),
	})
	return a, nil
}

// Run blocks until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.started = time.Now()
	defer a.logSvc.Close()

	updates := make(chan transport.Update, updateBuffer)
	if err := a.adapter.Start(ctx, updates); err != nil {
		return fmt.Errorf("start telegram: %w", err)
	}
	a.log.Info("bot started")

	if err := a.resync(); err != nil {
		// A hand-edited config can be unusable at boot; the bot still comes
		// up so an admin can fix it over Telegram.
		a.log.Error("initial schedule sync failed", logx.Err(err))
	}

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		a.router.Run(ctx, updates)
	}()

	go a.watchConfig(ctx)

	cfgCh := a.cfgs.Subscribe(4)
	defer a.cfgs.Unsubscribe(cfgCh)
	go a.followConfig(ctx, cfgCh)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify ready failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}

	<-ctx.Done()
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopGrace)
	defer cancel()
	a.registry.Stop(stopCtx)
	if err := a.adapter.Stop(stopCtx); err != nil {
		a.log.Warn("telegram stop failed", logx.Err(err))
	}
	<-routerDone
	a.log.Info("bot stopped", logx.Duration("uptime", time.Since(a.started)))
	return nil
}

// resync recomputes the cron jobs from the current config. Called at startup
// and after every schedule-affecting edit.
func (a *App) resync() error {
	return a.registry.Resync(a.cfgs.Get(), schedule.Callbacks{
		DayReminder: func() { a.fire(dispatch.KindDayReminder) },
		PreEvent:    func() { a.fire(dispatch.KindPreEvent) },
		Heartbeat:   a.heartbeat,
	})
}

// fire runs one reminder dispatch from a cron goroutine. The context is
// detached from Run's: shutdown interrupts a run through the registry's
// stop grace, not by cancelling mid-send.
func (a *App) fire(kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	if _, err := a.dispatcher.Dispatch(ctx, kind); err != nil {
		a.log.Error("scheduled dispatch failed", logx.String("kind", kind), logx.Err(err))
	}
}

// heartbeat proves liveness in the log and pets the systemd watchdog when one
// is configured.
func (a *App) heartbeat() {
	jobs := a.registry.Snapshot()
	a.log.Info("heartbeat",
		logx.Duration("uptime", time.Since(a.started)),
		logx.Int("jobs", len(jobs)))
	if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
		a.log.Debug("sd_notify watchdog failed", logx.Err(err))
	}
}

// watchConfig follows on-disk edits of the config document.
func (a *App) watchConfig(ctx context.Context) {
	if err := a.cfgs.Watch(ctx); err != nil && ctx.Err() == nil {
		a.log.Warn("config watcher stopped", logx.Err(err))
	}
}

// followConfig reacts to config snapshots published by Update and the disk
// watcher: logging settings are re-applied and the schedule resynced.
func (a *App) followConfig(ctx context.Context, ch <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			if err := a.resync(); err != nil {
				a.log.Error("schedule sync after config change failed", logx.Err(err))
			}
		}
	}
}

package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"webinarbot/internal/config"
	"webinarbot/internal/schedule"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
	"webinarbot/pkg/logx"
)

// Message kinds a dispatch run can deliver. They double as the template keys
// in the config document.
const (
	KindDayReminder = "reminder_day"
	KindPreEvent    = "reminder_15min"
)

// Telegram allows ~30 messages per second to distinct chats; stay under it.
const (
	sendRate  = rate.Limit(25)
	sendBurst = 5

	perSendTimeout = 10 * time.Second
)

// Result is the aggregate outcome of one dispatch run.
type Result struct {
	Sent   int
	Failed int
	Total  int
}

// Dispatcher fans a rendered message out to the active audience. Every run
// loads a fresh participant snapshot and a fresh config snapshot, so edits
// made between firings are always honored.
type Dispatcher struct {
	adapter transport.Adapter
	store   *store.Store
	cfgs    *config.Manager
	log     logx.Logger

	limiter *rate.Limiter
	now     func() time.Time
}

func New(adapter transport.Adapter, st *store.Store, cfgs *config.Manager, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		adapter: adapter,
		store:   st,
		cfgs:    cfgs,
		log:     log,
		limiter: rate.NewLimiter(sendRate, sendBurst),
		now:     time.Now,
	}
}

// Dispatch delivers the reminder of the given kind to every active
// participant. One recipient failing never aborts the run: the error is
// logged with the chat ID and the loop moves on. The returned Result is
// always meaningful, even alongside a non-nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, kind string) (Result, error) {
	runID := uuid.NewString()
	log := d.log.With(logx.String("run_id", runID), logx.String("kind", kind))

	cfg := d.cfgs.Get()
	if cfg == nil {
		return Result{}, errors.New("dispatch: configuration not loaded")
	}
	tmpl := cfg.Messages.ByKind(kind)
	if tmpl == "" {
		log.Warn("no template for kind, skipping run")
		return Result{}, nil
	}

	occ, err := schedule.NextWebinar(cfg, d.now())
	if err != nil {
		log.Error("schedule unusable, skipping run", logx.Err(err))
		return Result{}, err
	}

	recipients, err := d.store.ActiveParticipants()
	if err != nil {
		log.Error("loading participants failed", logx.Err(err))
		return Result{}, err
	}

	log.Info("dispatch run started", logx.Int("recipients", len(recipients)))
	res := d.fanOut(ctx, log, recipients, func(p store.Participant) string {
		return Render(tmpl, p, occ)
	})
	log.Info("dispatch run finished",
		logx.Int("sent", res.Sent),
		logx.Int("failed", res.Failed))
	return res, nil
}

// Broadcast delivers an admin-authored text to every active participant.
// The text goes through the same placeholder substitution as reminders.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) (Result, error) {
	runID := uuid.NewString()
	log := d.log.With(logx.String("run_id", runID), logx.String("kind", "broadcast"))

	cfg := d.cfgs.Get()
	if cfg == nil {
		return Result{}, errors.New("dispatch: configuration not loaded")
	}
	occ, err := schedule.NextWebinar(cfg, d.now())
	if err != nil {
		log.Error("schedule unusable, skipping broadcast", logx.Err(err))
		return Result{}, err
	}

	recipients, err := d.store.ActiveParticipants()
	if err != nil {
		log.Error("loading participants failed", logx.Err(err))
		return Result{}, err
	}

	log.Info("broadcast started", logx.Int("recipients", len(recipients)))
	res := d.fanOut(ctx, log, recipients, func(p store.Participant) string {
		return Render(text, p, occ)
	})
	log.Info("broadcast finished",
		logx.Int("sent", res.Sent),
		logx.Int("failed", res.Failed))
	return res, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, log logx.Logger, recipients []store.Participant, render func(store.Participant) string) Result {
	res := Result{Total: len(recipients)}
	for _, p := range recipients {
		if err := d.limiter.Wait(ctx); err != nil {
			// Run cancelled; everything not yet attempted counts as failed.
			res.Failed = res.Total - res.Sent
			log.Warn("run cancelled mid-flight", logx.Err(err), logx.Int("remaining", res.Failed))
			return res
		}
		if err := d.sendOne(ctx, p.ChatID, render(p)); err != nil {
			res.Failed++
			log.Warn("delivery failed",
				logx.Int64("chat_id", p.ChatID),
				logx.Err(err))
			continue
		}
		res.Sent++
	}
	return res
}

func (d *Dispatcher) sendOne(ctx context.Context, chatID int64, text string) error {
	sctx, cancel := context.WithTimeout(ctx, perSendTimeout)
	defer cancel()
	_, err := d.adapter.SendText(sctx, transport.ChatTarget{ChatID: chatID}, text, nil)
	return err
}

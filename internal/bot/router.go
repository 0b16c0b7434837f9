// Package bot is the Telegram-facing command layer: it consumes transport
// updates, routes slash commands and inline-button callbacks to handlers and
// keeps short-lived per-chat conversation state for multi-step admin flows.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"webinarbot/internal/config"
	"webinarbot/internal/dispatch"
	"webinarbot/internal/schedule"
	"webinarbot/internal/sheets"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
	"webinarbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessAdminOnly
)

// Request carries one inbound update through the middleware chain into a
// handler.
type Request struct {
	Update  transport.Update
	Chat    transport.ChatTarget
	FromID  int64
	Command string
	Args    []string
	Payload string
	ReqID   string

	Adapter transport.Adapter
	Logger  logx.Logger
}

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// Deps is everything the command layer needs from the rest of the app.
// Resync is invoked after every schedule-affecting edit so the running jobs
// always match the persisted config.
type Deps struct {
	Adapter    transport.Adapter
	Config     *config.Manager
	Store      *store.Store
	Dispatcher *dispatch.Dispatcher
	Sheets     *sheets.Client
	Resync     func() error
	Logger     logx.Logger
}

type Router struct {
	deps Deps
	log  logx.Logger

	commands  []Command
	byName    map[string]*Command
	callbacks map[string]callbackHandler

	mu      sync.Mutex
	pending map[int64]pendingInput

	handlerTimeout time.Duration
}

func NewRouter(deps Deps) *Router {
	log := deps.Logger
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		deps:           deps,
		log:            log,
		byName:         map[string]*Command{},
		callbacks:      map[string]callbackHandler{},
		pending:        map[int64]pendingInput{},
		handlerTimeout: 30 * time.Second,
	}
	r.registerCommands()
	r.registerCallbacks()
	return r
}

// Run consumes updates until ctx is done. Handlers run inline: Telegram
// ordering per chat matters more than throughput at this audience size.
func (r *Router) Run(ctx context.Context, updates <-chan transport.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			r.handle(ctx, u)
		}
	}
}

func (r *Router) handle(ctx context.Context, u transport.Update) {
	req := r.buildRequest(u)
	if req == nil {
		return
	}

	var h HandlerFunc
	switch u.Kind {
	case transport.UpdateMessage:
		h = r.routeMessage(req)
	case transport.UpdateCallback:
		h = r.routeCallback(req)
	}
	if h == nil {
		return
	}

	h = Chain(h,
		mwPanicRecover(r.log),
		mwRequestLog(r.log),
		mwTimeout(r.handlerTimeout),
	)
	if err := h(ctx, req); err != nil {
		r.replyError(ctx, req, err)
	}
}

func (r *Router) buildRequest(u transport.Update) *Request {
	req := &Request{
		Update:  u,
		ReqID:   uuid.NewString(),
		Adapter: r.deps.Adapter,
	}
	switch u.Kind {
	case transport.UpdateMessage:
		if u.Message == nil {
			return nil
		}
		req.Chat = transport.ChatTarget{ChatID: u.Message.ChatID}
		req.FromID = u.Message.FromID
	case transport.UpdateCallback:
		if u.Callback == nil {
			return nil
		}
		req.Chat = transport.ChatTarget{ChatID: u.Callback.ChatID}
		req.FromID = u.Callback.FromID
		req.Payload = u.Callback.Data
	default:
		return nil
	}
	req.Logger = r.log.With(
		logx.String("req_id", req.ReqID),
		logx.Int64("chat_id", req.Chat.ChatID),
	)
	return req
}

func (r *Router) routeMessage(req *Request) HandlerFunc {
	text := strings.TrimSpace(req.Update.Message.Text)
	if text == "" {
		return nil
	}

	if !strings.HasPrefix(text, "/") {
		// Free text only means something when a multi-step flow is waiting
		// for it.
		if p, ok := r.takePending(req.Chat.ChatID); ok {
			return func(ctx context.Context, rq *Request) error {
				return r.handlePendingInput(ctx, rq, p, text)
			}
		}
		return nil
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	req.Command = name
	req.Args = fields[1:]

	// A slash command always cancels whatever input was pending.
	r.clearPending(req.Chat.ChatID)

	cmd, ok := r.byName[name]
	if !ok {
		return func(ctx context.Context, rq *Request) error {
			return r.reply(ctx, rq, msgUnknownCommand)
		}
	}
	if cmd.Access == AccessAdminOnly && !r.isAdmin(req.FromID) {
		return func(ctx context.Context, rq *Request) error {
			return r.reply(ctx, rq, msgNotAdmin)
		}
	}
	return cmd.Handle
}

func (r *Router) routeCallback(req *Request) HandlerFunc {
	key, arg := splitCallback(req.Payload)
	req.Command = key

	cb, ok := r.callbacks[key]
	if !ok {
		return func(ctx context.Context, rq *Request) error {
			return rq.Adapter.AnswerCallback(ctx, rq.Update.Callback.ID, "")
		}
	}
	if cb.adminOnly && !r.isAdmin(req.FromID) {
		return func(ctx context.Context, rq *Request) error {
			return rq.Adapter.AnswerCallback(ctx, rq.Update.Callback.ID, msgNotAdmin)
		}
	}
	return func(ctx context.Context, rq *Request) error {
		if err := rq.Adapter.AnswerCallback(ctx, rq.Update.Callback.ID, ""); err != nil {
			rq.Logger.Debug("answer callback failed", logx.Err(err))
		}
		return cb.fn(ctx, rq, arg)
	}
}

// splitCallback separates "setmsg:welcome" into ("setmsg", "welcome").
func splitCallback(data string) (key, arg string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

func (r *Router) isAdmin(userID int64) bool {
	cfg := r.deps.Config.Get()
	return cfg != nil && cfg.IsAdmin(userID)
}

func (r *Router) reply(ctx context.Context, req *Request, text string) error {
	_, err := req.Adapter.SendText(ctx, req.Chat, text, nil)
	return err
}

func (r *Router) replyKeyboard(ctx context.Context, req *Request, text string, kb transport.Keyboard) error {
	_, err := req.Adapter.SendText(ctx, req.Chat, text, &transport.SendOptions{Keyboard: kb})
	return err
}

func (r *Router) replyError(ctx context.Context, req *Request, err error) {
	req.Logger.Warn("handler failed", logx.String("cmd", req.Command), logx.Err(err))
	if sendErr := r.reply(ctx, req, msgGenericError); sendErr != nil {
		req.Logger.Debug("error reply failed", logx.Err(sendErr))
	}
}

func mwTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func mwPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger := log
					if req != nil && !req.Logger.IsZero() {
						logger = req.Logger
					}
					logger.Error("panic recovered",
						logx.Any("panic", rec),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return next(ctx, req)
		}
	}
}

func mwRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			logger := log
			if req != nil && !req.Logger.IsZero() {
				logger = req.Logger
			}
			err := next(ctx, req)
			d := time.Since(start)

			fields := []logx.Field{
				logx.String("kind", string(req.Update.Kind)),
				logx.Int64("from_id", req.FromID),
				logx.String("cmd", req.Command),
				logx.Duration("dur", d),
			}
			if err != nil {
				logger.Warn("request failed", append(fields, logx.Err(err))...)
			} else if d >= 750*time.Millisecond {
				logger.Info("request ok", fields...)
			} else {
				logger.Debug("request ok", fields...)
			}
			return err
		}
	}
}

// scheduleSnapshot renders the admin-facing schedule preview.
func (r *Router) scheduleSnapshot() (string, error) {
	now := time.Now()
	p, err := schedule.BuildPreview(r.deps.Config.Get(), now)
	if err != nil {
		return "", err
	}
	line := func(label string, o schedule.Occurrence) string {
		return fmt.Sprintf("%s: %s, ora %s\n  următorul: %s (%s)",
			label, dispatch.DayName(o.Day), o.TimeOfDay,
			dispatch.FormatDate(o.Next), relativeRO(o.Next.Sub(now)))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Program curent (%s)\n\n", p.Timezone)
	b.WriteString(line("Webinar", p.Event))
	b.WriteString("\n")
	b.WriteString(line("Reminder în ziua webinarului", p.DayReminder))
	b.WriteString("\n")
	b.WriteString(line("Reminder cu 15 minute înainte", p.PreEvent))
	return b.String(), nil
}

// relativeRO renders a duration like "în 2z 4h" or "în 35min".
func relativeRO(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("în %dz %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("în %dh %dmin", hours, mins)
	default:
		return fmt.Sprintf("în %dmin", mins)
	}
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"webinarbot/internal/config"
	"webinarbot/internal/schedule"
	"webinarbot/internal/transport"
)

// pendingKind names what the next free-text message from a chat means.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingBroadcastText
	pendingBroadcastConfirm
	pendingMessageText
	pendingWebinar
	pendingReminder
	pendingAdminAdd
	pendingAdminDel
)

// pendingInput is per-chat conversation state. arg carries the flow's
// context: the message kind being edited, or the broadcast draft awaiting
// confirmation.
type pendingInput struct {
	kind pendingKind
	arg  string
}

func (r *Router) setPending(chatID int64, p pendingInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[chatID] = p
}

func (r *Router) takePending(chatID int64) (pendingInput, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[chatID]
	if ok {
		delete(r.pending, chatID)
	}
	return p, ok
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, chatID)
}

// handlePendingInput consumes the free-text message a flow was waiting for.
// Every branch re-checks admin access: pending state may outlive an admin
// revocation.
func (r *Router) handlePendingInput(ctx context.Context, req *Request, p pendingInput, text string) error {
	if p.kind != pendingNone && p.kind != pendingBroadcastText && !r.isAdmin(req.FromID) {
		return r.reply(ctx, req, msgNotAdmin)
	}

	switch p.kind {
	case pendingBroadcastText, pendingBroadcastConfirm:
		if !r.isAdmin(req.FromID) {
			return r.reply(ctx, req, msgNotAdmin)
		}
		// New text replaces any earlier draft; confirmation goes through the
		// inline buttons.
		r.setPending(req.Chat.ChatID, pendingInput{kind: pendingBroadcastConfirm, arg: text})
		kb := transport.Keyboard{{
			{Text: "Da", Data: "bcast:yes"},
			{Text: "Nu", Data: "bcast:no"},
		}}
		return r.replyKeyboard(ctx, req, msgBroadcastConfirm+"\n\n"+text, kb)

	case pendingMessageText:
		return r.savePendingMessage(ctx, req, p.arg, text)

	case pendingWebinar:
		return r.applyWebinarInput(ctx, req, text)

	case pendingReminder:
		return r.applyReminderInput(ctx, req, text)

	case pendingAdminAdd:
		return r.applyAdminChange(ctx, req, text, true)

	case pendingAdminDel:
		return r.applyAdminChange(ctx, req, text, false)
	}
	return nil
}

func (r *Router) savePendingMessage(ctx context.Context, req *Request, kind, text string) error {
	if _, err := r.deps.Config.Update(func(c *config.Config) error {
		if !c.Messages.SetByKind(kind, text) {
			return fmt.Errorf("unknown message kind %q", kind)
		}
		return nil
	}); err != nil {
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf("Mesajul %q a fost actualizat.", kind))
}

// applyWebinarInput parses "Zi HH:MM [Fus orar]", persists it and resyncs the
// schedule. Validation happens before anything is written: a typo never lands
// in the config document.
func (r *Router) applyWebinarInput(ctx context.Context, req *Request, text string) error {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return r.reply(ctx, req, promptWebinar)
	}

	day, err := schedule.ParseDay(fields[0])
	if err != nil {
		return r.reply(ctx, req, "Zi necunoscută: "+fields[0])
	}
	if _, _, err := schedule.ParseHHMM(fields[1]); err != nil {
		return r.reply(ctx, req, "Oră invalidă: "+fields[1]+" (format HH:MM)")
	}
	tz := ""
	if len(fields) == 3 {
		tz = fields[2]
		if _, err := time.LoadLocation(tz); err != nil {
			return r.reply(ctx, req, "Fus orar necunoscut: "+tz)
		}
	}

	if _, err := r.deps.Config.Update(func(c *config.Config) error {
		c.Webinar.Day = day.String()
		c.Webinar.Time = fields[1]
		if tz != "" {
			c.Webinar.Timezone = tz
		}
		return nil
	}); err != nil {
		return err
	}
	if err := r.resync(); err != nil {
		return err
	}

	snap, err := r.scheduleSnapshot()
	if err != nil {
		return err
	}
	return r.reply(ctx, req, "Programarea a fost actualizată.\n\n"+snap)
}

type webinarField int

const (
	fieldDay webinarField = iota
	fieldTime
	fieldTimezone
	fieldLink
)

// applyWebinarField updates one webinar setting. Schedule-affecting fields
// resync the jobs; the link does not.
func (r *Router) applyWebinarField(ctx context.Context, req *Request, f webinarField, value string) error {
	mutate := func(c *config.Config) error { return nil }
	affectsSchedule := true

	switch f {
	case fieldDay:
		day, err := schedule.ParseDay(value)
		if err != nil {
			return r.reply(ctx, req, "Zi necunoscută: "+value)
		}
		mutate = func(c *config.Config) error { c.Webinar.Day = day.String(); return nil }
	case fieldTime:
		if _, _, err := schedule.ParseHHMM(value); err != nil {
			return r.reply(ctx, req, "Oră invalidă: "+value+" (format HH:MM)")
		}
		mutate = func(c *config.Config) error { c.Webinar.Time = value; return nil }
	case fieldTimezone:
		if _, err := time.LoadLocation(value); err != nil {
			return r.reply(ctx, req, "Fus orar necunoscut: "+value)
		}
		mutate = func(c *config.Config) error { c.Webinar.Timezone = value; return nil }
	case fieldLink:
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return r.reply(ctx, req, "Linkul trebuie să înceapă cu http:// sau https://")
		}
		mutate = func(c *config.Config) error { c.Webinar.Link = value; return nil }
		affectsSchedule = false
	}

	if _, err := r.deps.Config.Update(mutate); err != nil {
		return err
	}
	if !affectsSchedule {
		return r.reply(ctx, req, "Linkul a fost actualizat.")
	}
	if err := r.resync(); err != nil {
		return err
	}
	snap, err := r.scheduleSnapshot()
	if err != nil {
		return err
	}
	return r.reply(ctx, req, "Programarea a fost actualizată.\n\n"+snap)
}

func (r *Router) applyReminderInput(ctx context.Context, req *Request, text string) error {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return r.reply(ctx, req, promptReminder)
	}
	day, err := schedule.ParseDay(fields[0])
	if err != nil {
		return r.reply(ctx, req, "Zi necunoscută: "+fields[0])
	}
	if _, _, err := schedule.ParseHHMM(fields[1]); err != nil {
		return r.reply(ctx, req, "Oră invalidă: "+fields[1]+" (format HH:MM)")
	}

	if _, err := r.deps.Config.Update(func(c *config.Config) error {
		c.Reminders.Day = &config.DayReminder{Day: day.String(), Time: fields[1]}
		return nil
	}); err != nil {
		return err
	}
	if err := r.resync(); err != nil {
		return err
	}

	snap, err := r.scheduleSnapshot()
	if err != nil {
		return err
	}
	return r.reply(ctx, req, "Reminderul a fost actualizat.\n\n"+snap)
}

func (r *Router) applyAdminChange(ctx context.Context, req *Request, text string, add bool) error {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return r.reply(ctx, req, "ID invalid. Trimite un ID numeric Telegram.")
	}

	var msg string
	if _, err := r.deps.Config.Update(func(c *config.Config) error {
		if add {
			if c.IsAdmin(id) {
				msg = fmt.Sprintf("%d este deja administrator.", id)
				return nil
			}
			c.AdminIDs = append(c.AdminIDs, id)
			msg = fmt.Sprintf("%d a fost adăugat ca administrator.", id)
			return nil
		}
		if len(c.AdminIDs) == 1 && c.AdminIDs[0] == id {
			return fmt.Errorf("cannot remove the last admin")
		}
		kept := c.AdminIDs[:0]
		found := false
		for _, a := range c.AdminIDs {
			if a == id {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		c.AdminIDs = kept
		if !found {
			msg = fmt.Sprintf("%d nu este administrator.", id)
		} else {
			msg = fmt.Sprintf("%d a fost eliminat din administratori.", id)
		}
		return nil
	}); err != nil {
		if strings.Contains(err.Error(), "last admin") {
			return r.reply(ctx, req, "Nu poți elimina ultimul administrator.")
		}
		return err
	}
	return r.reply(ctx, req, msg)
}

func (r *Router) resync() error {
	if r.deps.Resync == nil {
		return nil
	}
	return r.deps.Resync()
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"webinarbot/internal/dispatch"
	"webinarbot/internal/schedule"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
	"webinarbot/pkg/logx"
)

type Command struct {
	Route       string
	Description string
	Access      Access
	Handle      HandlerFunc
}

func (r *Router) registerCommands() {
	r.commands = []Command{
		{Route: "start", Description: "înregistrare la webinar", Handle: r.cmdStart},
		{Route: "info", Description: "detalii despre următorul webinar", Handle: r.cmdInfo},
		{Route: "help", Description: "lista de comenzi", Handle: r.cmdHelp},
		{Route: "menu", Description: "meniu rapid", Handle: r.cmdMenu},

		{Route: "adminmenu", Access: AccessAdminOnly, Handle: r.cmdAdminMenu},
		{Route: "viewschedule", Access: AccessAdminOnly, Handle: r.cmdViewSchedule},
		{Route: "setwebinar", Access: AccessAdminOnly, Handle: r.cmdSetWebinar},
		{Route: "setreminder", Access: AccessAdminOnly, Handle: r.cmdSetReminder},
		{Route: "setmessage", Access: AccessAdminOnly, Handle: r.cmdSetMessage},
		{Route: "sendreminder", Access: AccessAdminOnly, Handle: r.cmdSendReminder},
		{Route: "broadcast", Access: AccessAdminOnly, Handle: r.cmdBroadcast},
		{Route: "exportcsv", Access: AccessAdminOnly, Handle: r.cmdExportCSV},
		{Route: "syncsheet", Access: AccessAdminOnly, Handle: r.cmdSyncSheet},
		{Route: "addadmin", Access: AccessAdminOnly, Handle: r.cmdAddAdmin},
		{Route: "deladmin", Access: AccessAdminOnly, Handle: r.cmdDelAdmin},
		{Route: "listadmins", Access: AccessAdminOnly, Handle: r.cmdListAdmins},
	}
	for i := range r.commands {
		r.byName[r.commands[i].Route] = &r.commands[i]
	}
}

func (r *Router) cmdStart(ctx context.Context, req *Request) error {
	p := store.Participant{
		ChatID:           req.Chat.ChatID,
		RegistrationDate: time.Now().UTC().Format(time.RFC3339),
		Active:           true,
	}
	if msg := req.Update.Message; msg != nil {
		p.Username = msg.FromUsername
		p.FirstName = msg.FromFirstName
		p.LastName = msg.FromLastName
	}

	created, err := r.deps.Store.Register(p)
	if err != nil {
		return err
	}
	if !created {
		// Re-running /start reactivates a participant who left.
		if err := r.deps.Store.SetActive(req.Chat.ChatID, true); err != nil {
			return err
		}
		return r.reply(ctx, req, msgAlreadyRegistered)
	}

	if r.deps.Sheets != nil && r.deps.Sheets.Enabled() {
		if err := r.deps.Sheets.UpsertUser(ctx, p); err != nil {
			req.Logger.Warn("sheet upsert failed", logx.Err(err))
		}
	}

	cfg := r.deps.Config.Get()
	occ, err := schedule.NextWebinar(cfg, time.Now())
	if err != nil {
		return err
	}
	kb := transport.Keyboard{
		{{Text: "Despre webinar", Data: "cmd:info"}},
	}
	return r.replyKeyboard(ctx, req, dispatch.Render(cfg.Messages.Welcome, p, occ), kb)
}

func (r *Router) cmdInfo(ctx context.Context, req *Request) error {
	cfg := r.deps.Config.Get()
	occ, err := schedule.NextWebinar(cfg, time.Now())
	if err != nil {
		return err
	}
	text := dispatch.Render(cfg.Messages.Info, r.participantFor(req), occ)
	if cfg.Webinar.Link != "" {
		text += "\n\nLink: " + cfg.Webinar.Link
	}
	return r.reply(ctx, req, text)
}

// participantFor resolves the requester's name fields for template rendering.
// Message updates carry them; inline-button callbacks do not, so fall back to
// the stored registration, or to empty names for unregistered users.
func (r *Router) participantFor(req *Request) store.Participant {
	if msg := req.Update.Message; msg != nil {
		return store.Participant{FirstName: msg.FromFirstName, LastName: msg.FromLastName}
	}
	if all, err := r.deps.Store.Participants(); err == nil {
		if p, ok := all[strconv.FormatInt(req.Chat.ChatID, 10)]; ok {
			return p
		}
	}
	return store.Participant{}
}

func (r *Router) cmdHelp(ctx context.Context, req *Request) error {
	text := helpUser
	if r.isAdmin(req.FromID) {
		text += helpAdmin
	}
	return r.reply(ctx, req, text)
}

func (r *Router) cmdMenu(ctx context.Context, req *Request) error {
	kb := transport.Keyboard{
		{{Text: "Despre webinar", Data: "cmd:info"}},
		{{Text: "Ajutor", Data: "cmd:help"}},
	}
	return r.replyKeyboard(ctx, req, "Alege o opțiune:", kb)
}

func (r *Router) cmdAdminMenu(ctx context.Context, req *Request) error {
	kb := transport.Keyboard{
		{{Text: "Program", Data: "cmd:viewschedule"}, {Text: "Schimbă webinarul", Data: "setwb"}},
		{{Text: "Schimbă reminderul", Data: "setrem"}, {Text: "Editează mesaje", Data: "setmsg"}},
		{{Text: "Trimite reminder acum", Data: "sendrm"}, {Text: "Anunț general", Data: "bcast:start"}},
		{{Text: "Export CSV", Data: "cmd:exportcsv"}, {Text: "Sincronizare sheet", Data: "cmd:syncsheet"}},
		{{Text: "Administratori", Data: "admins:list"}},
		{{Text: "Renunță", Data: "cancel"}},
	}
	return r.replyKeyboard(ctx, req, "Meniu administrare:", kb)
}

func (r *Router) cmdViewSchedule(ctx context.Context, req *Request) error {
	snap, err := r.scheduleSnapshot()
	if err != nil {
		return err
	}
	return r.reply(ctx, req, snap)
}

// cmdSetWebinar accepts either the compact form "Zi HH:MM [Fus]" or a
// single-field form: day <Zi>, time <HH:MM>, timezone <IANA>, link <URL>,
// datetime <Zi> <HH:MM>. With no arguments it starts the conversational flow.
func (r *Router) cmdSetWebinar(ctx context.Context, req *Request) error {
	if len(req.Args) == 0 {
		r.setPending(req.Chat.ChatID, pendingInput{kind: pendingWebinar})
		return r.reply(ctx, req, promptWebinar)
	}
	switch req.Args[0] {
	case "day":
		if len(req.Args) != 2 {
			return r.reply(ctx, req, "Folosire: /setwebinar day <Zi>")
		}
		return r.applyWebinarField(ctx, req, fieldDay, req.Args[1])
	case "time":
		if len(req.Args) != 2 {
			return r.reply(ctx, req, "Folosire: /setwebinar time <HH:MM>")
		}
		return r.applyWebinarField(ctx, req, fieldTime, req.Args[1])
	case "timezone":
		if len(req.Args) != 2 {
			return r.reply(ctx, req, "Folosire: /setwebinar timezone <Fus orar>")
		}
		return r.applyWebinarField(ctx, req, fieldTimezone, req.Args[1])
	case "link":
		if len(req.Args) != 2 {
			return r.reply(ctx, req, "Folosire: /setwebinar link <URL>")
		}
		return r.applyWebinarField(ctx, req, fieldLink, req.Args[1])
	case "datetime":
		return r.applyWebinarInput(ctx, req, strings.Join(req.Args[1:], " "))
	default:
		return r.applyWebinarInput(ctx, req, strings.Join(req.Args, " "))
	}
}

func (r *Router) cmdSetReminder(ctx context.Context, req *Request) error {
	args := req.Args
	// Tolerate the longhand "/setreminder day Marți 09:00".
	if len(args) > 0 && args[0] == "day" {
		args = args[1:]
	}
	if len(args) > 0 {
		return r.applyReminderInput(ctx, req, strings.Join(args, " "))
	}
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingReminder})
	return r.reply(ctx, req, promptReminder)
}

func (r *Router) cmdSetMessage(ctx context.Context, req *Request) error {
	if len(req.Args) >= 2 {
		kind := req.Args[0]
		text := strings.Join(req.Args[1:], " ")
		return r.savePendingMessage(ctx, req, kind, text)
	}
	return r.replyKeyboard(ctx, req, "Ce mesaj editezi?", messageKindKeyboard())
}

func (r *Router) cmdSendReminder(ctx context.Context, req *Request) error {
	if len(req.Args) == 1 {
		return r.dispatchNow(ctx, req, req.Args[0])
	}
	kb := transport.Keyboard{
		{{Text: "Reminderul din ziua webinarului", Data: "sendrm:" + dispatch.KindDayReminder}},
		{{Text: "Reminderul de 15 minute", Data: "sendrm:" + dispatch.KindPreEvent}},
		{{Text: "Renunță", Data: "cancel"}},
	}
	return r.replyKeyboard(ctx, req, "Ce reminder trimit?", kb)
}

func (r *Router) cmdBroadcast(ctx context.Context, req *Request) error {
	if len(req.Args) > 0 {
		text := strings.Join(req.Args, " ")
		return r.handlePendingInput(ctx, req, pendingInput{kind: pendingBroadcastText}, text)
	}
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingBroadcastText})
	return r.reply(ctx, req, promptBroadcastText)
}

func (r *Router) cmdSyncSheet(ctx context.Context, req *Request) error {
	if r.deps.Sheets == nil || !r.deps.Sheets.Enabled() {
		return r.reply(ctx, req, "Sincronizarea cu foaia de calcul nu este configurată.")
	}
	participants, err := allParticipants(r.deps.Store)
	if err != nil {
		return err
	}
	n, err := r.deps.Sheets.ExportAll(ctx, participants)
	if err != nil {
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf("Sincronizare reușită: %d participanți.", n))
}

func (r *Router) cmdAddAdmin(ctx context.Context, req *Request) error {
	if len(req.Args) == 1 {
		return r.applyAdminChange(ctx, req, req.Args[0], true)
	}
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingAdminAdd})
	return r.reply(ctx, req, promptAdminAdd)
}

func (r *Router) cmdDelAdmin(ctx context.Context, req *Request) error {
	if len(req.Args) == 1 {
		return r.applyAdminChange(ctx, req, req.Args[0], false)
	}
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingAdminDel})
	return r.reply(ctx, req, promptAdminDel)
}

func (r *Router) cmdListAdmins(ctx context.Context, req *Request) error {
	cfg := r.deps.Config.Get()
	if len(cfg.AdminIDs) == 0 {
		return r.reply(ctx, req, "Niciun administrator configurat.")
	}
	var b strings.Builder
	b.WriteString("Administratori:\n")
	for _, id := range cfg.AdminIDs {
		fmt.Fprintf(&b, "• %d\n", id)
	}
	return r.reply(ctx, req, strings.TrimRight(b.String(), "\n"))
}

func (r *Router) dispatchNow(ctx context.Context, req *Request, kind string) error {
	switch kind {
	case "day":
		kind = dispatch.KindDayReminder
	case "15min":
		kind = dispatch.KindPreEvent
	case dispatch.KindDayReminder, dispatch.KindPreEvent:
	default:
		return r.reply(ctx, req, "Tip de reminder necunoscut: "+kind)
	}
	res, err := r.deps.Dispatcher.Dispatch(ctx, kind)
	if err != nil {
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf(
		"Reminder trimis: %d livrate, %d eșuate din %d participanți activi.",
		res.Sent, res.Failed, res.Total))
}

func messageKindKeyboard() transport.Keyboard {
	return transport.Keyboard{
		{{Text: "Mesaj de bun venit", Data: "setmsg:welcome"}},
		{{Text: "Mesaj info", Data: "setmsg:info"}},
		{{Text: "Reminder din ziua webinarului", Data: "setmsg:reminder_day"}},
		{{Text: "Reminder de 15 minute", Data: "setmsg:reminder_15min"}},
		{{Text: "Renunță", Data: "cancel"}},
	}
}

func allParticipants(st *store.Store) ([]store.Participant, error) {
	m, err := st.Participants()
	if err != nil {
		return nil, err
	}
	out := make([]store.Participant, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sortParticipants(out)
	return out, nil
}

package bot

import (
	"context"

	"webinarbot/internal/transport"
)

type callbackHandler struct {
	adminOnly bool
	fn        func(ctx context.Context, req *Request, arg string) error
}

func (r *Router) registerCallbacks() {
	r.callbacks["cmd"] = callbackHandler{fn: r.cbCommand}
	r.callbacks["cancel"] = callbackHandler{fn: r.cbCancel}
	r.callbacks["setmsg"] = callbackHandler{adminOnly: true, fn: r.cbSetMessage}
	r.callbacks["sendrm"] = callbackHandler{adminOnly: true, fn: r.cbSendReminder}
	r.callbacks["setwb"] = callbackHandler{adminOnly: true, fn: r.cbSetWebinar}
	r.callbacks["setrem"] = callbackHandler{adminOnly: true, fn: r.cbSetReminder}
	r.callbacks["bcast"] = callbackHandler{adminOnly: true, fn: r.cbBroadcast}
	r.callbacks["admins"] = callbackHandler{adminOnly: true, fn: r.cbAdmins}
}

// cbCommand re-dispatches a menu button press as if the user had typed the
// slash command. Access is re-checked against the command's own gate.
func (r *Router) cbCommand(ctx context.Context, req *Request, arg string) error {
	cmd, ok := r.byName[arg]
	if !ok {
		return r.reply(ctx, req, msgUnknownCommand)
	}
	if cmd.Access == AccessAdminOnly && !r.isAdmin(req.FromID) {
		return r.reply(ctx, req, msgNotAdmin)
	}
	req.Command = arg
	req.Args = nil
	return cmd.Handle(ctx, req)
}

func (r *Router) cbCancel(ctx context.Context, req *Request, _ string) error {
	r.clearPending(req.Chat.ChatID)
	return r.reply(ctx, req, msgCancelled)
}

func (r *Router) cbSetMessage(ctx context.Context, req *Request, arg string) error {
	if arg == "" {
		return r.replyKeyboard(ctx, req, "Ce mesaj editezi?", messageKindKeyboard())
	}
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingMessageText, arg: arg})
	return r.reply(ctx, req, promptMessageText)
}

func (r *Router) cbSendReminder(ctx context.Context, req *Request, arg string) error {
	if arg == "" {
		return r.cmdSendReminder(ctx, req)
	}
	return r.dispatchNow(ctx, req, arg)
}

func (r *Router) cbSetWebinar(ctx context.Context, req *Request, _ string) error {
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingWebinar})
	return r.reply(ctx, req, promptWebinar)
}

func (r *Router) cbSetReminder(ctx context.Context, req *Request, _ string) error {
	r.setPending(req.Chat.ChatID, pendingInput{kind: pendingReminder})
	return r.reply(ctx, req, promptReminder)
}

// cbBroadcast drives the announcement flow: "start" asks for the text,
// "yes"/"no" resolve the Da/Nu confirmation holding the draft.
func (r *Router) cbBroadcast(ctx context.Context, req *Request, arg string) error {
	switch arg {
	case "start":
		r.setPending(req.Chat.ChatID, pendingInput{kind: pendingBroadcastText})
		return r.reply(ctx, req, promptBroadcastText)

	case "yes":
		p, ok := r.takePending(req.Chat.ChatID)
		if !ok || p.kind != pendingBroadcastConfirm || p.arg == "" {
			return r.reply(ctx, req, msgBroadcastAborted)
		}
		res, err := r.deps.Dispatcher.Broadcast(ctx, p.arg)
		if err != nil {
			return err
		}
		return r.reply(ctx, req, formatBroadcastResult(res))

	case "no":
		r.clearPending(req.Chat.ChatID)
		return r.reply(ctx, req, msgBroadcastAborted)
	}
	return nil
}

func (r *Router) cbAdmins(ctx context.Context, req *Request, arg string) error {
	switch arg {
	case "add":
		r.setPending(req.Chat.ChatID, pendingInput{kind: pendingAdminAdd})
		return r.reply(ctx, req, promptAdminAdd)
	case "del":
		r.setPending(req.Chat.ChatID, pendingInput{kind: pendingAdminDel})
		return r.reply(ctx, req, promptAdminDel)
	default:
		kb := transport.Keyboard{
			{{Text: "Adaugă", Data: "admins:add"}, {Text: "Elimină", Data: "admins:del"}},
			{{Text: "Renunță", Data: "cancel"}},
		}
		if err := r.cmdListAdmins(ctx, req); err != nil {
			return err
		}
		return r.replyKeyboard(ctx, req, "Gestionare administratori:", kb)
	}
}

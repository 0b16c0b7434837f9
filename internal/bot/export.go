package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"webinarbot/internal/dispatch"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
)

var csvHeader = []string{
	"chat_id", "username", "first_name", "last_name", "registration_date", "active",
}

func (r *Router) cmdExportCSV(ctx context.Context, req *Request) error {
	participants, err := allParticipants(r.deps.Store)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return r.reply(ctx, req, "Niciun participant înregistrat.")
	}

	buf, err := participantsCSV(participants)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("participanti-%s.csv", time.Now().Format("2006-01-02"))
	if err := req.Adapter.SendDocument(ctx, req.Chat, transport.Document{
		Name:   name,
		Reader: buf,
	}); err != nil {
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf("Export complet: %d participanți.", len(participants)))
}

func participantsCSV(participants []store.Participant) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range participants {
		rec := []string{
			strconv.FormatInt(p.ChatID, 10),
			p.Username,
			p.FirstName,
			p.LastName,
			p.RegistrationDate,
			strconv.FormatBool(p.Active),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &buf, nil
}

func sortParticipants(ps []store.Participant) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ChatID < ps[j].ChatID })
}

func formatBroadcastResult(res dispatch.Result) string {
	return fmt.Sprintf("Anunț trimis: %d livrate, %d eșuate din %d participanți activi.",
		res.Sent, res.Failed, res.Total)
}

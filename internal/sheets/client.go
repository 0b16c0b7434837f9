// Package sheets pushes participant rows to an external spreadsheet
// webhook (e.g. a Google Apps Script endpoint). The bot works fine without
// it: when disabled every call is a cheap no-op.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"webinarbot/internal/config"
	"webinarbot/internal/store"
	"webinarbot/pkg/logx"
)

const defaultTimeout = 15 * time.Second

// Row is the wire shape of one spreadsheet row.
type Row struct {
	ChatID           int64  `json:"chat_id"`
	Username         string `json:"username"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	RegistrationDate string `json:"registration_date"`
	Active           bool   `json:"active"`
}

type payload struct {
	Action string `json:"action"` // "upsert" or "replace_all"
	Rows   []Row  `json:"rows"`
}

// Client talks to the spreadsheet webhook.
type Client struct {
	cfg  config.Sheets
	http *http.Client
	log  logx.Logger
}

func New(cfg config.Sheets, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := defaultTimeout
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Enabled reports whether the integration is configured and turned on.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.URL != ""
}

// UpsertUser appends or updates one participant row. Called on registration;
// a failure is logged by the caller and never blocks the registration itself.
func (c *Client) UpsertUser(ctx context.Context, p store.Participant) error {
	if !c.Enabled() {
		return nil
	}
	return c.post(ctx, payload{Action: "upsert", Rows: []Row{toRow(p)}})
}

// ExportAll replaces the sheet contents with the full participant list and
// returns the number of rows pushed.
func (c *Client) ExportAll(ctx context.Context, participants []store.Participant) (int, error) {
	if !c.Enabled() {
		return 0, fmt.Errorf("sheets sync is not configured")
	}
	rows := make([]Row, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, toRow(p))
	}
	if err := c.post(ctx, payload{Action: "replace_all", Rows: rows}); err != nil {
		return 0, err
	}
	c.log.Info("sheet export completed", logx.Int("rows", len(rows)))
	return len(rows), nil
}

func (c *Client) post(ctx context.Context, pl payload) error {
	body, err := json.Marshal(pl)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sheet webhook returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func toRow(p store.Participant) Row {
	return Row{
		ChatID:           p.ChatID,
		Username:         p.Username,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		RegistrationDate: p.RegistrationDate,
		Active:           p.Active,
	}
}

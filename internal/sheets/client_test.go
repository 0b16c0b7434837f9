package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"webinarbot/internal/config"
	"webinarbot/internal/store"
	"webinarbot/pkg/logx"
)

func TestExportAll(t *testing.T) {
	t.Parallel()
	var got payload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(config.Sheets{Enabled: true, URL: srv.URL, Token: "secret"}, logx.Nop())
	n, err := c.ExportAll(context.Background(), []store.Participant{
		{ChatID: 1, FirstName: "Ana", Active: true},
		{ChatID: 2, FirstName: "Ion", Active: false},
	})
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
	if got.Action != "replace_all" || len(got.Rows) != 2 {
		t.Fatalf("payload = %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth header = %q", auth)
	}
}

func TestUpsertUserDisabledIsNoop(t *testing.T) {
	t.Parallel()
	c := New(config.Sheets{Enabled: false}, logx.Nop())
	if err := c.UpsertUser(context.Background(), store.Participant{ChatID: 1}); err != nil {
		t.Fatalf("disabled upsert: %v", err)
	}
	if _, err := c.ExportAll(context.Background(), nil); err == nil {
		t.Fatal("expected error for export with sync disabled")
	}
}

func TestPostErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(config.Sheets{Enabled: true, URL: srv.URL}, logx.Nop())
	if err := c.UpsertUser(context.Background(), store.Participant{ChatID: 1}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

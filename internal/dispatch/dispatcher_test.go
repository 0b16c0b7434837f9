package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"webinarbot/internal/config"
	"webinarbot/internal/store"
	"webinarbot/internal/transport"
	"webinarbot/pkg/logx"
)

// fakeAdapter records sends and fails for chat IDs listed in failFor.
type fakeAdapter struct {
	mu      sync.Mutex
	sent    map[int64]string
	failFor map[int64]bool
}

func newFakeAdapter(failFor ...int64) *fakeAdapter {
	f := &fakeAdapter{sent: map[int64]string{}, failFor: map[int64]bool{}}
	for _, id := range failFor {
		f.failFor[id] = true
	}
	return f
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                               { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to.ChatID] {
		return transport.MessageRef{}, fmt.Errorf("chat %d unreachable", to.ChatID)
	}
	f.sent[to.ChatID] = text
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) SendDocument(ctx context.Context, to transport.ChatTarget, doc transport.Document) error {
	return nil
}

func (f *fakeAdapter) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	return nil
}

func (f *fakeAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error { return nil }

func (f *fakeAdapter) texts() map[int64]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]string, len(f.sent))
	for k, v := range f.sent {
		out[k] = v
	}
	return out
}

func testFixtures(t *testing.T) (*store.Store, *config.Manager) {
	t.Helper()
	dir := t.TempDir()

	st := store.New(filepath.Join(dir, "users.json"))
	if err := st.Init(); err != nil {
		t.Fatalf("store init: %v", err)
	}

	cfgs := config.NewManager(filepath.Join(dir, "config.json"))
	cfg := &config.Config{}
	cfg.Webinar.Day = "Tuesday"
	cfg.Webinar.Time = "19:00"
	cfg.Webinar.Timezone = "Europe/Bucharest"
	cfg.ApplyDefaults()
	if err := cfgs.Save(cfg); err != nil {
		t.Fatalf("config save: %v", err)
	}
	return st, cfgs
}

func register(t *testing.T, st *store.Store, chatID int64, first string, active bool) {
	t.Helper()
	if _, err := st.Register(store.Participant{
		ChatID:    chatID,
		FirstName: first,
		Active:    true,
	}); err != nil {
		t.Fatalf("register %d: %v", chatID, err)
	}
	if !active {
		if err := st.SetActive(chatID, false); err != nil {
			t.Fatalf("deactivate %d: %v", chatID, err)
		}
	}
}

func TestDispatchDeliversToActiveOnly(t *testing.T) {
	t.Parallel()
	st, cfgs := testFixtures(t)
	register(t, st, 101, "Ana", true)
	register(t, st, 102, "Ion", true)
	register(t, st, 103, "Dan", false)

	ad := newFakeAdapter()
	d := New(ad, st, cfgs, logx.Nop())

	res, err := d.Dispatch(context.Background(), KindPreEvent)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Sent != 2 || res.Failed != 0 || res.Total != 2 {
		t.Fatalf("result = %+v", res)
	}
	texts := ad.texts()
	if _, ok := texts[103]; ok {
		t.Fatal("inactive participant received a reminder")
	}
	if !strings.Contains(texts[101], "15 minute") {
		t.Fatalf("unexpected text for 101: %q", texts[101])
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	t.Parallel()
	st, cfgs := testFixtures(t)
	for i := int64(1); i <= 5; i++ {
		register(t, st, 200+i, fmt.Sprintf("User%d", i), true)
	}

	ad := newFakeAdapter(203) // one recipient always fails
	d := New(ad, st, cfgs, logx.Nop())

	res, err := d.Dispatch(context.Background(), KindDayReminder)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Sent != 4 || res.Failed != 1 || res.Total != 5 {
		t.Fatalf("result = %+v", res)
	}
	if len(ad.texts()) != 4 {
		t.Fatalf("delivered %d, want 4", len(ad.texts()))
	}
}

func TestDispatchSubstitutesPlaceholders(t *testing.T) {
	t.Parallel()
	st, cfgs := testFixtures(t)
	register(t, st, 301, "Maria", true)

	if _, err := cfgs.Update(func(c *config.Config) error {
		c.Messages.ReminderDay = "Salut {first_name}, webinarul e {webinar_day} la {webinar_time}."
		return nil
	}); err != nil {
		t.Fatalf("config update: %v", err)
	}

	ad := newFakeAdapter()
	d := New(ad, st, cfgs, logx.Nop())
	if _, err := d.Dispatch(context.Background(), KindDayReminder); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	got := ad.texts()[301]
	want := "Salut Maria, webinarul e marți la 19:00."
	if got != want {
		t.Fatalf("rendered text = %q, want %q", got, want)
	}
}

func TestDispatchUnknownKindIsNoop(t *testing.T) {
	t.Parallel()
	st, cfgs := testFixtures(t)
	register(t, st, 401, "Ana", true)

	ad := newFakeAdapter()
	d := New(ad, st, cfgs, logx.Nop())

	res, err := d.Dispatch(context.Background(), "reminder_never")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Sent != 0 || res.Total != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(ad.texts()) != 0 {
		t.Fatal("unexpected delivery for unknown kind")
	}
}

func TestBroadcastPersonalizes(t *testing.T) {
	t.Parallel()
	st, cfgs := testFixtures(t)
	register(t, st, 501, "Elena", true)
	register(t, st, 502, "Radu", true)

	ad := newFakeAdapter()
	d := New(ad, st, cfgs, logx.Nop())

	res, err := d.Broadcast(context.Background(), "Salut, {first_name}!")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if res.Sent != 2 {
		t.Fatalf("result = %+v", res)
	}
	if got := ad.texts()[501]; got != "Salut, Elena!" {
		t.Fatalf("text for 501 = %q", got)
	}
	if got := ad.texts()[502]; got != "Salut, Radu!" {
		t.Fatalf("text for 502 = %q", got)
	}
}

func TestDispatchBeforeConfigLoadFailsCleanly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	st := store.New(filepath.Join(dir, "users.json"))
	if err := st.Init(); err != nil {
		t.Fatalf("store init: %v", err)
	}
	cfgs := config.NewManager(filepath.Join(dir, "config.json"))

	ad := newFakeAdapter()
	d := New(ad, st, cfgs, logx.Nop())

	if _, err := d.Dispatch(context.Background(), KindDayReminder); err == nil {
		t.Fatal("Dispatch with no loaded config: want error")
	}
	if _, err := d.Broadcast(context.Background(), "salut"); err == nil {
		t.Fatal("Broadcast with no loaded config: want error")
	}
	if len(ad.texts()) != 0 {
		t.Fatalf("sends with no loaded config: %d", len(ad.texts()))
	}
}

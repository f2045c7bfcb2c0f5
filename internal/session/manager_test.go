package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return NewManager(NewMemoryStore(), cfg, testLogger(), nil)
}

func TestNewID_Shape(t *testing.T) {
	t.Parallel()

	id := NewID(time.Now())
	parts := strings.Split(id, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Fatalf("NewID() = %q, want base36_base36", id)
	}
	if id == NewID(time.Now()) {
		t.Error("two ids should not collide")
	}
}

func TestManager_GetCreatesWhenUnknown(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{})
	ctx := context.Background()

	sess, err := m.Get(ctx, "", ClientMeta{UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("new session should have an id")
	}
	if sess.Metadata.UserAgent != "test-agent" {
		t.Errorf("UserAgent = %s", sess.Metadata.UserAgent)
	}

	again, err := m.Get(ctx, sess.ID, ClientMeta{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.ID != sess.ID {
		t.Errorf("existing session not reused: %s != %s", again.ID, sess.ID)
	}
}

func TestManager_ExpiredSessionGetsNewID(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{Timeout: 30 * time.Minute})
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	sess, err := m.Get(ctx, "", ClientMeta{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(31 * time.Minute)

	fresh, err := m.Get(ctx, sess.ID, ClientMeta{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Error("expired session should be replaced with a new id")
	}
}

func TestManager_TrackAccumulatesContext(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{})
	ctx := context.Background()

	sess, err := m.Get(ctx, "", ClientMeta{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	link1 := &model.DeepLink{
		Action:      model.ActionShop,
		Params:      model.ParamsFrom("shop", "nyc_01"),
		OriginalURL: "app://shop?shop=nyc_01",
	}
	link2 := &model.DeepLink{
		Action:      model.ActionBarber,
		Params:      model.ParamsFrom("barber", "jb"),
		OriginalURL: "app://barber?barber=jb",
	}

	if err := m.Track(ctx, sess.ID, link1); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := m.Track(ctx, sess.ID, link2); err != nil {
		t.Fatalf("Track: %v", err)
	}

	got, _, err := m.store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if got.Context.CurrentShop != "nyc_01" {
		t.Errorf("CurrentShop = %s, want nyc_01", got.Context.CurrentShop)
	}
	if got.Context.CurrentBarber != "jb" {
		t.Errorf("CurrentBarber = %s, want jb", got.Context.CurrentBarber)
	}
	history := got.Context.NavigationHistory
	if len(history) != 2 || history[0] != link1.OriginalURL || history[1] != link2.OriginalURL {
		t.Errorf("NavigationHistory = %v", history)
	}
	if len(got.DeepLinks) != 2 {
		t.Errorf("DeepLinks len = %d, want 2", len(got.DeepLinks))
	}
}

func TestManager_TrackSetsPendingPayment(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{})
	ctx := context.Background()

	sess, _ := m.Get(ctx, "", ClientMeta{})
	link := &model.DeepLink{
		Action:      model.ActionPayment,
		Params:      model.ParamsFrom("amount", "45"),
		OriginalURL: "app://payment?amount=45",
	}
	if err := m.Track(ctx, sess.ID, link); err != nil {
		t.Fatalf("Track: %v", err)
	}

	got, _, _ := m.store.Get(ctx, sess.ID)
	if got.Context.PendingPayment != link.OriginalURL {
		t.Errorf("PendingPayment = %s", got.Context.PendingPayment)
	}
}

func TestManager_AnonymousSentinelNotPersisted(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m := NewManager(store, Config{Timeout: time.Hour, Anonymous: true}, testLogger(), nil)
	ctx := context.Background()

	sess, err := m.Get(ctx, "whatever", ClientMeta{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.ID != AnonymousSessionID {
		t.Errorf("ID = %s, want %s", sess.ID, AnonymousSessionID)
	}

	if err := m.Track(ctx, sess.ID, &model.DeepLink{Action: model.ActionShop, Params: model.NewParams()}); err != nil {
		t.Fatalf("Track: %v", err)
	}

	stats, err := store.Stats(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("sentinel session leaked into the store: %+v", stats)
	}
}

func TestManager_StatsReevaluatesExpiry(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{Timeout: 30 * time.Minute})
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	if _, err := m.Get(ctx, "", ClientMeta{}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "", ClientMeta{}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(31 * time.Minute)
	if _, err := m.Get(ctx, "", ClientMeta{}); err != nil {
		t.Fatal(err)
	}

	// No sweep has run: the two old sessions are still in the store but
	// must be reported as expired.
	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Active != 1 || stats.Expired != 2 {
		t.Errorf("Stats = %+v, want total 3 / active 1 / expired 2", stats)
	}
}

func TestManager_SweepRemovesExpired(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m := NewManager(store, Config{Timeout: 30 * time.Minute, SweepInterval: time.Minute}, testLogger(), nil)
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	old, _ := m.Get(ctx, "", ClientMeta{})
	now = now.Add(31 * time.Minute)
	fresh, _ := m.Get(ctx, "", ClientMeta{})

	removed, err := store.Sweep(ctx, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}

	if _, ok, _ := store.Get(ctx, old.ID); ok {
		t.Error("expired session should be gone")
	}
	if _, ok, _ := store.Get(ctx, fresh.ID); !ok {
		t.Error("fresh session should remain")
	}
}

func TestManager_LastWriteWinsOnSharedSession(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{})
	ctx := context.Background()

	sess, _ := m.Get(ctx, "", ClientMeta{})

	// Two "concurrent" calls completing in order: the later completion
	// determines the final context values.
	first := &model.DeepLink{Action: model.ActionShop, Params: model.ParamsFrom("shop", "nyc_01"), OriginalURL: "u1"}
	second := &model.DeepLink{Action: model.ActionShop, Params: model.ParamsFrom("shop", "bk_02"), OriginalURL: "u2"}

	_ = m.Track(ctx, sess.ID, first)
	_ = m.Track(ctx, sess.ID, second)

	got, _, _ := m.store.Get(ctx, sess.ID)
	if got.Context.CurrentShop != "bk_02" {
		t.Errorf("CurrentShop = %s, want bk_02 (last write wins)", got.Context.CurrentShop)
	}
	if len(got.Context.NavigationHistory) != 2 {
		t.Errorf("history len = %d, want 2", len(got.Context.NavigationHistory))
	}
}

func TestManager_ShutdownStopsSweep(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{SweepInterval: 10 * time.Millisecond})
	m.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paymentLink(shop, barber string) *model.DeepLink {
	params := model.ParamsFrom("amount", "45", "shop", shop, "barber", barber)
	return &model.DeepLink{
		Action:      model.ActionPayment,
		Params:      params,
		OriginalURL: "app://payment?amount=45&shop=" + shop + "&barber=" + barber,
	}
}

func TestPipeline_RecordSuccessOutcome(t *testing.T) {
	t.Parallel()

	p := NewPipeline(storage.NewMemoryStore(), "", 8, testLogger(), nil)
	start := time.Now().Add(-10 * time.Millisecond)

	rec := p.Record(paymentLink("nyc_01", "jb"), "sess1", model.RecordMetadata{UserAgent: "test"}, start,
		&model.Result{Type: model.ActionPayment, Action: model.ResultCreated}, nil)

	if rec.ID == "" {
		t.Error("record should get an id")
	}
	if rec.Error != "" {
		t.Errorf("error = %q, want empty on success", rec.Error)
	}
	if rec.Result == nil || rec.Result.Action != model.ResultCreated {
		t.Errorf("result = %+v", rec.Result)
	}
	if rec.ProcessingMS < 10 {
		t.Errorf("processing ms = %v, want >= 10", rec.ProcessingMS)
	}
	if rec.SessionID != "sess1" || rec.Metadata.UserAgent != "test" {
		t.Errorf("record = %+v", rec)
	}
}

func TestPipeline_RecordErrorOutcome(t *testing.T) {
	t.Parallel()

	p := NewPipeline(storage.NewMemoryStore(), "", 8, testLogger(), nil)

	rec := p.Record(paymentLink("nyc_01", "jb"), "sess1", model.RecordMetadata{}, time.Now(),
		nil, errors.New("gateway unavailable"))

	if rec.Result != nil {
		t.Errorf("result = %+v, want nil on error", rec.Result)
	}
	if rec.Error != "gateway unavailable" {
		t.Errorf("error = %q", rec.Error)
	}
}

func TestPipeline_PersistsUnderDayPartition(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	p := NewPipeline(store, "test/", 8, testLogger(), nil)

	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Start()
	rec := p.Record(paymentLink("nyc_01", "jb"), "sess1", model.RecordMetadata{}, fixed,
		&model.Result{Type: model.ActionPayment, Action: model.ResultCreated}, nil)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	wantKey := "test/deep-links/2026-08-31/" + rec.ID + ".json"
	body, err := store.Get(context.Background(), wantKey)
	if err != nil {
		t.Fatalf("Get %s: %v", wantKey, err)
	}

	var stored model.AnalyticsRecord
	if err := json.Unmarshal(body, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stored.ID != rec.ID || stored.SessionID != "sess1" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestPipeline_FullQueueDropsRecord(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	p := NewPipeline(storage.NewMemoryStore(), "", 1, testLogger(), recorder)

	// Writer not started, so the buffer never empties.
	p.Record(paymentLink("a", "b"), "s", model.RecordMetadata{}, time.Now(), &model.Result{}, nil)
	p.Record(paymentLink("a", "b"), "s", model.RecordMetadata{}, time.Now(), &model.Result{}, nil)

	snap := recorder.Snapshot()
	if snap.AnalyticsQueued != 1 || snap.AnalyticsDropped != 1 {
		t.Errorf("queued=%d dropped=%d, want 1/1", snap.AnalyticsQueued, snap.AnalyticsDropped)
	}
}

func TestPipeline_ShutdownDrainsBuffer(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	recorder := metrics.NewInMemory()
	p := NewPipeline(store, "", 16, testLogger(), recorder)

	for i := 0; i < 5; i++ {
		p.Record(paymentLink("a", "b"), "s", model.RecordMetadata{}, time.Now(), &model.Result{}, nil)
	}

	p.Start()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if store.Len() != 5 {
		t.Errorf("stored objects = %d, want 5", store.Len())
	}
	if got := recorder.Snapshot().AnalyticsPersisted; got != 5 {
		t.Errorf("persisted = %d, want 5", got)
	}
}

func seedRecord(t *testing.T, store *storage.MemoryStore, prefix, day, id string, rec model.AnalyticsRecord) {
	t.Helper()
	rec.ID = id
	body, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	key := prefix + "deep-links/" + day + "/" + id + ".json"
	if err := store.Put(context.Background(), key, body); err != nil {
		t.Fatalf("Put %s: %v", key, err)
	}
}

func TestPipeline_Summary(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	p := NewPipeline(store, "", 8, testLogger(), nil)

	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ok := &model.Result{Type: model.ActionPayment, Action: model.ResultCreated}
	seedRecord(t, store, "", "2026-08-31", "01A", model.AnalyticsRecord{
		DeepLink: paymentLink("nyc_01", "jb"), Timestamp: now, ProcessingMS: 10, Result: ok,
	})
	seedRecord(t, store, "", "2026-08-31", "01B", model.AnalyticsRecord{
		DeepLink: paymentLink("nyc_01", "mk"), Timestamp: now, ProcessingMS: 20, Result: ok,
	})
	seedRecord(t, store, "", "2026-08-30", "01C", model.AnalyticsRecord{
		DeepLink: &model.DeepLink{Action: model.ActionBooking, Params: model.ParamsFrom("barber", "jb")},
		Timestamp: now.AddDate(0, 0, -1), ProcessingMS: 30, Error: "cannot handle booking link: missing barber",
	})
	// Outside the window, must be excluded.
	seedRecord(t, store, "", "2026-08-20", "01D", model.AnalyticsRecord{
		DeepLink: paymentLink("old", "old"), Timestamp: now.AddDate(0, 0, -11), ProcessingMS: 99, Result: ok,
	})

	sum, err := p.Summary(context.Background(), 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if sum.Total != 3 {
		t.Fatalf("total = %d, want 3", sum.Total)
	}
	if sum.ByAction["payment"] != 2 || sum.ByAction["booking"] != 1 {
		t.Errorf("byAction = %v", sum.ByAction)
	}
	if want := 100.0 / 3.0; sum.ErrorRate != want {
		t.Errorf("errorRate = %v, want %v", sum.ErrorRate, want)
	}
	if sum.AvgProcessingMS != 20 {
		t.Errorf("avgProcessingMs = %v, want 20", sum.AvgProcessingMS)
	}
	if sum.ByDay["2026-08-31"] != 2 || sum.ByDay["2026-08-30"] != 1 {
		t.Errorf("byDay = %v", sum.ByDay)
	}
	if len(sum.TopShops) != 1 || sum.TopShops[0] != (EntityCount{ID: "nyc_01", Count: 2}) {
		t.Errorf("topShops = %v", sum.TopShops)
	}
	if len(sum.TopBarbers) != 2 || sum.TopBarbers[0].ID != "jb" || sum.TopBarbers[0].Count != 2 {
		t.Errorf("topBarbers = %v", sum.TopBarbers)
	}
}

func TestPipeline_SummarySkipsMalformedObjects(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	p := NewPipeline(store, "", 8, testLogger(), nil)

	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	seedRecord(t, store, "", "2026-08-31", "01A", model.AnalyticsRecord{
		DeepLink: paymentLink("nyc_01", "jb"), Timestamp: now, ProcessingMS: 10,
		Result: &model.Result{Type: model.ActionPayment, Action: model.ResultCreated},
	})
	if err := store.Put(context.Background(), "deep-links/2026-08-31/garbage.json", []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	sum, err := p.Summary(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 1 {
		t.Errorf("total = %d, want 1 (malformed object skipped)", sum.Total)
	}
}

func TestPipeline_SummaryTopFiveCap(t *testing.T) {
	t.Parallel()

	counts := map[string]int{"a": 1, "b": 5, "c": 3, "d": 3, "e": 2, "f": 9, "g": 1}
	top := topEntities(counts, 5)

	if len(top) != 5 {
		t.Fatalf("len = %d, want 5", len(top))
	}
	if top[0] != (EntityCount{ID: "f", Count: 9}) || top[1] != (EntityCount{ID: "b", Count: 5}) {
		t.Errorf("top = %v", top)
	}
	// Ties broken alphabetically.
	if top[2].ID != "c" || top[3].ID != "d" {
		t.Errorf("tie order = %v", top)
	}
	if !strings.HasPrefix(top[4].ID, "e") {
		t.Errorf("fifth = %v", top[4])
	}
}

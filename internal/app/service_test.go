package app_test

import (
	"context"
	"errors"
	"testing"

	"reviewharvest/internal/app"
	"reviewharvest/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	rawName       string
	rawRows       []domain.Review
	processedName string
	processedRows []domain.Review
}

func (s *fakeStore) SaveRaw(name string, rs []domain.Review) (string, error) {
	s.rawName, s.rawRows = name, rs
	return "raw/" + name + ".csv", nil
}

func (s *fakeStore) SaveProcessed(name string, rs []domain.Review) (string, error) {
	s.processedName, s.processedRows = name, rs
	return "processed/" + name + "_processed.csv", nil
}

type fakeArchive struct {
	appID string
	rows  []domain.Review
	calls int
}

func (a *fakeArchive) UpsertReviews(ctx context.Context, appID string, rs []domain.Review) error {
	a.appID, a.rows = appID, rs
	a.calls++
	return nil
}

// recordSource serves canned raw records through the uniform contract.
type recordSource struct {
	platform domain.Platform
	records  []domain.RawRecord
}

func (r *recordSource) Platform() domain.Platform { return r.platform }

func (r *recordSource) FetchBatch(ctx context.Context, cursor *string, count int) ([]domain.RawRecord, *string, error) {
	out := r.records
	r.records = nil
	return out, nil, nil
}

// ---- tests ----

func TestRun_EndToEnd(t *testing.T) {
	src := &recordSource{
		platform: domain.PlatformGoogle,
		records: []domain.RawRecord{
			{"reviewId": "r1", "userName": "Ana", "content": "love the privacy here", "score": 5.0, "at": "2024-05-01T10:00:00Z"},
			{"reviewId": "r2", "userName": "Bob", "content": "nice colors", "score": 4.0, "at": "2024-05-02T10:00:00Z"},
			{"reviewId": "r3", "userName": "Cid", "content": "bad", "score": 9.0, "at": "2024-05-03T10:00:00Z"}, // filtered
		},
	}
	store := &fakeStore{}
	arc := &fakeArchive{}
	stats := &domain.RunStats{}
	svc := app.NewFetchService(src, store, arc, nil, stats)

	res, err := svc.Run(context.Background(), app.RunOptions{
		AppID:      "com.example.app",
		MaxReviews: 100,
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(res.Reviews) != 2 {
		t.Fatalf("reviews = %d, want 2 after score filter", len(res.Reviews))
	}
	if res.Stats.Fetched != 3 {
		t.Fatalf("fetched = %d, want 3 (pre-filter)", res.Stats.Fetched)
	}
	if res.Stats.SecurityRelated != 1 {
		t.Fatalf("security_related = %d, want 1", res.Stats.SecurityRelated)
	}
	if !res.Reviews[0].IsSecurityRelated || res.Reviews[1].IsSecurityRelated {
		t.Fatalf("unexpected flags: %+v", res.Reviews)
	}

	if len(store.rawRows) != 2 || len(store.processedRows) != 2 {
		t.Fatalf("store rows: raw=%d processed=%d", len(store.rawRows), len(store.processedRows))
	}
	if store.rawName != store.processedName {
		t.Fatalf("dataset names diverge: %q vs %q", store.rawName, store.processedName)
	}
	if arc.calls != 1 || arc.appID != "com.example.app" || len(arc.rows) != 2 {
		t.Fatalf("archive not fed: calls=%d app=%q rows=%d", arc.calls, arc.appID, len(arc.rows))
	}
	if res.RawPath == "" || res.ProcessedPath == "" {
		t.Fatalf("paths missing: %+v", res)
	}
}

func TestRun_CustomOutputName(t *testing.T) {
	src := &recordSource{
		platform: domain.PlatformGoogle,
		records: []domain.RawRecord{
			{"reviewId": "r1", "userName": "Ana", "content": "x", "score": 3.0, "at": "2024-05-01T10:00:00Z"},
		},
	}
	store := &fakeStore{}
	svc := app.NewFetchService(src, store, nil, nil, &domain.RunStats{})

	_, err := svc.Run(context.Background(), app.RunOptions{
		AppID:      "com.example.app",
		MaxReviews: 10,
		OutputName: "mydata",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if store.rawName != "mydata" {
		t.Fatalf("name = %q, want mydata", store.rawName)
	}
}

func TestRun_EmptyRunSkipsPersistence(t *testing.T) {
	src := &recordSource{platform: domain.PlatformGoogle} // yields nothing
	store := &fakeStore{}
	arc := &fakeArchive{}
	svc := app.NewFetchService(src, store, arc, nil, &domain.RunStats{})

	_, err := svc.Run(context.Background(), app.RunOptions{AppID: "com.example.app", MaxReviews: 10})
	if !errors.Is(err, domain.ErrNoReviews) {
		t.Fatalf("err = %v, want ErrNoReviews", err)
	}
	if store.rawName != "" || arc.calls != 0 {
		t.Fatalf("persistence must be skipped on an empty run")
	}
}

func TestRun_AllRowsFilteredSkipsPersistence(t *testing.T) {
	src := &recordSource{
		platform: domain.PlatformGoogle,
		records: []domain.RawRecord{
			{"reviewId": "r1", "userName": "Ana", "content": "x", "score": 0.0, "at": "2024-05-01T10:00:00Z"},
		},
	}
	store := &fakeStore{}
	svc := app.NewFetchService(src, store, nil, nil, &domain.RunStats{})

	_, err := svc.Run(context.Background(), app.RunOptions{AppID: "com.example.app", MaxReviews: 10})
	if !errors.Is(err, domain.ErrNoReviews) {
		t.Fatalf("err = %v, want ErrNoReviews", err)
	}
	if store.rawName != "" {
		t.Fatalf("nothing should have been written")
	}
}

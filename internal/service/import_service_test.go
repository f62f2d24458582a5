package service

import (
	"context"
	"errors"
	"testing"

	"shopsync/internal/client/shopify"
	"shopsync/internal/models"
	synctrack "shopsync/internal/sync"
)

// stubFetcher serves canned product pages keyed by cursor and records the
// cursors it was asked for.
type stubFetcher struct {
	pages     map[string]*shopify.ProductPage
	cursors   []string
	fetchErr  error
	failAfter int
}

func (f *stubFetcher) GetProducts(ctx context.Context, params shopify.PageParams) (*shopify.ProductPage, error) {
	f.cursors = append(f.cursors, params.Cursor)
	if f.fetchErr != nil && len(f.cursors) > f.failAfter {
		return nil, f.fetchErr
	}
	page, ok := f.pages[params.Cursor]
	if !ok {
		return &shopify.ProductPage{}, nil
	}
	return page, nil
}

func (f *stubFetcher) GetCustomers(ctx context.Context, params shopify.PageParams) (*shopify.CustomerPage, error) {
	return &shopify.CustomerPage{}, nil
}

func (f *stubFetcher) GetOrders(ctx context.Context, params shopify.PageParams) (*shopify.OrderPage, error) {
	return &shopify.OrderPage{}, nil
}

func productDTOs(ids ...string) []shopify.ProductDTO {
	out := make([]shopify.ProductDTO, 0, len(ids))
	for _, id := range ids {
		out = append(out, shopify.ProductDTO{ID: id, Title: "p-" + id, Price: "19.90"})
	}
	return out
}

func newImportService(repo *stubRepo, fetcher PageFetcher) *ImportService {
	return &ImportService{
		Repo:        repo,
		Fetcher:     fetcher,
		Checkpoints: &synctrack.CheckpointStore{Repo: repo},
		Ranges:      &synctrack.RangeResolver{Repo: repo},
		Tracker:     &synctrack.ProgressTracker{Repo: repo},
		Config:      ImportConfig{PageLimit: 250, Resume: true},
	}
}

func TestImportRunPagesThroughAndCompletes(t *testing.T) {
	repo := newStubRepo()
	fetcher := &stubFetcher{pages: map[string]*shopify.ProductPage{
		"":   {Items: productDTOs("1", "2"), NextCursor: "c2", TotalCount: 3},
		"c2": {Items: productDTOs("3"), NextCursor: "", TotalCount: 3},
	}}
	svc := newImportService(repo, fetcher)
	ctx := context.Background()

	result, err := svc.Run(ctx, models.Store{ID: 1}, synctrack.DataTypeProducts, nil, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Completed || result.Resumed {
		t.Fatalf("result = %+v, want completed fresh run", result)
	}
	if result.Pages != 2 || result.Processed != 3 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(repo.products) != 3 {
		t.Fatalf("persisted products = %d, want 3", len(repo.products))
	}

	run, _ := repo.GetSyncRunByID(ctx, result.RunID)
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want Completed", run.Status)
	}
	if run.TotalRecords != 3 {
		t.Fatalf("run total = %d, want 3", run.TotalRecords)
	}

	// Full completion clears the checkpoint.
	cp, _ := repo.GetCheckpoint(ctx, 1, synctrack.DataTypeProducts)
	if cp != nil {
		t.Fatalf("checkpoint survived completed run: %+v", cp)
	}
}

func TestImportRunResumesFromCheckpoint(t *testing.T) {
	repo := newStubRepo()
	fetcher := &stubFetcher{pages: map[string]*shopify.ProductPage{
		"c2": {Items: productDTOs("3"), NextCursor: "", TotalCount: 3},
	}}
	svc := newImportService(repo, fetcher)
	ctx := context.Background()

	// A previous partial run left a checkpoint behind.
	window := synctrack.RecommendedRange(synctrack.DataTypeProducts)
	if err := svc.Checkpoints.Save(ctx, 1, synctrack.DataTypeProducts, "c2", 2, window); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	result, err := svc.Run(ctx, models.Store{ID: 1}, synctrack.DataTypeProducts, nil, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Resumed || !result.Completed {
		t.Fatalf("result = %+v, want resumed completed run", result)
	}
	if len(fetcher.cursors) == 0 || fetcher.cursors[0] != "c2" {
		t.Fatalf("first fetch cursor = %v, want c2", fetcher.cursors)
	}
	if result.Processed != 3 {
		t.Fatalf("processed = %d, want 2 carried + 1 new", result.Processed)
	}
}

func TestImportRunForceStartsFresh(t *testing.T) {
	repo := newStubRepo()
	fetcher := &stubFetcher{pages: map[string]*shopify.ProductPage{
		"": {Items: productDTOs("1"), NextCursor: "", TotalCount: 1},
	}}
	svc := newImportService(repo, fetcher)
	ctx := context.Background()

	window := synctrack.RecommendedRange(synctrack.DataTypeProducts)
	if err := svc.Checkpoints.Save(ctx, 1, synctrack.DataTypeProducts, "c2", 2, window); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	result, err := svc.Run(ctx, models.Store{ID: 1}, synctrack.DataTypeProducts, nil, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Resumed {
		t.Fatal("forced run resumed from checkpoint")
	}
	if fetcher.cursors[0] != "" {
		t.Fatalf("forced run fetched from cursor %q, want start", fetcher.cursors[0])
	}
}

func TestImportRunMaxPagesLeavesResumePoint(t *testing.T) {
	repo := newStubRepo()
	fetcher := &stubFetcher{pages: map[string]*shopify.ProductPage{
		"":   {Items: productDTOs("1", "2"), NextCursor: "c2", TotalCount: 4},
		"c2": {Items: productDTOs("3", "4"), NextCursor: "", TotalCount: 4},
	}}
	svc := newImportService(repo, fetcher)
	svc.Config.MaxPages = 1
	ctx := context.Background()

	result, err := svc.Run(ctx, models.Store{ID: 1}, synctrack.DataTypeProducts, nil, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed {
		t.Fatal("capped run reported full completion")
	}
	if result.Pages != 1 || result.Processed != 2 {
		t.Fatalf("result = %+v", result)
	}

	cp, _ := repo.GetCheckpoint(ctx, 1, synctrack.DataTypeProducts)
	if cp == nil || cp.LastCursor != "c2" {
		t.Fatalf("checkpoint = %+v, want resume point at c2", cp)
	}
}

func TestImportRunFetchFailureFailsRun(t *testing.T) {
	repo := newStubRepo()
	fetcher := &stubFetcher{
		pages: map[string]*shopify.ProductPage{
			"": {Items: productDTOs("1"), NextCursor: "c2", TotalCount: 5},
		},
		fetchErr:  errors.New("rate limited"),
		failAfter: 1,
	}
	svc := newImportService(repo, fetcher)
	ctx := context.Background()

	result, err := svc.Run(ctx, models.Store{ID: 1}, synctrack.DataTypeProducts, nil, false)
	if err == nil {
		t.Fatal("expected fetch error to surface")
	}

	run, _ := repo.GetSyncRunByID(ctx, result.RunID)
	if run.Status != models.RunStatusFailed {
		t.Fatalf("run status = %s, want Failed", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Fatal("failed run missing error message")
	}
	// The first page's checkpoint remains so a retry can resume.
	cp, _ := repo.GetCheckpoint(ctx, 1, synctrack.DataTypeProducts)
	if cp == nil || cp.LastCursor != "c2" {
		t.Fatalf("checkpoint = %+v, want resume point at c2", cp)
	}
}

func TestImportRunCountsBadRowsAsFailed(t *testing.T) {
	repo := newStubRepo()
	items := productDTOs("1", "2")
	items = append(items, shopify.ProductDTO{Title: "no external id"})
	fetcher := &stubFetcher{pages: map[string]*shopify.ProductPage{
		"": {Items: items, NextCursor: "", TotalCount: 3},
	}}
	svc := newImportService(repo, fetcher)

	result, err := svc.Run(context.Background(), models.Store{ID: 1}, synctrack.DataTypeProducts, nil, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
	if len(repo.products) != 2 {
		t.Fatalf("persisted products = %d, want 2", len(repo.products))
	}
}

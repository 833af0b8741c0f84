package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"

	"moviescout/internal/domain"
)

// testMongoURI returns the MongoDB connection URI for integration tests.
// Defaults to localhost:27017. Set MONGO_TEST_URI to override.
func testMongoURI() string {
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// setupTestRepo connects to MongoDB and returns a SearchRepository using a
// unique test database. The cleanup function drops the database and
// disconnects. Calls t.Skip if MongoDB is unreachable.
func setupTestRepo(t *testing.T) (*SearchRepository, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uri := testMongoURI()
	client, err := Connect(ctx, uri, options.Client().SetConnectTimeout(3*time.Second))
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB ping failed at %s: %v", uri, err)
	}

	dbName := fmt.Sprintf("moviescout_test_%d", time.Now().UnixNano())
	repo := NewSearchRepository(client, dbName, "searches")

	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		t.Fatalf("EnsureIndexes: %v", err)
	}

	cleanup := func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = client.Database(dbName).Drop(ctx2)
		_ = client.Disconnect(ctx2)
	}
	return repo, cleanup
}

func makeRecord(term string, count int64) domain.SearchRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.SearchRecord{
		Term:      term,
		Count:     count,
		MovieID:   42,
		PosterURL: "https://image.tmdb.org/t/p/w500/poster.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFindByTerm_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindByTerm(context.Background(), "never searched")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertAndFindByTerm(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Insert(ctx, makeRecord("inception", 1))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	got, err := repo.FindByTerm(ctx, "inception")
	if err != nil {
		t.Fatalf("FindByTerm: %v", err)
	}
	if got.ID != id {
		t.Errorf("id: got %s, want %s", got.ID, id)
	}
	if got.Term != "inception" || got.Count != 1 || got.MovieID != 42 {
		t.Errorf("unexpected record: %#v", got)
	}
}

func TestIncrementCount(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.Insert(ctx, makeRecord("dune", 1))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := repo.IncrementCount(ctx, id); err != nil {
		t.Fatalf("IncrementCount: %v", err)
	}
	if err := repo.IncrementCount(ctx, id); err != nil {
		t.Fatalf("IncrementCount (second): %v", err)
	}

	got, err := repo.FindByTerm(ctx, "dune")
	if err != nil {
		t.Fatalf("FindByTerm: %v", err)
	}
	if got.Count != 3 {
		t.Errorf("count: got %d, want 3", got.Count)
	}
}

func TestIncrementCount_MissingRecord(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.IncrementCount(context.Background(), "64f000000000000000000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err = repo.IncrementCount(context.Background(), "not-a-hex-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestTopByCount_OrderAndLimit(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	counts := map[string]int64{
		"alpha": 1, "bravo": 5, "charlie": 3,
		"delta": 2, "echo": 4, "foxtrot": 9,
	}
	for term, count := range counts {
		if _, err := repo.Insert(ctx, makeRecord(term, count)); err != nil {
			t.Fatalf("Insert %s: %v", term, err)
		}
	}

	top, err := repo.TopByCount(ctx, 5)
	if err != nil {
		t.Fatalf("TopByCount: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("expected 5 records, got %d", len(top))
	}
	wantCounts := []int64{9, 5, 4, 3, 2}
	for i, want := range wantCounts {
		if top[i].Count != want {
			t.Errorf("position %d: got count %d, want %d", i, top[i].Count, want)
		}
	}
	for _, rec := range top {
		if rec.Term == "alpha" {
			t.Error("lowest-count term should not appear in top 5")
		}
	}
}

func TestTopByCount_EmptyCollection(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	top, err := repo.TopByCount(context.Background(), 5)
	if err != nil {
		t.Fatalf("TopByCount: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty result, got %d", len(top))
	}
}

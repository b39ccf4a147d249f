package cache

import (
	"context"
	"testing"
	"time"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return New(db, 10*time.Minute, 2*time.Hour)
}

func record(tokenID string, age time.Duration) models.PriceRecord {
	return models.PriceRecord{
		TokenID:              tokenID,
		USDPrice:             testutil.FloatPtr(100),
		NGNPrice:             testutil.FloatPtr(150050),
		NGNPriceBeforeMargin: testutil.FloatPtr(150000),
		Source:               models.SourceCoinGecko,
		LastUpdated:          time.Now().UTC().Add(-age),
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.PriceRecord{record("bitcoin", 0), record("ethereum", 0)}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	found, missing := s.Get([]string{"bitcoin", "ethereum", "solana"})
	if len(found) != 2 {
		t.Errorf("expected 2 hits, got %d", len(found))
	}
	if len(missing) != 1 || missing[0] != "solana" {
		t.Errorf("missing = %v, want [solana]", missing)
	}
}

func TestStore_UpsertReplacesWholeRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := record("bitcoin", time.Hour)
	if err := s.Upsert(ctx, []models.PriceRecord{first}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// The replacement has no USD side; it must not inherit the old one.
	second := models.PriceRecord{
		TokenID:              "bitcoin",
		NGNPrice:             testutil.FloatPtr(160050),
		NGNPriceBeforeMargin: testutil.FloatPtr(160000),
		Source:               models.SourceBinance,
		LastUpdated:          time.Now().UTC(),
	}
	if err := s.Upsert(ctx, []models.PriceRecord{second}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	found, _ := s.Get([]string{"bitcoin"})
	got := found["bitcoin"]
	if got.USDPrice != nil {
		t.Errorf("USD = %v, want nil after whole-record replacement", got.USDPrice)
	}
	if got.Source != models.SourceBinance {
		t.Errorf("source = %q, want binance", got.Source)
	}

	rows, err := s.ReadDurable(ctx, []string{"bitcoin"})
	if err != nil {
		t.Fatalf("durable read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 durable row, got %d", len(rows))
	}
	if rows[0].Source != models.SourceBinance {
		t.Errorf("durable source = %q, want binance", rows[0].Source)
	}
}

func TestStore_LoadSeedsMemory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	testutil.CreateTestPriceRecord(t, db, "bitcoin", 30*time.Minute)
	testutil.CreateTestPriceRecord(t, db, "ethereum", time.Hour)

	s := New(db, 10*time.Minute, 2*time.Hour)
	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2", loaded)
	}

	found, missing := s.Get([]string{"bitcoin", "ethereum"})
	if len(found) != 2 || len(missing) != 0 {
		t.Errorf("expected both records in memory, got %d found %d missing", len(found), len(missing))
	}
}

func TestStore_PromoteRespectsNewerMemory(t *testing.T) {
	s := newTestStore(t)

	newer := record("bitcoin", 0)
	s.Promote([]models.PriceRecord{newer})

	older := record("bitcoin", time.Hour)
	older.Source = models.SourceDefault
	s.Promote([]models.PriceRecord{older})

	found, _ := s.Get([]string{"bitcoin"})
	if found["bitcoin"].Source != models.SourceCoinGecko {
		t.Error("promotion must not replace a newer in-memory record")
	}
}

func TestStore_PromoteFillsGaps(t *testing.T) {
	s := newTestStore(t)

	s.Promote([]models.PriceRecord{record("solana", time.Hour)})
	found, missing := s.Get([]string{"solana"})
	if len(found) != 1 || len(missing) != 0 {
		t.Errorf("expected promoted record in memory, got %d found %d missing", len(found), len(missing))
	}
}

func TestStore_Classify(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	tests := []struct {
		age  time.Duration
		want Freshness
	}{
		{time.Minute, Fresh},
		{9 * time.Minute, Fresh},
		{10 * time.Minute, UsableStale},
		{time.Hour, UsableStale},
		{2 * time.Hour, Expired},
		{24 * time.Hour, Expired},
	}
	for _, tt := range tests {
		got := s.Classify(record("bitcoin", tt.age), now)
		if got != tt.want {
			t.Errorf("age %v: classified %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestFreshness_String(t *testing.T) {
	if Fresh.String() != "fresh" || UsableStale.String() != "usable_stale" || Expired.String() != "expired" {
		t.Error("unexpected freshness names")
	}
}

func TestStore_Snapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if got := s.Snapshot(); got.TokenCount != 0 {
		t.Errorf("empty snapshot token count = %d, want 0", got.TokenCount)
	}

	old := record("bitcoin", 2*time.Hour)
	fresh := record("ethereum", 0)
	if err := s.Upsert(ctx, []models.PriceRecord{old, fresh}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	stats := s.Snapshot()
	if stats.TokenCount != 2 {
		t.Errorf("token count = %d, want 2", stats.TokenCount)
	}
	if !stats.OldestEntry.Equal(old.LastUpdated) {
		t.Errorf("oldest = %v, want %v", stats.OldestEntry, old.LastUpdated)
	}
	if !stats.NewestEntry.Equal(fresh.LastUpdated) {
		t.Errorf("newest = %v, want %v", stats.NewestEntry, fresh.LastUpdated)
	}
}

package evidence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"llmobs-hq/copilot/pkg/config"
	"llmobs-hq/copilot/pkg/costs"
	"llmobs-hq/copilot/pkg/guardrail"
	"llmobs-hq/copilot/pkg/quality"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.EvidenceConfig{
		Path: filepath.Join(t.TempDir(), "evaluations.db"),
	}
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(requestID string, createdAt time.Time) *Record {
	r := NewRecord(
		requestID,
		"gpt-4o",
		true,
		guardrail.Verdict{CatalogueVersion: "2025-06-01"},
		costs.Estimate{PromptCost: 1_250, CompletionCost: 5_000, TotalCost: 6_250, Model: "gpt-4o"},
		quality.Scores{
			HallucinationRisk: 0.15,
			PerformanceScore:  0.9,
			ResponseQuality:   1.0,
			CompositeHealth:   88.75,
		},
		120, 450, 1400*time.Millisecond, "",
	)
	r.CreatedAt = createdAt
	return r
}

func TestStore_InsertAndRecent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		rec := sampleRecord("req-"+string(rune('a'+i)), now.Add(time.Duration(i)*time.Second))
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(records))
	}
	if records[0].RequestID != "req-c" {
		t.Errorf("newest record = %q, want req-c", records[0].RequestID)
	}

	got := records[0]
	if got.TotalCostMicro != 6_250 {
		t.Errorf("TotalCostMicro = %d, want 6250 exact", got.TotalCostMicro)
	}
	if got.CompositeHealth != 88.75 {
		t.Errorf("CompositeHealth = %v, want 88.75", got.CompositeHealth)
	}
	if got.CatalogueVersion != "2025-06-01" {
		t.Errorf("CatalogueVersion = %q, want 2025-06-01", got.CatalogueVersion)
	}
	if got.LatencyMs != 1400 {
		t.Errorf("LatencyMs = %d, want 1400", got.LatencyMs)
	}
}

func TestStore_BlockedRecord(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := NewRecord(
		"req-blocked",
		"gpt-4o",
		true,
		guardrail.Verdict{
			Blocked:          true,
			Category:         guardrail.CategorySystemPromptTheft,
			MatchedPattern:   "what are your instructions",
			CatalogueVersion: "2025-06-01",
		},
		costs.Estimate{},
		quality.Scores{HallucinationRisk: 0, AbuseDetected: 1},
		8, 0, 12*time.Millisecond, "",
	)
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	records, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	got := records[0]
	if !got.Blocked {
		t.Error("Blocked = false, want true")
	}
	if got.Category != string(guardrail.CategorySystemPromptTheft) {
		t.Errorf("Category = %q, want system_prompt_theft", got.Category)
	}
	if got.AbuseDetected != 1 {
		t.Errorf("AbuseDetected = %v, want 1", got.AbuseDetected)
	}
	if got.TotalCostMicro != 0 {
		t.Errorf("TotalCostMicro = %d, want 0 for a blocked exchange", got.TotalCostMicro)
	}
}

func TestPruner_AgeRetention(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Insert(ctx, sampleRecord("req-old", now.AddDate(0, 0, -45))); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Insert(ctx, sampleRecord("req-new", now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	pruner := NewPruner(store, &config.EvidenceConfig{RetentionDays: 30})
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d, want 1", deleted)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d after pruning, want 1", count)
	}
}

func TestPruner_RecordCap(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		rec := sampleRecord("req", now.Add(time.Duration(i)*time.Second))
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	pruner := NewPruner(store, &config.EvidenceConfig{MaxRecords: 4})
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 6 {
		t.Errorf("Prune() deleted %d, want 6", deleted)
	}

	records, err := store.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("kept %d records, want 4", len(records))
	}
	// The newest records survive.
	if !records[0].CreatedAt.After(records[3].CreatedAt) {
		t.Error("records not ordered newest first")
	}
}

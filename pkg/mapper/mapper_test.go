package mapper

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/datadna/etl-mapper/pkg/match"
	"github.com/datadna/etl-mapper/pkg/model"
)

type fakeSamples struct {
	mu          sync.Mutex
	columns     map[string][]model.ColumnRef
	samples     map[string][]string
	failing     map[string]bool
	listErr     error
	sampleCalls int
}

func (f *fakeSamples) ListColumns(_ context.Context, schema string) ([]model.ColumnRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.columns[schema], nil
}

func (f *fakeSamples) SampleColumn(_ context.Context, schema, table, column string, _ int) ([]string, error) {
	f.mu.Lock()
	f.sampleCalls++
	f.mu.Unlock()

	key := schema + "." + table + "." + column
	if f.failing[key] {
		return nil, errors.New("sampling blew up")
	}
	return f.samples[key], nil
}

type fakeStore struct {
	mu         sync.Mutex
	signatures map[string][]model.ColumnDescriptor
	mappings   map[string][]model.MatchResult
	sigSaves   int
	mapSaves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		signatures: make(map[string][]model.ColumnDescriptor),
		mappings:   make(map[string][]model.MatchResult),
	}
}

func (f *fakeStore) GetSignatures(_ context.Context, schema string) ([]model.ColumnDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signatures[schema], nil
}

func (f *fakeStore) SaveSignatures(_ context.Context, schema string, descriptors []model.ColumnDescriptor, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signatures[schema] = descriptors
	f.sigSaves++
	return nil
}

func (f *fakeStore) GetMappings(_ context.Context, srcSchema, tgtSchema string) ([]model.MatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mappings[srcSchema+"->"+tgtSchema], nil
}

func (f *fakeStore) SaveMappings(_ context.Context, srcSchema, tgtSchema string, results []model.MatchResult, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappings[srcSchema+"->"+tgtSchema] = results
	f.mapSaves++
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedColumns(_ context.Context, inputs []string) ([][]float64, error) {
	vectors := make([][]float64, len(inputs))
	for i, in := range inputs {
		// Deterministic per-input vector so fingerprints are stable
		vectors[i] = []float64{float64(len(in)), 1}
	}
	return vectors, nil
}

func ref(table, column string) model.ColumnRef {
	return model.ColumnRef{TableName: table, ColumnName: column, DataType: "TEXT"}
}

func sourceFixture() *fakeSamples {
	return &fakeSamples{
		columns: map[string][]model.ColumnRef{
			"RAW": {
				ref("ORDERS", "ORDER_DATE"),
				ref("ORDERS", "AMOUNT"),
				ref("ORDERS", "STATUS"),
			},
			"DW": {
				ref("SHIPMENTS", "SHIP_DT"),
				ref("SHIPMENTS", "CARRIER"),
			},
		},
		samples: map[string][]string{
			"RAW.ORDERS.ORDER_DATE": {"2024-01-01", "2024-02-15", "2024-03-30", "2024-04-04", "2024-05-20"},
			"RAW.ORDERS.AMOUNT":     {"10.50", "99.99", "3.00", "150.25"},
			"RAW.ORDERS.STATUS":     {"OPEN", "CLOSED", "OPEN", "OPEN"},
			"DW.SHIPMENTS.SHIP_DT":  {"2024-06-01", "2024-07-15", "2024-08-30", "2024-09-09"},
			"DW.SHIPMENTS.CARRIER":  {"UPS", "FEDEX", "UPS", "DHL"},
		},
		failing: map[string]bool{},
	}
}

func TestProfileSchemaOrderAndContent(t *testing.T) {
	m := New(sourceFixture(), zaptest.NewLogger(t), WithWorkerCount(3))

	descriptors, err := m.ProfileSchema(context.Background(), "RAW", false, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	// Listing order survives worker interleaving
	assert.Equal(t, "ORDER_DATE", descriptors[0].ColName)
	assert.Equal(t, "AMOUNT", descriptors[1].ColName)
	assert.Equal(t, "STATUS", descriptors[2].ColName)

	assert.Equal(t, model.PatternDateISO, descriptors[0].Profile.Pattern)
	assert.Equal(t, model.PatternNumeric, descriptors[1].Profile.Pattern)
	assert.Equal(t, model.PatternCategorical, descriptors[2].Profile.Pattern)

	for _, d := range descriptors {
		assert.Len(t, d.Code, 64)
		assert.Equal(t, "ORDERS", d.TableName)
	}
}

func TestProfileSchemaFailureIsolation(t *testing.T) {
	samples := sourceFixture()
	samples.failing["RAW.ORDERS.AMOUNT"] = true

	m := New(samples, zaptest.NewLogger(t), WithWorkerCount(2))

	descriptors, err := m.ProfileSchema(context.Background(), "RAW", false, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "ORDER_DATE", descriptors[0].ColName)
	assert.Equal(t, "STATUS", descriptors[1].ColName)
}

func TestProfileSchemaListError(t *testing.T) {
	samples := sourceFixture()
	samples.listErr = errors.New("warehouse is down")

	m := New(samples, zaptest.NewLogger(t))

	_, err := m.ProfileSchema(context.Background(), "RAW", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse is down")
}

func TestProfileSchemaEmptySchema(t *testing.T) {
	m := New(sourceFixture(), zaptest.NewLogger(t))

	descriptors, err := m.ProfileSchema(context.Background(), "NOSUCH", false, nil)
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestProfileSchemaCacheHit(t *testing.T) {
	samples := sourceFixture()
	store := newFakeStore()
	store.signatures["RAW"] = []model.ColumnDescriptor{
		{TableName: "ORDERS", ColName: "ORDER_DATE", Code: "cached"},
	}

	m := New(samples, zaptest.NewLogger(t), WithStore(store))

	descriptors, err := m.ProfileSchema(context.Background(), "RAW", true, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "cached", descriptors[0].Code)
	assert.Equal(t, 0, samples.sampleCalls)
}

func TestProfileSchemaCacheBypass(t *testing.T) {
	samples := sourceFixture()
	store := newFakeStore()
	store.signatures["RAW"] = []model.ColumnDescriptor{
		{TableName: "ORDERS", ColName: "ORDER_DATE", Code: "cached"},
	}

	m := New(samples, zaptest.NewLogger(t), WithStore(store))

	descriptors, err := m.ProfileSchema(context.Background(), "RAW", false, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)
	assert.Equal(t, 3, samples.sampleCalls)
	assert.Equal(t, 1, store.sigSaves)
}

func TestProfileSchemaProgress(t *testing.T) {
	var mu sync.Mutex
	var ticks []int
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, done)
		assert.Equal(t, 3, total)
	}

	m := New(sourceFixture(), zaptest.NewLogger(t), WithWorkerCount(2))

	_, err := m.ProfileSchema(context.Background(), "RAW", false, progress)
	require.NoError(t, err)

	require.Len(t, ticks, 3)
	assert.Equal(t, 3, ticks[len(ticks)-1])
}

func TestProfileSchemaEmbeddings(t *testing.T) {
	m := New(sourceFixture(), zaptest.NewLogger(t), WithEmbedder(fakeEmbedder{}))

	descriptors, err := m.ProfileSchema(context.Background(), "RAW", false, nil)
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	plain := New(sourceFixture(), zaptest.NewLogger(t))
	bare, err := plain.ProfileSchema(context.Background(), "RAW", false, nil)
	require.NoError(t, err)

	for i, d := range descriptors {
		require.Len(t, d.Embedding, 2)
		assert.Equal(t, 2, d.Profile.EmbeddingLen)
		// The embedding digest folds into the fingerprint
		assert.NotEqual(t, bare[i].Code, d.Code)
	}
}

func TestProfileSchemaCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(sourceFixture(), zaptest.NewLogger(t), WithWorkerCount(1))

	_, err := m.ProfileSchema(ctx, "RAW", false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchSchemasEndToEnd(t *testing.T) {
	store := newFakeStore()
	m := New(sourceFixture(), zaptest.NewLogger(t), WithStore(store), WithWorkerCount(2))

	results, err := m.MatchSchemas(context.Background(), "RAW", "DW", false, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byColumn := make(map[string]model.MatchResult, len(results))
	for _, r := range results {
		byColumn[r.SourceColumn] = r
	}

	// Two date columns with overlapping statistics but different samples
	date := byColumn["ORDER_DATE"]
	assert.Equal(t, "SHIP_DT", date.TargetColumn)
	assert.Equal(t, match.ReasonScored, date.Breakdown.Reason)
	assert.Greater(t, date.Score, 0.7)

	// Nothing in the target schema is numeric
	amount := byColumn["AMOUNT"]
	assert.False(t, amount.Matched())
	assert.Equal(t, 0.0, amount.Score)

	status := byColumn["STATUS"]
	assert.Equal(t, "CARRIER", status.TargetColumn)

	assert.Equal(t, 1, store.mapSaves)
	assert.Len(t, store.mappings["RAW->DW"], 3)
}

func TestMatchSchemasMappingCache(t *testing.T) {
	samples := sourceFixture()
	store := newFakeStore()
	store.mappings["RAW->DW"] = []model.MatchResult{
		{SourceTable: "ORDERS", SourceColumn: "ORDER_DATE", TargetTable: "SHIPMENTS", TargetColumn: "SHIP_DT", Score: 0.9},
	}

	m := New(samples, zaptest.NewLogger(t), WithStore(store))

	results, err := m.MatchSchemas(context.Background(), "RAW", "DW", true, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, 0, samples.sampleCalls)
}

func TestMatchSchemasResultsInSourceOrder(t *testing.T) {
	m := New(sourceFixture(), zaptest.NewLogger(t), WithWorkerCount(4))

	for i := 0; i < 5; i++ {
		results, err := m.MatchSchemas(context.Background(), "RAW", "DW", false, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "ORDER_DATE", results[0].SourceColumn)
		assert.Equal(t, "AMOUNT", results[1].SourceColumn)
		assert.Equal(t, "STATUS", results[2].SourceColumn)
	}
}

func TestSortResults(t *testing.T) {
	results := []model.MatchResult{
		{SourceTable: "T", SourceColumn: "B", Score: 0.5},
		{SourceTable: "T", SourceColumn: "C", Score: 0.9},
		{SourceTable: "T", SourceColumn: "A", Score: 0.5},
	}

	SortResults(results)

	assert.Equal(t, "C", results[0].SourceColumn)
	assert.Equal(t, "A", results[1].SourceColumn)
	assert.Equal(t, "B", results[2].SourceColumn)
}

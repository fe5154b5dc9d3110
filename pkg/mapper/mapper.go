// Package mapper orchestrates the end-to-end mapping flow: sample and
// profile every column of the source and target schemas, then propose the
// best target for each source column. Profiling and matching both fan out
// over a worker pool; the core scoring stays pure and cache-agnostic, with
// cached signatures and mappings consulted only here.
package mapper

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/embed"
	"github.com/datadna/etl-mapper/pkg/match"
	"github.com/datadna/etl-mapper/pkg/model"
	"github.com/datadna/etl-mapper/pkg/profile"
)

// SampleProvider lists the columns of a schema and draws value samples
type SampleProvider interface {
	ListColumns(ctx context.Context, schema string) ([]model.ColumnRef, error)
	SampleColumn(ctx context.Context, schema, table, column string, limit int) ([]string, error)
}

// ResultStore caches signatures and mapping runs between executions
type ResultStore interface {
	GetSignatures(ctx context.Context, schemaName string) ([]model.ColumnDescriptor, error)
	SaveSignatures(ctx context.Context, schemaName string, descriptors []model.ColumnDescriptor, createdBy string) error
	GetMappings(ctx context.Context, srcSchema, tgtSchema string) ([]model.MatchResult, error)
	SaveMappings(ctx context.Context, srcSchema, tgtSchema string, results []model.MatchResult, createdBy string) error
}

// Progress receives completion ticks from long-running phases
type Progress func(done, total int)

// Mapper wires the sample provider, the profiling/matching core, the
// optional embedding provider and the result store together.
type Mapper struct {
	samples    SampleProvider
	store      ResultStore    // may be nil: caching and persistence disabled
	embedder   embed.Provider // may be nil: embedding signal disabled
	selector   *match.Selector
	logger     *zap.Logger
	workers    int
	sampleSize int
	createdBy  string
}

// Option configures a Mapper
type Option func(*Mapper)

// WithStore enables signature/mapping persistence
func WithStore(store ResultStore) Option {
	return func(m *Mapper) { m.store = store }
}

// WithEmbedder enables the embedding signal
func WithEmbedder(p embed.Provider) Option {
	return func(m *Mapper) { m.embedder = p }
}

// WithWorkerCount overrides the worker pool size (0 = NumCPU)
func WithWorkerCount(n int) Option {
	return func(m *Mapper) { m.workers = n }
}

// WithSampleSize overrides how many values are sampled per column
func WithSampleSize(n int) Option {
	return func(m *Mapper) { m.sampleSize = n }
}

// WithCreatedBy tags persisted rows with an author
func WithCreatedBy(name string) Option {
	return func(m *Mapper) { m.createdBy = name }
}

// New creates a Mapper with the default weight policy
func New(samples SampleProvider, logger *zap.Logger, opts ...Option) *Mapper {
	m := &Mapper{
		samples:    samples,
		selector:   match.NewSelector(match.NewScorer(match.DefaultWeightPolicy()), logger),
		logger:     logger.Named("mapper"),
		sampleSize: 500,
		createdBy:  "ETL_MAPPER",
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers <= 0 {
		m.workers = runtime.NumCPU()
	}
	return m
}

// ProfileSchema produces a descriptor for every column of a schema. When
// useCache is set and the store holds signatures for the schema, they are
// returned without touching the warehouse. Individual column failures are
// logged and skipped; only listing failures abort the run.
func (m *Mapper) ProfileSchema(ctx context.Context, schema string, useCache bool, progress Progress) ([]model.ColumnDescriptor, error) {
	metrics := NewRunMetrics()

	if useCache && m.store != nil {
		cached, err := m.store.GetSignatures(ctx, schema)
		if err != nil {
			m.logger.Warn("Signature cache lookup failed, re-profiling",
				zap.String("schema", schema), zap.Error(err))
		} else if len(cached) > 0 {
			m.logger.Info("Using cached column signatures",
				zap.String("schema", schema), zap.Int("columns", len(cached)))
			metrics.RecordCacheHit(len(cached))
			metrics.Finish()
			metrics.LogSummary(m.logger, "profile:"+schema)
			return cached, nil
		}
	}

	cols, err := m.samples.ListColumns(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for schema %s: %w", schema, err)
	}
	if len(cols) == 0 {
		m.logger.Warn("Schema has no columns", zap.String("schema", schema))
		return nil, nil
	}

	m.logger.Info("Profiling schema",
		zap.String("schema", schema),
		zap.Int("columns", len(cols)),
		zap.Int("workers", m.workers))

	jobs := make(chan ProfileJob, len(cols))
	outcomes := make(chan ProfileOutcome, len(cols))

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			m.profileWorker(ctx, id, jobs, outcomes)
		}(i)
	}

	for i, ref := range cols {
		jobs <- NewProfileJob(schema, ref, i)
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	slots := make([]*model.ColumnDescriptor, len(cols))
	done := 0
	for outcome := range outcomes {
		done++
		if progress != nil {
			progress(done, len(cols))
		}
		if outcome.Err != nil {
			ref := cols[outcome.Index]
			metrics.RecordFailure(ref.FullName(), outcome.Err)
			m.logger.Warn("Column profiling failed, skipping",
				zap.String("schema", schema),
				zap.String("column", ref.FullName()),
				zap.Error(outcome.Err))
			continue
		}
		d := outcome.Descriptor
		slots[outcome.Index] = &d
		metrics.RecordProfiled()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("profiling of schema %s interrupted: %w", schema, err)
	}

	// Preserve listing order regardless of worker interleaving
	descriptors := make([]model.ColumnDescriptor, 0, len(cols))
	for _, slot := range slots {
		if slot != nil {
			descriptors = append(descriptors, *slot)
		}
	}

	if m.embedder != nil {
		if err := m.attachEmbeddings(ctx, descriptors); err != nil {
			m.logger.Warn("Embedding generation failed, continuing without embeddings",
				zap.String("schema", schema), zap.Error(err))
		}
	}

	if m.store != nil {
		if err := m.store.SaveSignatures(ctx, schema, descriptors, m.createdBy); err != nil {
			m.logger.Warn("Failed to persist signatures",
				zap.String("schema", schema), zap.Error(err))
		}
	}

	metrics.Finish()
	metrics.LogSummary(m.logger, "profile:"+schema)

	return descriptors, nil
}

// profileWorker drains the job channel, sampling and profiling one column
// at a time until the channel closes or the context is cancelled.
func (m *Mapper) profileWorker(ctx context.Context, id int, jobs <-chan ProfileJob, outcomes chan<- ProfileOutcome) {
	logger := m.logger.With(zap.Int("workerID", id))

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Profile worker stopping due to context cancellation")
			return

		case job, ok := <-jobs:
			if !ok {
				return
			}

			start := time.Now()
			outcome := ProfileOutcome{JobID: job.ID, Index: job.Index}

			values, err := m.samples.SampleColumn(ctx, job.Schema, job.Ref.TableName, job.Ref.ColumnName, m.sampleSize)
			if err != nil {
				outcome.Err = err
			} else {
				code, p := profile.Column(values, nil)
				outcome.Descriptor = model.ColumnDescriptor{
					TableName: job.Ref.TableName,
					ColName:   job.Ref.ColumnName,
					Code:      code,
					Profile:   p,
				}
			}
			outcome.Duration = time.Since(start)

			select {
			case outcomes <- outcome:
			case <-ctx.Done():
				return
			}
		}
	}
}

// attachEmbeddings adds the embedding vector to each descriptor and
// re-derives fingerprints so the embedding digest participates in
// exact-match detection.
func (m *Mapper) attachEmbeddings(ctx context.Context, descriptors []model.ColumnDescriptor) error {
	if len(descriptors) == 0 {
		return nil
	}

	inputs := make([]string, len(descriptors))
	for i, d := range descriptors {
		inputs[i] = embed.ColumnText(d.TableName, d.ColName, d.Profile)
	}

	vectors, err := m.embedder.EmbedColumns(ctx, inputs)
	if err != nil {
		return err
	}

	for i := range descriptors {
		descriptors[i].Embedding = vectors[i]
		descriptors[i].Code = profile.Fingerprint(descriptors[i].Profile, vectors[i])
		descriptors[i].Profile.EmbeddingLen = len(vectors[i])
	}

	return nil
}

// MatchSchemas profiles both schemas and proposes the best target column
// for every source column. Matching fans out per source column; results
// come back in source order so runs are reproducible.
func (m *Mapper) MatchSchemas(ctx context.Context, srcSchema, tgtSchema string, useCache bool, progress Progress) ([]model.MatchResult, error) {
	if useCache && m.store != nil {
		cached, err := m.store.GetMappings(ctx, srcSchema, tgtSchema)
		if err != nil {
			m.logger.Warn("Mapping cache lookup failed, re-matching", zap.Error(err))
		} else if len(cached) > 0 {
			m.logger.Info("Using cached mapping results",
				zap.String("src_schema", srcSchema),
				zap.String("tgt_schema", tgtSchema),
				zap.Int("results", len(cached)))
			return cached, nil
		}
	}

	sources, err := m.ProfileSchema(ctx, srcSchema, useCache, nil)
	if err != nil {
		return nil, err
	}
	targets, err := m.ProfileSchema(ctx, tgtSchema, useCache, nil)
	if err != nil {
		return nil, err
	}

	results := m.matchDescriptors(ctx, sources, targets, progress)

	if m.store != nil {
		if err := m.store.SaveMappings(ctx, srcSchema, tgtSchema, results, m.createdBy); err != nil {
			m.logger.Warn("Failed to persist mapping results", zap.Error(err))
		}
	}

	return results, nil
}

// matchDescriptors runs best-match selection for each source concurrently.
// Each source column's scan is itself sequential with a deterministic
// tie-break, so the fan-out never affects the outcome.
func (m *Mapper) matchDescriptors(ctx context.Context, sources, targets []model.ColumnDescriptor, progress Progress) []model.MatchResult {
	metrics := NewRunMetrics()

	m.logger.Info("Matching columns",
		zap.Int("source_columns", len(sources)),
		zap.Int("target_columns", len(targets)),
		zap.Int("workers", m.workers))

	jobs := make(chan matchJob, len(sources))
	results := make([]model.MatchResult, len(sources))

	var done int
	var progressMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				result := m.selector.BestMatch(job.src, targets)
				results[job.index] = result
				metrics.RecordMatch(result.Matched(), result.Breakdown.Reason)

				if progress != nil {
					progressMu.Lock()
					done++
					progress(done, len(sources))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i, src := range sources {
		jobs <- matchJob{index: i, src: src}
	}
	close(jobs)
	wg.Wait()

	metrics.Finish()
	metrics.LogSummary(m.logger, "match")

	return results
}

// SortResults orders results by descending score, then source column name.
// Used for reporting; persisted order is source-listing order.
func SortResults(results []model.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SourceTable+"."+results[i].SourceColumn <
			results[j].SourceTable+"."+results[j].SourceColumn
	})
}

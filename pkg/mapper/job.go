package mapper

import (
	"time"

	"github.com/google/uuid"

	"github.com/datadna/etl-mapper/pkg/model"
)

// ProfileJob is one column to sample and profile
type ProfileJob struct {
	ID        string    // Unique job identifier
	Schema    string    // Schema being profiled
	Ref       model.ColumnRef
	Index     int       // Position in the column listing
	CreatedAt time.Time // Job creation timestamp
}

// NewProfileJob creates a profiling job for one column
func NewProfileJob(schema string, ref model.ColumnRef, index int) ProfileJob {
	return ProfileJob{
		ID:        uuid.New().String(),
		Schema:    schema,
		Ref:       ref,
		Index:     index,
		CreatedAt: time.Now(),
	}
}

// ProfileOutcome is the result of one profiling job. Err is set when the
// column could not be sampled or profiled; the rest of the batch proceeds.
type ProfileOutcome struct {
	JobID      string
	Index      int
	Descriptor model.ColumnDescriptor
	Duration   time.Duration
	Err        error
}

// matchJob pairs one source descriptor with its result slot
type matchJob struct {
	index int
	src   model.ColumnDescriptor
}

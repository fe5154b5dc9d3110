// pkg/model/descriptor.go
package model

import "strings"

// ColumnRef identifies a column within a schema, as listed from the
// warehouse's information_schema.
type ColumnRef struct {
	TableName  string
	ColumnName string
	DataType   string // warehouse-reported type, informational only
}

// FullName returns the qualified table.column name
func (r ColumnRef) FullName() string {
	return r.TableName + "." + r.ColumnName
}

// ColumnDescriptor binds a profiled column to its fingerprint and optional
// embedding. Created once per profiling pass and immutable thereafter;
// the matcher shares descriptors by reference.
type ColumnDescriptor struct {
	TableName string
	ColName   string
	Code      string // fingerprint: sha256 over the canonical profile serialization
	Profile   ColumnProfile
	Embedding []float64 // optional, nil when no embedding provider is configured
}

// Key returns a deterministic sort key for tie-breaking between candidate
// columns with equal scores. Lowercased so ordering is case-insensitive.
func (d ColumnDescriptor) Key() string {
	return strings.ToLower(d.TableName) + "." + strings.ToLower(d.ColName)
}

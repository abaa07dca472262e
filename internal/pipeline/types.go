package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"
)

// TableName identifies one of the input tables a pipeline needs.
type TableName string

const (
	TableSales     TableName = "sales"
	TablePolicy    TableName = "policy"
	TableLimits    TableName = "limits"
	TableOverrides TableName = "overrides"
)

// ErrMissingTable is returned when one of the required input tables was not supplied.
var ErrMissingTable = errors.New("missing input table")

// RequiredTables lists every table that must be present before a run starts.
var RequiredTables = []TableName{TableSales, TablePolicy, TableLimits, TableOverrides}

// Inputs maps each table to a local file path.
type Inputs map[TableName]string

// Missing returns the required tables that have no path, in RequiredTables order.
func (in Inputs) Missing() []TableName {
	var missing []TableName
	for _, t := range RequiredTables {
		if in[t] == "" {
			missing = append(missing, t)
		}
	}
	return missing
}

// Pipeline defines the interface that all data pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Validate checks that every input is present and readable
	Validate(inputs Inputs) error

	// Transform loads the inputs and computes the output table
	Transform(ctx context.Context, inputs Inputs) (Output, error)
}

// Output is a computed table that can be exported.
type Output interface {
	Rows() int
	Warnings() []string
	WriteCSV(w io.Writer) error
	WriteXLSX(w io.Writer) error
}

// Source resolves the input tables into local files under downloadDir.
type Source interface {
	Name() string
	Fetch(ctx context.Context, downloadDir string) (Inputs, error)
}

// Sink receives exported files.
type Sink interface {
	Name() string
	// Put stores data under name and returns where it ended up.
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// PipelineConfig holds configuration for a pipeline run
type PipelineConfig struct {
	Name           string
	DownloadDir    string // where remote sources place the input tables
	ResultFileName string // CSV name; the XLSX export shares the stem
	WriteXLSX      bool
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:           name,
		DownloadDir:    filepath.Join("data", "uploads", name),
		ResultFileName: name + ".csv",
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// RunSummary describes one execution of a pipeline
type RunSummary struct {
	ID           string
	PipelineName string
	Source       string
	Status       PipelineStatus
	Rows         int
	Warnings     []string
	Outputs      []string
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// Duration is how long the run took, or zero while it is still running.
func (r *RunSummary) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

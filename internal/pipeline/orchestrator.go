package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/stockmax/pkg/logger"
	"github.com/google/uuid"
)

// Orchestrator coordinates one pipeline run: fetch inputs from a Source, transform,
// then hand the exports to every Sink.
type Orchestrator struct {
	cfg   PipelineConfig
	sinks []Sink
	now   func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg PipelineConfig, sinks ...Sink) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		sinks: sinks,
		now:   time.Now,
	}
}

// Run executes the pipeline once. Nothing is written to any sink unless every input
// table is present and the transform succeeds.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, src Source) (*RunSummary, error) {
	run := &RunSummary{
		ID:           uuid.NewString(),
		PipelineName: p.Name(),
		Source:       src.Name(),
		Status:       StatusPending,
		StartedAt:    o.now(),
	}
	log := logger.Log.With().Str("run_id", run.ID).Str("pipeline", p.Name()).Logger()
	log.Info().Str("source", src.Name()).Msg("starting run")

	fail := func(err error) (*RunSummary, error) {
		now := o.now()
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		run.CompletedAt = &now
		log.Error().Err(err).Msg("run failed")
		return run, err
	}

	inputs, err := src.Fetch(ctx, o.cfg.DownloadDir)
	if err != nil {
		return fail(fmt.Errorf("fetch inputs: %w", err))
	}
	if err := p.Validate(inputs); err != nil {
		return fail(fmt.Errorf("validation failed: %w", err))
	}

	run.Status = StatusProcessing
	out, err := p.Transform(ctx, inputs)
	if err != nil {
		return fail(fmt.Errorf("transformation failed: %w", err))
	}
	run.Rows = out.Rows()
	run.Warnings = out.Warnings()
	for _, w := range run.Warnings {
		log.Warn().Msg(w)
	}

	exports, err := o.export(out)
	if err != nil {
		return fail(err)
	}
	for _, sink := range o.sinks {
		for _, e := range exports {
			loc, err := sink.Put(ctx, e.name, e.data)
			if err != nil {
				return fail(fmt.Errorf("sink %s: %w", sink.Name(), err))
			}
			run.Outputs = append(run.Outputs, loc)
			log.Info().Str("sink", sink.Name()).Str("location", loc).Msg("export written")
		}
	}

	now := o.now()
	run.Status = StatusCompleted
	run.CompletedAt = &now
	log.Info().
		Int("rows", run.Rows).
		Int("warnings", len(run.Warnings)).
		Dur("duration", run.Duration()).
		Msg("run completed")
	return run, nil
}

type export struct {
	name string
	data []byte
}

func (o *Orchestrator) export(out Output) ([]export, error) {
	name := o.cfg.ResultFileName
	if name == "" {
		name = o.cfg.Name + ".csv"
	}

	var csvBuf bytes.Buffer
	if err := out.WriteCSV(&csvBuf); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	exports := []export{{name: name, data: csvBuf.Bytes()}}

	if o.cfg.WriteXLSX {
		var xlsxBuf bytes.Buffer
		if err := out.WriteXLSX(&xlsxBuf); err != nil {
			return nil, fmt.Errorf("failed to write XLSX: %w", err)
		}
		xlsxName := strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
		exports = append(exports, export{name: xlsxName, data: xlsxBuf.Bytes()})
	}
	return exports, nil
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type fakeOutput struct{}

func (fakeOutput) Rows() int          { return 2 }
func (fakeOutput) Warnings() []string { return []string{"heads up"} }

func (fakeOutput) WriteCSV(w io.Writer) error {
	_, err := io.WriteString(w, "a,b\n1,2\n")
	return err
}

func (fakeOutput) WriteXLSX(w io.Writer) error {
	_, err := io.WriteString(w, "xlsx")
	return err
}

type fakePipeline struct {
	transformErr error
	transformed  bool
}

func (p *fakePipeline) Name() string { return "fake" }

func (p *fakePipeline) Validate(inputs Inputs) error {
	if missing := inputs.Missing(); len(missing) > 0 {
		return ErrMissingTable
	}
	return nil
}

func (p *fakePipeline) Transform(ctx context.Context, inputs Inputs) (Output, error) {
	p.transformed = true
	if p.transformErr != nil {
		return nil, p.transformErr
	}
	return fakeOutput{}, nil
}

func fullInputs() Inputs {
	return Inputs{TableSales: "s", TablePolicy: "p", TableLimits: "l", TableOverrides: "o"}
}

func TestOrchestratorRun(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultPipelineConfig("fake")
	cfg.ResultFileName = "resultado.csv"
	cfg.WriteXLSX = true

	run, err := NewOrchestrator(cfg, &DirSink{Dir: dir}).Run(context.Background(), &fakePipeline{}, &FileSource{Inputs: fullInputs()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Status != StatusCompleted || run.Rows != 2 || len(run.Warnings) != 1 {
		t.Fatalf("unexpected summary %+v", run)
	}
	if run.ID == "" || run.CompletedAt == nil {
		t.Fatalf("summary missing id or completion time: %+v", run)
	}
	if len(run.Outputs) != 2 {
		t.Fatalf("expected CSV and XLSX outputs, got %v", run.Outputs)
	}
	data, err := os.ReadFile(filepath.Join(dir, "resultado.csv"))
	if err != nil || string(data) != "a,b\n1,2\n" {
		t.Fatalf("csv output %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "resultado.xlsx")); err != nil {
		t.Fatalf("xlsx output: %v", err)
	}
}

func TestOrchestratorBlocksOnMissingTable(t *testing.T) {
	dir := t.TempDir()
	p := &fakePipeline{}
	inputs := fullInputs()
	delete(inputs, TablePolicy)

	run, err := NewOrchestrator(DefaultPipelineConfig("fake"), &DirSink{Dir: dir}).Run(context.Background(), p, &FileSource{Inputs: inputs})
	if !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
	if run.Status != StatusFailed || p.transformed {
		t.Fatalf("run should fail before transforming: %+v", run)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be written, found %d files", len(entries))
	}
}

func TestOrchestratorTransformError(t *testing.T) {
	boom := errors.New("boom")
	run, err := NewOrchestrator(DefaultPipelineConfig("fake")).Run(context.Background(), &fakePipeline{transformErr: boom}, &FileSource{Inputs: fullInputs()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if run.ErrorMessage == "" || run.Status != StatusFailed {
		t.Fatalf("unexpected summary %+v", run)
	}
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InputNames maps each table to the file name it is expected under. A name without an
// extension, or with .csv/.xlsx, matches either format.
type InputNames map[TableName]string

// DefaultInputNames are the workbook names the tool has always been fed.
func DefaultInputNames() InputNames {
	return InputNames{
		TableSales:     "vendas.xlsx",
		TablePolicy:    "configuracao.xlsx",
		TableLimits:    "limite.xlsx",
		TableOverrides: "stock_manual.xlsx",
	}
}

// supportedExt reports whether a file can be read as an input table.
func supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

func stem(name string) string {
	base := filepath.Base(name)
	if supportedExt(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ToLower(strings.TrimSpace(base))
}

// MatchInputs picks, for every table, the available file whose name matches. An exact
// (case-insensitive) match wins over a match on the stem alone.
func MatchInputs(available []string, names InputNames) map[TableName]string {
	matched := make(map[TableName]string)
	for table, want := range names {
		wantBase := strings.ToLower(filepath.Base(want))
		wantStem := stem(want)
		for _, name := range available {
			base := strings.ToLower(filepath.Base(name))
			if base == wantBase {
				matched[table] = name
				break
			}
			if supportedExt(name) && stem(name) == wantStem && matched[table] == "" {
				matched[table] = name
			}
		}
	}
	return matched
}

// MissingTablesError lists the tables a source could not provide.
type MissingTablesError struct {
	Source string
	Tables []TableName
}

func (e *MissingTablesError) Error() string {
	names := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		names[i] = string(t)
	}
	return fmt.Sprintf("%s: missing input table(s): %s", e.Source, strings.Join(names, ", "))
}

func (e *MissingTablesError) Unwrap() error { return ErrMissingTable }

// DirSource reads the input tables from a local directory.
type DirSource struct {
	Dir   string
	Names InputNames
}

// NewDirSource creates a DirSource; nil names fall back to DefaultInputNames.
func NewDirSource(dir string, names InputNames) *DirSource {
	if names == nil {
		names = DefaultInputNames()
	}
	return &DirSource{Dir: dir, Names: names}
}

func (s *DirSource) Name() string { return "dir:" + s.Dir }

// Fetch lists the directory and matches the configured names. downloadDir is unused
// because the files are already local.
func (s *DirSource) Fetch(ctx context.Context, _ string) (Inputs, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read input dir %s: %w", s.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	inputs := make(Inputs)
	for table, name := range MatchInputs(names, s.Names) {
		inputs[table] = filepath.Join(s.Dir, name)
	}
	if missing := inputs.Missing(); len(missing) > 0 {
		return inputs, &MissingTablesError{Source: s.Name(), Tables: missing}
	}
	return inputs, nil
}

// FileSource uses explicitly given paths, one per table.
type FileSource struct {
	Inputs Inputs
}

func (s *FileSource) Name() string { return "files" }

func (s *FileSource) Fetch(ctx context.Context, _ string) (Inputs, error) {
	if missing := s.Inputs.Missing(); len(missing) > 0 {
		return s.Inputs, &MissingTablesError{Source: s.Name(), Tables: missing}
	}
	return s.Inputs, nil
}

// DirSink writes exported files into a local directory.
type DirSink struct {
	Dir string
}

func (s *DirSink) Name() string { return "dir:" + s.Dir }

func (s *DirSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

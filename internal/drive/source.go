package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	"github.com/andresuchdata/stockmax/pkg/logger"
)

// Folder is the part of Service the source needs.
type Folder interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// Source pulls the four input workbooks from one Drive folder.
type Source struct {
	folder   Folder
	folderID string
	names    pipeline.InputNames
}

// NewSource creates a Drive source; nil names fall back to the defaults.
func NewSource(folder Folder, folderID string, names pipeline.InputNames) *Source {
	if names == nil {
		names = pipeline.DefaultInputNames()
	}
	return &Source{folder: folder, folderID: folderID, names: names}
}

func (s *Source) Name() string { return "drive:" + s.folderID }

// Fetch matches the folder listing against the input names and downloads only the
// matched files. When several files share a name the most recently modified one wins.
func (s *Source) Fetch(ctx context.Context, downloadDir string) (pipeline.Inputs, error) {
	if downloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}

	files, err := s.folder.ListFiles(ctx, s.folderID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*File, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		if _, seen := byName[f.Name]; seen {
			continue
		}
		byName[f.Name] = f
		names = append(names, f.Name)
	}

	matched := pipeline.MatchInputs(names, s.names)
	inputs := make(pipeline.Inputs, len(matched))
	for table, name := range matched {
		inputs[table] = name
	}
	if missing := inputs.Missing(); len(missing) > 0 {
		return nil, &pipeline.MissingTablesError{Source: s.Name(), Tables: missing}
	}

	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	for table, name := range matched {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		localPath := filepath.Join(downloadDir, filepath.Base(name))
		if err := s.download(ctx, byName[name], localPath); err != nil {
			return nil, err
		}
		logger.Log.Debug().Str("table", string(table)).Str("file", name).Msg("downloaded input from drive")
		inputs[table] = localPath
	}
	return inputs, nil
}

func (s *Source) download(ctx context.Context, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := s.folder.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

var (
	_ pipeline.Source = (*Source)(nil)
	_ Folder          = (*Service)(nil)
)

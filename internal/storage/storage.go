package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockmax/internal/pipeline"
	"github.com/andresuchdata/stockmax/pkg/logger"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the pipeline needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// BucketSource resolves the input tables from objects under a prefix.
type BucketSource struct {
	client ObjectStorage
	bucket string
	prefix string
	names  pipeline.InputNames
}

// NewBucketSource creates a source over client; nil names fall back to the defaults.
func NewBucketSource(client ObjectStorage, bucket, prefix string, names pipeline.InputNames) *BucketSource {
	if names == nil {
		names = pipeline.DefaultInputNames()
	}
	return &BucketSource{client: client, bucket: bucket, prefix: prefix, names: names}
}

func (s *BucketSource) Name() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// Fetch downloads the matched objects into downloadDir. Nothing is downloaded when a
// table has no matching object.
func (s *BucketSource) Fetch(ctx context.Context, downloadDir string) (pipeline.Inputs, error) {
	objects, err := s.client.ListObjects(ctx, strings.TrimSpace(s.prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list objects for prefix %s: %w", s.prefix, err)
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}

	matched := pipeline.MatchInputs(keys, s.names)
	inputs := make(pipeline.Inputs, len(matched))
	for table := range matched {
		inputs[table] = matched[table]
	}
	if missing := inputs.Missing(); len(missing) > 0 {
		return nil, &pipeline.MissingTablesError{Source: s.Name(), Tables: missing}
	}

	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", downloadDir, err)
	}
	for table, key := range matched {
		localPath := filepath.Join(downloadDir, path.Base(key))
		if err := s.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", key, err)
		}
		logger.Log.Debug().Str("table", string(table)).Str("key", key).Str("path", localPath).Msg("downloaded input")
		inputs[table] = localPath
	}
	return inputs, nil
}

// BucketSink uploads exports under a prefix.
type BucketSink struct {
	client ObjectStorage
	bucket string
	prefix string
}

func NewBucketSink(client ObjectStorage, bucket, prefix string) *BucketSink {
	return &BucketSink{client: client, bucket: bucket, prefix: prefix}
}

func (s *BucketSink) Name() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

func (s *BucketSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := ResolveObjectKey(s.prefix, name)
	if err := s.client.UploadObject(ctx, key, data); err != nil {
		return "", err
	}
	return "s3://" + path.Join(s.bucket, key), nil
}

// ResolveObjectKey joins prefix and name unless name already carries the prefix.
func ResolveObjectKey(prefix, name string) string {
	prefixTrimmed := strings.Trim(strings.TrimSpace(prefix), "/")
	nameTrimmed := strings.TrimPrefix(strings.TrimSpace(name), "/")
	if prefixTrimmed == "" {
		return nameTrimmed
	}
	if strings.HasPrefix(nameTrimmed, prefixTrimmed+"/") {
		return nameTrimmed
	}
	return prefixTrimmed + "/" + nameTrimmed
}

var (
	_ pipeline.Source = (*BucketSource)(nil)
	_ pipeline.Sink   = (*BucketSink)(nil)
)

// Package blobstore publishes and fetches database snapshots on
// S3-compatible object storage. Operators build a snapshot on one machine,
// push it to a bucket and pull it on the serving fleet.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrNotFound reports a missing snapshot.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore moves snapshot directories in and out of a bucket. Objects
// are keyed "<prefix>/<dataVersion>/<file>".
type SnapshotStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewSnapshotStore creates a store over an existing bucket.
func NewSnapshotStore(client *minio.Client, bucket, prefix string) *SnapshotStore {
	return &SnapshotStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *SnapshotStore) key(dataVersion, name string) string {
	return path.Join(s.prefix, dataVersion, name)
}

// Upload pushes every file of a snapshot directory.
func (s *SnapshotStore) Upload(ctx context.Context, snapshotDir string) error {
	dataVersion := filepath.Base(snapshotDir)
	return filepath.WalkDir(snapshotDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		relative, err := filepath.Rel(snapshotDir, filePath)
		if err != nil {
			return err
		}
		_, err = s.client.FPutObject(ctx, s.bucket, s.key(dataVersion, relative), filePath, minio.PutObjectOptions{})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", relative, err)
		}
		return nil
	})
}

// Download pulls a snapshot into baseDir/<dataVersion> and returns the
// local directory.
func (s *SnapshotStore) Download(ctx context.Context, dataVersion, baseDir string) (string, error) {
	targetDir := filepath.Join(baseDir, dataVersion)
	objectPrefix := s.key(dataVersion, "") + "/"

	found := false
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return "", object.Err
		}
		found = true
		relative := strings.TrimPrefix(object.Key, objectPrefix)
		localPath := filepath.Join(targetDir, relative)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return "", err
		}
		if err := s.client.FGetObject(ctx, s.bucket, object.Key, localPath, minio.GetObjectOptions{}); err != nil {
			return "", fmt.Errorf("downloading %s: %w", relative, err)
		}
	}
	if !found {
		return "", ErrNotFound
	}
	return targetDir, nil
}

// ListVersions enumerates the stored data-version strings.
func (s *SnapshotStore) ListVersions(ctx context.Context) ([]string, error) {
	prefix := s.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var versions []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(object.Key, prefix), "/")
		if name != "" {
			versions = append(versions, name)
		}
	}
	return versions, nil
}

// Package local provides a local file system implementation of the storage adapter interfaces.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
	storageConfig "github.com/tigerroll/soundings/pkg/archive/adapter/storage/config"
	coreConfig "github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this local storage provider.
	ProviderType = "local"

	// tempPrefix marks in-flight uploads, which ListObjects skips.
	tempPrefix = ".upload-"
)

// localAdapter implements the storage.StorageConnection interface for local file system operations.
// A bucket is a directory under BaseDir.
type localAdapter struct {
	cfg  storageConfig.StorageConfig
	name string
}

var _ storageAdapter.StorageConnection = (*localAdapter)(nil)

// NewLocalAdapter creates a new localAdapter, creating BaseDir if it does not exist.
func NewLocalAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir must be specified in configuration", name)
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("local storage adapter '%s': failed to stat BaseDir '%s': %w", name, cfg.BaseDir, err)
		}
		if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage adapter '%s': failed to create BaseDir '%s': %w", name, cfg.BaseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir '%s' is not a directory", name, cfg.BaseDir)
	}

	return &localAdapter{cfg: cfg, name: name}, nil
}

// Close does nothing for the local file system adapter as it holds no special resources.
func (a *localAdapter) Close() error {
	logger.Debugf("Local storage adapter '%s' closed.", a.name)
	return nil
}

func (a *localAdapter) Type() string {
	return ProviderType
}

func (a *localAdapter) Name() string {
	return a.name
}

// Upload writes data to a temporary file next to the target and renames it into place,
// so readers never observe a partial object.
func (a *localAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	const op = "localAdapter.Upload"
	if err := ctx.Err(); err != nil {
		return exception.New(op, exception.KindStoreUnavailable, "upload cancelled", err)
	}
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to create directory '%s'", dir)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to create temporary file in '%s'", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to write data for '%s'", fullPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to sync '%s'", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to close '%s'", tmpName)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to move upload into '%s'", fullPath)
	}
	logger.Debugf("Uploaded data to '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Download opens the file for reading. The returned io.ReadCloser must be closed by the caller.
func (a *localAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	const op = "localAdapter.Download"
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, exception.Newf(op, exception.KindNotFound, err, "object '%s' not found", objectName)
		}
		return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "failed to open file '%s'", fullPath)
	}
	logger.Debugf("Downloaded data from '%s' (local adapter '%s').", fullPath, a.name)
	return file, nil
}

// ListObjects walks the bucket directory and calls fn with each object name relative to it.
func (a *localAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	const op = "localAdapter.ListObjects"
	basePath, err := a.resolvePath(bucket, "")
	if err != nil {
		return err
	}

	err = filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == basePath {
				return filepath.SkipAll // an empty bucket has no directory yet
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		objectName, err := filepath.Rel(basePath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for '%s' from '%s': %w", path, basePath, err)
		}
		objectName = filepath.ToSlash(objectName)
		if !strings.HasPrefix(objectName, prefix) {
			return nil
		}
		return fn(objectName)
	})
	if err != nil {
		if exception.KindOf(err) != exception.KindUnknown {
			return err
		}
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to list objects in '%s' with prefix '%s'", basePath, prefix)
	}
	logger.Debugf("Listed objects in '%s' with prefix '%s' (local adapter '%s').", basePath, prefix, a.name)
	return nil
}

// DeleteObject deletes the file. If it does not exist, a warning is logged and nil returned.
func (a *localAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	const op = "localAdapter.DeleteObject"
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("Attempted to delete non-existent object '%s' (local adapter '%s').", fullPath, a.name)
			return nil
		}
		return exception.Newf(op, exception.KindStoreUnavailable, err, "failed to delete file '%s'", fullPath)
	}
	logger.Debugf("Deleted object '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Config returns the storage configuration used by this adapter.
func (a *localAdapter) Config() storageConfig.StorageConfig {
	return a.cfg
}

// resolvePath maps bucket and objectName below BaseDir, rejecting names that escape it.
func (a *localAdapter) resolvePath(bucket, objectName string) (string, error) {
	const op = "localAdapter.resolvePath"
	if bucket == "" {
		bucket = a.cfg.BucketName
	}

	absBaseDir, err := filepath.Abs(a.cfg.BaseDir)
	if err != nil {
		return "", exception.Newf(op, exception.KindStoreUnavailable, err, "failed to get absolute path for BaseDir '%s'", a.cfg.BaseDir)
	}
	fullPath := filepath.Join(absBaseDir, bucket, filepath.FromSlash(objectName))

	rel, err := filepath.Rel(absBaseDir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", exception.InvalidArgument(op, "object '%s' in bucket '%s' resolves outside of BaseDir", objectName, bucket)
	}
	return fullPath, nil
}

// LocalProvider implements the storage.StorageProvider interface for local directories.
type LocalProvider struct {
	*storageAdapter.BaseProvider
}

// NewLocalProvider creates a new LocalProvider instance.
func NewLocalProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return &LocalProvider{BaseProvider: storageAdapter.NewBaseProvider(cfg, ProviderType, NewLocalAdapter)}
}

// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
	storageConfig "github.com/tigerroll/soundings/pkg/archive/adapter/storage/config"
	coreConfig "github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// ProviderType defines the type identifier for this provider.
const ProviderType = "gcs"

// gcsAdapter implements storage.StorageConnection on a GCS client.
type gcsAdapter struct {
	client *storage.Client
	cfg    storageConfig.StorageConfig
	name   string
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// clientOptions builds the client options from the configuration. An Endpoint without
// credentials is treated as an emulator and disables authentication.
func clientOptions(cfg storageConfig.StorageConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		if cfg.CredentialsFile == "" {
			opts = append(opts, option.WithoutAuthentication())
		}
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// NewGCSAdapter creates a client for the configured project. The client is lazy and
// does not contact GCS until the first operation.
func NewGCSAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	client, err := storage.NewClient(context.Background(), clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	logger.Debugf("GCS storage adapter '%s' created (bucket '%s').", name, cfg.BucketName)
	return &gcsAdapter{client: client, cfg: cfg, name: name}, nil
}

// Close closes the underlying client.
func (a *gcsAdapter) Close() error {
	if err := a.client.Close(); err != nil {
		return fmt.Errorf("gcs storage adapter '%s': failed to close client: %w", a.name, err)
	}
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return nil
}

func (a *gcsAdapter) Type() string {
	return ProviderType
}

func (a *gcsAdapter) Name() string {
	return a.name
}

func (a *gcsAdapter) bucket(op, bucket string) (*storage.BucketHandle, error) {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	if bucket == "" {
		return nil, exception.InvalidArgument(op, "no bucket given and adapter '%s' has no default bucket", a.name)
	}
	return a.client.Bucket(bucket), nil
}

// Upload writes data to the object. The object becomes visible only when the writer
// is closed successfully.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	const op = "gcsAdapter.Upload"
	b, err := a.bucket(op, bucket)
	if err != nil {
		return err
	}

	// Cancelling the context aborts the upload and discards the partial object.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := b.Object(objectName).NewWriter(wctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		cancel()
		_ = w.Close()
		return classifyError(op, err, "failed to write object '%s'", objectName)
	}
	if err := w.Close(); err != nil {
		return classifyError(op, err, "failed to finalize object '%s'", objectName)
	}
	logger.Debugf("Uploaded object '%s' (gcs adapter '%s').", objectName, a.name)
	return nil
}

// Download opens a reader on the object.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	const op = "gcsAdapter.Download"
	b, err := a.bucket(op, bucket)
	if err != nil {
		return nil, err
	}
	r, err := b.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, classifyError(op, err, "failed to open object '%s'", objectName)
	}
	return r, nil
}

// ListObjects iterates the objects under prefix.
func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	const op = "gcsAdapter.ListObjects"
	b, err := a.bucket(op, bucket)
	if err != nil {
		return err
	}

	it := b.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return classifyError(op, err, "failed to list objects with prefix '%s'", prefix)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject removes the object. A missing object is logged and ignored.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	const op = "gcsAdapter.DeleteObject"
	b, err := a.bucket(op, bucket)
	if err != nil {
		return err
	}
	if err := b.Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			logger.Warnf("Attempted to delete non-existent object '%s' (gcs adapter '%s').", objectName, a.name)
			return nil
		}
		return classifyError(op, err, "failed to delete object '%s'", objectName)
	}
	logger.Debugf("Deleted object '%s' (gcs adapter '%s').", objectName, a.name)
	return nil
}

// classifyError maps client errors to archive error kinds.
func classifyError(op string, err error, format string, a ...interface{}) error {
	kind := exception.KindStoreUnavailable
	if errors.Is(err, storage.ErrObjectNotExist) {
		kind = exception.KindNotFound
	}
	return exception.Newf(op, kind, err, format, a...)
}

// GCSProvider implements the storage.StorageProvider interface for GCS.
type GCSProvider struct {
	*storageAdapter.BaseProvider
}

// NewGCSProvider creates a new GCSProvider instance.
func NewGCSProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return &GCSProvider{BaseProvider: storageAdapter.NewBaseProvider(cfg, ProviderType, NewGCSAdapter)}
}

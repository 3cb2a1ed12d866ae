// Package usecase composes the archive index with a payload store.
package usecase

import (
	"context"
	"io"
	"time"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
)

// Archive stores sounding files: index rows in the archive index and gzip compressed
// payloads in the payload store, keyed by file name.
type Archive interface {
	// Add indexes e and stores payload under the entry's file name. The index rows are
	// committed only after the payload was uploaded.
	Add(ctx context.Context, e model.FileEntry, payload io.Reader) (*model.FileEntry, error)

	// Retrieve returns the entry and decompressed payload for (type, site, init time).
	Retrieve(ctx context.Context, typeCode, siteShortName string, initTime time.Time) (*model.FileEntry, []byte, error)
	// RetrieveFile returns the entry and decompressed payload stored under fileName.
	RetrieveFile(ctx context.Context, fileName string) (*model.FileEntry, []byte, error)
	// RetrieveLatest returns the most recent entry and payload for (type, site).
	RetrieveLatest(ctx context.Context, typeCode, siteShortName string) (*model.FileEntry, []byte, error)

	// Remove deletes the index row of fileName and then its payload.
	Remove(ctx context.Context, fileName string) error
	// RemoveFiles removes every named file and returns how many were removed.
	// Failures do not stop the batch; they are returned together.
	RemoveFiles(ctx context.Context, fileNames []string) (int, error)
	// Purge removes files whose init time is older than maxAge before now. A non-positive
	// maxAge selects the configured retention; with none configured Purge does nothing.
	Purge(ctx context.Context, maxAge time.Duration) (int, error)

	// Check compares the file names in the index with the payloads in the store.
	Check(ctx context.Context) (*CheckReport, error)
	// Export writes the entries matching q to w as Parquet and returns the row count.
	Export(ctx context.Context, q repository.FileQuery, w io.Writer) (int, error)
}

// CheckReport lists the differences between the index and the payload store.
type CheckReport struct {
	// Indexed is the number of files in the index.
	Indexed int
	// Stored is the number of payload objects in the store.
	Stored int
	// MissingPayloads are indexed files with no payload.
	MissingPayloads []string
	// UnindexedPayloads are payloads with no index row.
	UnindexedPayloads []string
}

// Consistent reports whether the index and the store agree.
func (r *CheckReport) Consistent() bool {
	return len(r.MissingPayloads) == 0 && len(r.UnindexedPayloads) == 0
}

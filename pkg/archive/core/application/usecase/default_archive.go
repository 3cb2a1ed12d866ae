package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
	"github.com/tigerroll/soundings/pkg/archive/component/export"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	metrics "github.com/tigerroll/soundings/pkg/archive/core/metrics"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

const payloadContentType = "application/gzip"

// DefaultArchive implements Archive on an ArchiveIndex and a StorageConnectionResolver.
type DefaultArchive struct {
	index    repository.ArchiveIndex
	txm      tx.TransactionManager
	storage  storageAdapter.StorageConnectionResolver
	cfg      config.IndexConfig
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
	clock    clockwork.Clock
}

var _ Archive = (*DefaultArchive)(nil)

// DefaultArchiveParams are the Fx dependencies of NewDefaultArchive.
type DefaultArchiveParams struct {
	fx.In
	Index     repository.ArchiveIndex
	TxManager tx.TransactionManager `name:"index"`
	Storage   storageAdapter.StorageConnectionResolver
	Cfg       *config.IndexConfig
	Recorder  metrics.MetricRecorder
	Tracer    metrics.Tracer
	Clock     clockwork.Clock `optional:"true"`
}

// NewDefaultArchive creates a DefaultArchive. A nil clock selects the real clock.
func NewDefaultArchive(p DefaultArchiveParams) *DefaultArchive {
	a := &DefaultArchive{
		index:    p.Index,
		txm:      p.TxManager,
		storage:  p.Storage,
		recorder: p.Recorder,
		tracer:   p.Tracer,
		clock:    p.Clock,
	}
	if p.Cfg != nil {
		a.cfg = *p.Cfg
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.recorder == nil {
		a.recorder = metrics.NewNoOpMetricRecorder()
	}
	if a.tracer == nil {
		a.tracer = metrics.NewNoOpTracer()
	}
	return a
}

// observe starts the span for op and returns the function that finishes it.
func (a *DefaultArchive) observe(ctx context.Context, op string, attrs map[string]interface{}) (context.Context, func(error)) {
	start := a.clock.Now()
	ctx, end := a.tracer.StartSpan(ctx, "archive."+op, attrs)
	return ctx, func(err error) {
		if err != nil {
			a.tracer.RecordError(ctx, "archive", err)
		}
		a.recorder.RecordOperation(ctx, "Archive."+op, metrics.Outcome(err), a.clock.Since(start))
		end()
	}
}

func (a *DefaultArchive) payloadStore(ctx context.Context) (storageAdapter.StorageConnection, error) {
	conn, err := a.storage.ResolveStorageConnection(ctx, a.cfg.StorageRef)
	if err != nil {
		return nil, exception.Newf("DefaultArchive", exception.KindStoreUnavailable, err, "failed to resolve payload store '%s'", a.cfg.StorageRef)
	}
	return conn, nil
}

// compress gzips payload at the configured level.
func (a *DefaultArchive) compress(payload io.Reader) (*bytes.Buffer, error) {
	level := a.cfg.CompressionLevel
	if level == 0 {
		level = gzip.DefaultCompression
	}
	buf := new(bytes.Buffer)
	zw, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		return nil, exception.New("DefaultArchive.compress", exception.KindInvalidArgument, "invalid compression level", err)
	}
	if _, err := io.Copy(zw, payload); err != nil {
		_ = zw.Close()
		return nil, exception.New("DefaultArchive.compress", exception.KindInvalidArgument, "failed to read payload", err)
	}
	if err := zw.Close(); err != nil {
		return nil, exception.New("DefaultArchive.compress", exception.KindInvalidArgument, "failed to compress payload", err)
	}
	return buf, nil
}

// Add ingests e inside a transaction, uploads the compressed payload and commits.
// A duplicate fails in the index before the store is touched.
func (a *DefaultArchive) Add(ctx context.Context, e model.FileEntry, payload io.Reader) (out *model.FileEntry, err error) {
	const op = "DefaultArchive.Add"
	ctx, done := a.observe(ctx, "Add", map[string]interface{}{"type": e.Type.Code, "site": e.Site.ShortName})
	defer func() { done(err) }()

	if payload == nil {
		return nil, exception.InvalidArgument(op, "payload must not be nil")
	}
	compressed, err := a.compress(payload)
	if err != nil {
		return nil, err
	}
	conn, err := a.payloadStore(ctx)
	if err != nil {
		return nil, err
	}

	txn, err := a.txm.Begin(ctx)
	if err != nil {
		return nil, exception.New(op, exception.KindStoreUnavailable, "failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = a.txm.Rollback(txn)
		}
	}()

	out, err = a.index.Ingest(tx.WithTx(ctx, txn), e)
	if err != nil {
		return nil, err
	}

	size := int64(compressed.Len())
	if err := conn.Upload(ctx, a.cfg.Bucket, out.FileName, compressed, payloadContentType); err != nil {
		return nil, exception.Newf(op, exception.KindUnknown, err, "failed to upload payload '%s'", out.FileName)
	}

	if err := a.txm.Commit(txn); err != nil {
		if delErr := conn.DeleteObject(ctx, a.cfg.Bucket, out.FileName); delErr != nil {
			logger.Warnf("Archive: failed to remove payload '%s' after commit failure: %v", out.FileName, delErr)
		}
		return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "failed to commit '%s'", out.FileName)
	}
	committed = true

	a.recorder.RecordPayloadBytes(ctx, metrics.DirectionUpload, size)
	logger.Debugf("Archive: added '%s' (%d compressed bytes).", out.FileName, size)
	return out, nil
}

// load downloads and decompresses the payload of entry.
func (a *DefaultArchive) load(ctx context.Context, entry *model.FileEntry) ([]byte, error) {
	const op = "DefaultArchive.load"
	conn, err := a.payloadStore(ctx)
	if err != nil {
		return nil, err
	}
	rc, err := conn.Download(ctx, a.cfg.Bucket, entry.FileName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	counted := &countingReader{r: rc}
	zr, err := gzip.NewReader(counted)
	if err != nil {
		return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "payload '%s' is not gzip data", entry.FileName)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "failed to decompress payload '%s'", entry.FileName)
	}
	a.recorder.RecordPayloadBytes(ctx, metrics.DirectionDownload, counted.n)
	return data, nil
}

// Retrieve looks up the entry by metadata and loads its payload.
func (a *DefaultArchive) Retrieve(ctx context.Context, typeCode, siteShortName string, initTime time.Time) (entry *model.FileEntry, data []byte, err error) {
	ctx, done := a.observe(ctx, "Retrieve", map[string]interface{}{"type": typeCode, "site": siteShortName})
	defer func() { done(err) }()

	entry, err = a.index.FindByMetadata(ctx, typeCode, siteShortName, initTime)
	if err != nil {
		return nil, nil, err
	}
	data, err = a.load(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}

// RetrieveFile looks up the entry by file name and loads its payload.
func (a *DefaultArchive) RetrieveFile(ctx context.Context, fileName string) (entry *model.FileEntry, data []byte, err error) {
	ctx, done := a.observe(ctx, "RetrieveFile", map[string]interface{}{"file_name": fileName})
	defer func() { done(err) }()

	entry, err = a.index.FindByFileName(ctx, fileName)
	if err != nil {
		return nil, nil, err
	}
	data, err = a.load(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}

// RetrieveLatest loads the most recent payload for (type, site).
func (a *DefaultArchive) RetrieveLatest(ctx context.Context, typeCode, siteShortName string) (entry *model.FileEntry, data []byte, err error) {
	ctx, done := a.observe(ctx, "RetrieveLatest", map[string]interface{}{"type": typeCode, "site": siteShortName})
	defer func() { done(err) }()

	entry, err = a.index.MostRecent(ctx, typeCode, siteShortName)
	if err != nil {
		return nil, nil, err
	}
	data, err = a.load(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}

// Remove deletes the index row first so a file is never listed without its payload.
// A payload left behind by a failed delete shows up in Check.
func (a *DefaultArchive) Remove(ctx context.Context, fileName string) (err error) {
	ctx, done := a.observe(ctx, "Remove", map[string]interface{}{"file_name": fileName})
	defer func() { done(err) }()
	return a.remove(ctx, fileName)
}

func (a *DefaultArchive) remove(ctx context.Context, fileName string) error {
	conn, err := a.payloadStore(ctx)
	if err != nil {
		return err
	}
	if err := a.index.DeleteFile(ctx, fileName); err != nil {
		return err
	}
	if err := conn.DeleteObject(ctx, a.cfg.Bucket, fileName); err != nil {
		return exception.Newf("DefaultArchive.Remove", exception.KindUnknown, err, "index row of '%s' removed but its payload was not", fileName)
	}
	return nil
}

// RemoveFiles removes each file independently.
func (a *DefaultArchive) RemoveFiles(ctx context.Context, fileNames []string) (removed int, err error) {
	ctx, done := a.observe(ctx, "RemoveFiles", map[string]interface{}{"count": len(fileNames)})
	defer func() { done(err) }()
	return a.removeFiles(ctx, fileNames)
}

func (a *DefaultArchive) removeFiles(ctx context.Context, fileNames []string) (int, error) {
	var multiErr error
	removed := 0
	for _, name := range fileNames {
		if ctxErr := ctx.Err(); ctxErr != nil {
			multiErr = multierror.Append(multiErr, exception.New("DefaultArchive.RemoveFiles", exception.KindStoreUnavailable, "removal cancelled", ctxErr))
			break
		}
		if err := a.remove(ctx, name); err != nil {
			multiErr = multierror.Append(multiErr, err)
			continue
		}
		removed++
	}
	return removed, multiErr
}

// Purge removes every file with an init time before now minus maxAge.
func (a *DefaultArchive) Purge(ctx context.Context, maxAge time.Duration) (removed int, err error) {
	ctx, done := a.observe(ctx, "Purge", nil)
	defer func() { done(err) }()

	if maxAge <= 0 {
		if a.cfg.RetentionDays <= 0 {
			logger.Debugf("Archive: purge skipped, no retention configured.")
			return 0, nil
		}
		maxAge = time.Duration(a.cfg.RetentionDays) * 24 * time.Hour
	}
	cutoff := a.clock.Now().UTC().Add(-maxAge)

	entries, err := a.index.ListFiles(ctx, repository.FileQuery{Range: model.Before(cutoff)})
	if err != nil {
		return 0, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.FileName)
	}

	removed, err = a.removeFiles(ctx, names)
	a.recorder.RecordPurged(ctx, removed)
	logger.Infof("Archive: purged %d of %d files older than %s.", removed, len(names), cutoff.Format(time.RFC3339))
	return removed, err
}

// Check lists both sides and reports their differences in ascending order.
func (a *DefaultArchive) Check(ctx context.Context) (report *CheckReport, err error) {
	ctx, done := a.observe(ctx, "Check", nil)
	defer func() { done(err) }()

	conn, err := a.payloadStore(ctx)
	if err != nil {
		return nil, err
	}
	indexed, err := a.index.FileNames(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]struct{})
	if err := conn.ListObjects(ctx, a.cfg.Bucket, "", func(name string) error {
		stored[name] = struct{}{}
		return nil
	}); err != nil {
		return nil, err
	}

	report = &CheckReport{Indexed: len(indexed), Stored: len(stored)}
	for _, name := range indexed {
		if _, ok := stored[name]; ok {
			delete(stored, name)
			continue
		}
		report.MissingPayloads = append(report.MissingPayloads, name)
	}
	for name := range stored {
		report.UnindexedPayloads = append(report.UnindexedPayloads, name)
	}
	sort.Strings(report.MissingPayloads)
	sort.Strings(report.UnindexedPayloads)

	if !report.Consistent() {
		logger.Warnf("Archive: check found %d indexed files without payload and %d payloads without index row.",
			len(report.MissingPayloads), len(report.UnindexedPayloads))
	}
	return report, nil
}

// Export writes the listing selected by q as Parquet with the configured codec.
func (a *DefaultArchive) Export(ctx context.Context, q repository.FileQuery, w io.Writer) (n int, err error) {
	ctx, done := a.observe(ctx, "Export", map[string]interface{}{"type": q.TypeCode, "site": q.SiteShortName})
	defer func() { done(err) }()

	entries, err := a.index.ListFiles(ctx, q)
	if err != nil {
		return 0, err
	}
	codec := a.cfg.ExportCompression
	if codec == "" {
		codec = "SNAPPY"
	}
	n, err = export.WriteParquet(w, entries, strings.ToUpper(codec))
	if err != nil {
		return n, fmt.Errorf("export of %d entries: %w", len(entries), err)
	}
	return n, nil
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

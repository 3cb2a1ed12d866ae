package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	metrics "github.com/tigerroll/soundings/pkg/archive/core/metrics"
)

// InstrumentedIndex decorates an ArchiveIndex with one span and one operation sample
// per call. Errors pass through unchanged.
type InstrumentedIndex struct {
	next     repository.ArchiveIndex
	recorder metrics.MetricRecorder
	tracer   metrics.Tracer
}

// NewInstrumentedIndex wraps next.
func NewInstrumentedIndex(next repository.ArchiveIndex, recorder metrics.MetricRecorder, tracer metrics.Tracer) *InstrumentedIndex {
	return &InstrumentedIndex{next: next, recorder: recorder, tracer: tracer}
}

// observe starts the span for op and returns the function that finishes it.
func (i *InstrumentedIndex) observe(ctx context.Context, op string, attrs map[string]interface{}) (context.Context, func(error)) {
	start := time.Now()
	ctx, end := i.tracer.StartSpan(ctx, "index."+op, attrs)
	return ctx, func(err error) {
		if err != nil {
			i.tracer.RecordError(ctx, op, err)
		}
		i.recorder.RecordOperation(ctx, op, metrics.Outcome(err), time.Since(start))
		end()
	}
}

func (i *InstrumentedIndex) RegisterType(ctx context.Context, t model.SoundingType) (id int64, err error) {
	ctx, done := i.observe(ctx, "RegisterType", map[string]interface{}{"type": t.Code})
	defer func() { done(err) }()
	return i.next.RegisterType(ctx, t)
}

func (i *InstrumentedIndex) RegisterSite(ctx context.Context, s model.Site) (id int64, err error) {
	ctx, done := i.observe(ctx, "RegisterSite", map[string]interface{}{"site": s.ShortName})
	defer func() { done(err) }()
	return i.next.RegisterSite(ctx, s)
}

func (i *InstrumentedIndex) RegisterLocation(ctx context.Context, l model.Location) (id int64, err error) {
	ctx, done := i.observe(ctx, "RegisterLocation", nil)
	defer func() { done(err) }()
	return i.next.RegisterLocation(ctx, l)
}

func (i *InstrumentedIndex) AddSite(ctx context.Context, s model.Site) (id int64, err error) {
	ctx, done := i.observe(ctx, "AddSite", map[string]interface{}{"site": s.ShortName})
	defer func() { done(err) }()
	return i.next.AddSite(ctx, s)
}

func (i *InstrumentedIndex) UpdateSite(ctx context.Context, s model.Site) (err error) {
	ctx, done := i.observe(ctx, "UpdateSite", map[string]interface{}{"site": s.ShortName})
	defer func() { done(err) }()
	return i.next.UpdateSite(ctx, s)
}

func (i *InstrumentedIndex) Site(ctx context.Context, shortName string) (s *model.Site, err error) {
	ctx, done := i.observe(ctx, "Site", map[string]interface{}{"site": shortName})
	defer func() { done(err) }()
	return i.next.Site(ctx, shortName)
}

func (i *InstrumentedIndex) Sites(ctx context.Context) (s []model.Site, err error) {
	ctx, done := i.observe(ctx, "Sites", nil)
	defer func() { done(err) }()
	return i.next.Sites(ctx)
}

func (i *InstrumentedIndex) Type(ctx context.Context, code string) (t *model.SoundingType, err error) {
	ctx, done := i.observe(ctx, "Type", map[string]interface{}{"type": code})
	defer func() { done(err) }()
	return i.next.Type(ctx, code)
}

func (i *InstrumentedIndex) Types(ctx context.Context) (t []model.SoundingType, err error) {
	ctx, done := i.observe(ctx, "Types", nil)
	defer func() { done(err) }()
	return i.next.Types(ctx)
}

func (i *InstrumentedIndex) TypesForSite(ctx context.Context, shortName string) (t []model.SoundingType, err error) {
	ctx, done := i.observe(ctx, "TypesForSite", map[string]interface{}{"site": shortName})
	defer func() { done(err) }()
	return i.next.TypesForSite(ctx, shortName)
}

func (i *InstrumentedIndex) RegisterFile(ctx context.Context, r model.FileRecord) (err error) {
	ctx, done := i.observe(ctx, "RegisterFile", map[string]interface{}{"file_name": r.FileName})
	defer func() { done(err) }()
	return i.next.RegisterFile(ctx, r)
}

func (i *InstrumentedIndex) FindByFileName(ctx context.Context, fileName string) (e *model.FileEntry, err error) {
	ctx, done := i.observe(ctx, "FindByFileName", map[string]interface{}{"file_name": fileName})
	defer func() { done(err) }()
	return i.next.FindByFileName(ctx, fileName)
}

func (i *InstrumentedIndex) FindByMetadata(ctx context.Context, typeCode, siteShortName string, initTime time.Time) (e *model.FileEntry, err error) {
	ctx, done := i.observe(ctx, "FindByMetadata", map[string]interface{}{
		"type":      typeCode,
		"site":      siteShortName,
		"init_time": initTime.UTC().Format(time.RFC3339),
	})
	defer func() { done(err) }()
	return i.next.FindByMetadata(ctx, typeCode, siteShortName, initTime)
}

func (i *InstrumentedIndex) ListFiles(ctx context.Context, q repository.FileQuery) (entries []model.FileEntry, err error) {
	ctx, done := i.observe(ctx, "ListFiles", map[string]interface{}{"type": q.TypeCode, "site": q.SiteShortName, "limit": q.Limit})
	defer func() { done(err) }()
	return i.next.ListFiles(ctx, q)
}

func (i *InstrumentedIndex) DeleteFile(ctx context.Context, fileName string) (err error) {
	ctx, done := i.observe(ctx, "DeleteFile", map[string]interface{}{"file_name": fileName})
	defer func() { done(err) }()
	return i.next.DeleteFile(ctx, fileName)
}

func (i *InstrumentedIndex) Count(ctx context.Context) (n int64, err error) {
	ctx, done := i.observe(ctx, "Count", nil)
	defer func() { done(err) }()
	return i.next.Count(ctx)
}

func (i *InstrumentedIndex) FileNames(ctx context.Context) (names []string, err error) {
	ctx, done := i.observe(ctx, "FileNames", nil)
	defer func() { done(err) }()
	return i.next.FileNames(ctx)
}

func (i *InstrumentedIndex) InitTimes(ctx context.Context, typeCode, siteShortName string) (times []time.Time, err error) {
	ctx, done := i.observe(ctx, "InitTimes", map[string]interface{}{"type": typeCode, "site": siteShortName})
	defer func() { done(err) }()
	return i.next.InitTimes(ctx, typeCode, siteShortName)
}

func (i *InstrumentedIndex) MostRecent(ctx context.Context, typeCode, siteShortName string) (e *model.FileEntry, err error) {
	ctx, done := i.observe(ctx, "MostRecent", map[string]interface{}{"type": typeCode, "site": siteShortName})
	defer func() { done(err) }()
	return i.next.MostRecent(ctx, typeCode, siteShortName)
}

func (i *InstrumentedIndex) Ingest(ctx context.Context, e model.FileEntry) (out *model.FileEntry, err error) {
	ctx, done := i.observe(ctx, "Ingest", map[string]interface{}{"type": e.Type.Code, "site": e.Site.ShortName})
	defer func() { done(err) }()
	return i.next.Ingest(ctx, e)
}

func (i *InstrumentedIndex) Inventory(ctx context.Context, siteShortName string) (inv *model.Inventory, err error) {
	ctx, done := i.observe(ctx, "Inventory", map[string]interface{}{"site": siteShortName})
	defer func() { done(err) }()
	return i.next.Inventory(ctx, siteShortName)
}

var _ repository.ArchiveIndex = (*InstrumentedIndex)(nil)

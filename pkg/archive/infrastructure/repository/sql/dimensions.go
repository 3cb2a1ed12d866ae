package sql

import (
	"context"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// --- Types ---

// RegisterType returns the id of the type with t's code, inserting t when the code is new.
func (r *SQLArchiveIndex) RegisterType(ctx context.Context, t model.SoundingType) (int64, error) {
	const op = "SQLArchiveIndex.RegisterType"
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		var err error
		id, err = registerType(ctx, exec, t)
		return err
	})
	return id, err
}

// registerType inserts t unless its code exists, then reads back the id of the row
// holding the code. Both statements run on exec, inside the caller's transaction.
func registerType(ctx context.Context, exec tx.TxExecutor, t model.SoundingType) (int64, error) {
	const op = "SQLArchiveIndex.registerType"
	entity := fromDomainType(t)
	entity.ID = 0
	if _, err := exec.ExecuteUpsert(ctx, entity, entity.TableName(), nil, nil); err != nil {
		return 0, wrapError(op, exec, err, "failed to register type %s", t.Code)
	}
	found, err := findType(ctx, exec, t.Code)
	if err != nil {
		return 0, err
	}
	if found == nil {
		return 0, exception.Newf(op, exception.KindStoreUnavailable, nil, "type %s missing after upsert", t.Code)
	}
	return found.ID, nil
}

func findType(ctx context.Context, exec tx.TxExecutor, code string) (*TypeEntity, error) {
	var entities []TypeEntity
	if err := exec.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"type": code}, "", 1); err != nil {
		return nil, wrapError("SQLArchiveIndex.findType", exec, err, "failed to find type %s", code)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return &entities[0], nil
}

// Type returns the type with the given code; NotFound if there is none.
func (r *SQLArchiveIndex) Type(ctx context.Context, code string) (*model.SoundingType, error) {
	const op = "SQLArchiveIndex.Type"
	code = model.NormalizeCode(code)
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := findType(ctx, exec, code)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, notFound(op, "type %q not found", code)
	}
	t := toDomainType(entity)
	return &t, nil
}

// Types returns every registered type ordered by code.
func (r *SQLArchiveIndex) Types(ctx context.Context) ([]model.SoundingType, error) {
	const op = "SQLArchiveIndex.Types"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	var entities []TypeEntity
	if err := exec.Select(ctx, &entities, tx.Query{OrderBy: []tx.Order{{Column: "type"}}}); err != nil {
		return nil, wrapError(op, exec, err, "failed to list types")
	}
	out := make([]model.SoundingType, 0, len(entities))
	for i := range entities {
		out = append(out, toDomainType(&entities[i]))
	}
	return out, nil
}

// TypesForSite returns the types with at least one file at the site.
func (r *SQLArchiveIndex) TypesForSite(ctx context.Context, shortName string) ([]model.SoundingType, error) {
	const op = "SQLArchiveIndex.TypesForSite"
	shortName = model.NormalizeCode(shortName)
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	site, err := findSite(ctx, exec, shortName)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, notFound(op, "site %q not found", shortName)
	}
	return typesForSite(ctx, exec, site.ID)
}

func typesForSite(ctx context.Context, exec tx.TxExecutor, siteID int64) ([]model.SoundingType, error) {
	const op = "SQLArchiveIndex.typesForSite"
	var typeIDs []int64
	if err := exec.Pluck(ctx, &FileEntity{}, "type_id", &typeIDs, map[string]interface{}{"site_id": siteID}); err != nil {
		return nil, wrapError(op, exec, err, "failed to list types of site %d", siteID)
	}
	out := []model.SoundingType{}
	if len(typeIDs) == 0 {
		return out, nil
	}
	var entities []TypeEntity
	err := exec.Select(ctx, &entities, tx.Query{
		Where:   map[string]interface{}{"id": typeIDs},
		OrderBy: []tx.Order{{Column: "type"}},
	})
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to load types of site %d", siteID)
	}
	for i := range entities {
		out = append(out, toDomainType(&entities[i]))
	}
	return out, nil
}

// --- Sites ---

// RegisterSite returns the id of the site with s's short name, inserting s when it is new.
func (r *SQLArchiveIndex) RegisterSite(ctx context.Context, s model.Site) (int64, error) {
	const op = "SQLArchiveIndex.RegisterSite"
	if err := s.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		var err error
		id, err = registerSite(ctx, exec, s)
		return err
	})
	return id, err
}

func registerSite(ctx context.Context, exec tx.TxExecutor, s model.Site) (int64, error) {
	const op = "SQLArchiveIndex.registerSite"
	entity := fromDomainSite(s)
	entity.ID = 0
	if _, err := exec.ExecuteUpsert(ctx, entity, entity.TableName(), nil, nil); err != nil {
		return 0, wrapError(op, exec, err, "failed to register site %s", s.ShortName)
	}
	found, err := findSite(ctx, exec, s.ShortName)
	if err != nil {
		return 0, err
	}
	if found == nil {
		return 0, exception.Newf(op, exception.KindStoreUnavailable, nil, "site %s missing after upsert", s.ShortName)
	}
	return found.ID, nil
}

func findSite(ctx context.Context, exec tx.TxExecutor, shortName string) (*SiteEntity, error) {
	var entities []SiteEntity
	if err := exec.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"short_name": shortName}, "", 1); err != nil {
		return nil, wrapError("SQLArchiveIndex.findSite", exec, err, "failed to find site %s", shortName)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return &entities[0], nil
}

// AddSite inserts s; DuplicateKey if the short name is taken.
func (r *SQLArchiveIndex) AddSite(ctx context.Context, s model.Site) (int64, error) {
	const op = "SQLArchiveIndex.AddSite"
	if err := s.Validate(); err != nil {
		return 0, err
	}
	entity := fromDomainSite(s)
	entity.ID = 0
	err := r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		if _, err := exec.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil); err != nil {
			return wrapError(op, exec, err, "failed to add site %s", s.ShortName)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return entity.ID, nil
}

// UpdateSite overwrites the attributes of the site with s's short name; NotFound if absent.
func (r *SQLArchiveIndex) UpdateSite(ctx context.Context, s model.Site) error {
	const op = "SQLArchiveIndex.UpdateSite"
	if err := s.Validate(); err != nil {
		return err
	}
	key := map[string]interface{}{"short_name": s.ShortName}
	return r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		rows, err := exec.ExecuteUpdate(ctx, siteAssignments(s), "UPDATE", SiteEntity{}.TableName(), key)
		if err != nil {
			return wrapError(op, exec, err, "failed to update site %s", s.ShortName)
		}
		if rows > 0 {
			return nil
		}
		// MySQL reports zero affected rows when nothing changed.
		n, err := exec.Count(ctx, &SiteEntity{}, key)
		if err != nil {
			return wrapError(op, exec, err, "failed to update site %s", s.ShortName)
		}
		if n == 0 {
			return notFound(op, "site %q not found", s.ShortName)
		}
		return nil
	})
}

// Site returns the site with the given short name; NotFound if there is none.
func (r *SQLArchiveIndex) Site(ctx context.Context, shortName string) (*model.Site, error) {
	const op = "SQLArchiveIndex.Site"
	shortName = model.NormalizeCode(shortName)
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := findSite(ctx, exec, shortName)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, notFound(op, "site %q not found", shortName)
	}
	s := toDomainSite(entity)
	return &s, nil
}

// Sites returns every registered site ordered by short name.
func (r *SQLArchiveIndex) Sites(ctx context.Context) ([]model.Site, error) {
	const op = "SQLArchiveIndex.Sites"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	var entities []SiteEntity
	if err := exec.Select(ctx, &entities, tx.Query{OrderBy: []tx.Order{{Column: "short_name"}}}); err != nil {
		return nil, wrapError(op, exec, err, "failed to list sites")
	}
	out := make([]model.Site, 0, len(entities))
	for i := range entities {
		out = append(out, toDomainSite(&entities[i]))
	}
	return out, nil
}

// --- Locations ---

// RegisterLocation returns the id of the location with l's coordinates and elevation,
// inserting l when it is new.
func (r *SQLArchiveIndex) RegisterLocation(ctx context.Context, l model.Location) (int64, error) {
	const op = "SQLArchiveIndex.RegisterLocation"
	if err := l.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		var err error
		id, err = registerLocation(ctx, exec, l)
		return err
	})
	return id, err
}

func registerLocation(ctx context.Context, exec tx.TxExecutor, l model.Location) (int64, error) {
	const op = "SQLArchiveIndex.registerLocation"
	entity := fromDomainLocation(l)
	entity.ID = 0
	if _, err := exec.ExecuteUpsert(ctx, entity, entity.TableName(), nil, nil); err != nil {
		return 0, wrapError(op, exec, err, "failed to register location (%d, %d)", l.LatitudeMicro, l.LongitudeMicro)
	}
	var found []LocationEntity
	if err := exec.ExecuteQueryAdvanced(ctx, &found, locationKey(entity), "", 1); err != nil {
		return 0, wrapError(op, exec, err, "failed to find location (%d, %d)", l.LatitudeMicro, l.LongitudeMicro)
	}
	if len(found) == 0 {
		return 0, exception.Newf(op, exception.KindStoreUnavailable, nil, "location (%d, %d) missing after upsert", l.LatitudeMicro, l.LongitudeMicro)
	}
	return found[0].ID, nil
}

// --- Batch loading ---

// dimensions holds the type, site and location rows referenced by a set of files.
type dimensions struct {
	types     map[int64]*TypeEntity
	sites     map[int64]*SiteEntity
	locations map[int64]*LocationEntity
}

func uniqueIDs(files []FileEntity, pick func(*FileEntity) int64) []int64 {
	seen := make(map[int64]struct{}, len(files))
	ids := make([]int64, 0, len(files))
	for i := range files {
		id := pick(&files[i])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// loadDimensions fetches the rows referenced by files with one query per table.
func loadDimensions(ctx context.Context, exec tx.TxExecutor, files []FileEntity) (*dimensions, error) {
	const op = "SQLArchiveIndex.loadDimensions"
	d := &dimensions{
		types:     make(map[int64]*TypeEntity),
		sites:     make(map[int64]*SiteEntity),
		locations: make(map[int64]*LocationEntity),
	}
	if len(files) == 0 {
		return d, nil
	}

	var types []TypeEntity
	if err := exec.ExecuteQuery(ctx, &types, map[string]interface{}{"id": uniqueIDs(files, func(f *FileEntity) int64 { return f.TypeID })}); err != nil {
		return nil, wrapError(op, exec, err, "failed to load types")
	}
	for i := range types {
		d.types[types[i].ID] = &types[i]
	}

	var sites []SiteEntity
	if err := exec.ExecuteQuery(ctx, &sites, map[string]interface{}{"id": uniqueIDs(files, func(f *FileEntity) int64 { return f.SiteID })}); err != nil {
		return nil, wrapError(op, exec, err, "failed to load sites")
	}
	for i := range sites {
		d.sites[sites[i].ID] = &sites[i]
	}

	var locations []LocationEntity
	if err := exec.ExecuteQuery(ctx, &locations, map[string]interface{}{"id": uniqueIDs(files, func(f *FileEntity) int64 { return f.LocationID })}); err != nil {
		return nil, wrapError(op, exec, err, "failed to load locations")
	}
	for i := range locations {
		d.locations[locations[i].ID] = &locations[i]
	}
	return d, nil
}

// entry joins a files row with its dimension rows.
func (d *dimensions) entry(f *FileEntity) (model.FileEntry, error) {
	const op = "SQLArchiveIndex.entry"
	t, ok := d.types[f.TypeID]
	if !ok {
		return model.FileEntry{}, exception.Newf(op, exception.KindReferentialViolation, nil, "file %s references missing type %d", f.FileName, f.TypeID)
	}
	s, ok := d.sites[f.SiteID]
	if !ok {
		return model.FileEntry{}, exception.Newf(op, exception.KindReferentialViolation, nil, "file %s references missing site %d", f.FileName, f.SiteID)
	}
	l, ok := d.locations[f.LocationID]
	if !ok {
		return model.FileEntry{}, exception.Newf(op, exception.KindReferentialViolation, nil, "file %s references missing location %d", f.FileName, f.LocationID)
	}
	initTime, err := parseTime(f.InitTime)
	if err != nil {
		return model.FileEntry{}, exception.Newf(op, exception.KindStoreUnavailable, err, "file %s has an unreadable init time", f.FileName)
	}
	endTime, err := parseTime(f.EndTime)
	if err != nil {
		return model.FileEntry{}, exception.Newf(op, exception.KindStoreUnavailable, err, "file %s has an unreadable end time", f.FileName)
	}
	return model.FileEntry{
		Type:     toDomainType(t),
		Site:     toDomainSite(s),
		Location: toDomainLocation(l),
		InitTime: initTime,
		EndTime:  endTime,
		FileName: f.FileName,
	}, nil
}

// toEntries joins files with their dimension rows, keeping the order of files.
func toEntries(ctx context.Context, exec tx.TxExecutor, files []FileEntity) ([]model.FileEntry, error) {
	d, err := loadDimensions(ctx, exec, files)
	if err != nil {
		return nil, err
	}
	out := make([]model.FileEntry, 0, len(files))
	for i := range files {
		e, err := d.entry(&files[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

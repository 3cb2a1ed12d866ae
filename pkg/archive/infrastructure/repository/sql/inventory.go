package sql

import (
	"context"
	"strings"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
)

// Ingest registers the dimension rows of e and inserts its file in one transaction.
// An empty file name is replaced by model.CompressedFileName.
func (r *SQLArchiveIndex) Ingest(ctx context.Context, e model.FileEntry) (*model.FileEntry, error) {
	const op = "SQLArchiveIndex.Ingest"
	if err := e.Type.Validate(); err != nil {
		return nil, err
	}
	if err := e.Site.Validate(); err != nil {
		return nil, err
	}
	if err := e.Location.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.FileName) == "" {
		e.FileName = model.CompressedFileName(e.Type, e.Site, e.InitTime)
	}
	rec := e.Record()
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var stored *model.FileEntry
	err := r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		var err error
		if rec.TypeID, err = registerType(ctx, exec, e.Type); err != nil {
			return err
		}
		if rec.SiteID, err = registerSite(ctx, exec, e.Site); err != nil {
			return err
		}
		if rec.LocationID, err = registerLocation(ctx, exec, e.Location); err != nil {
			return err
		}
		if err := insertFile(ctx, exec, rec); err != nil {
			return err
		}
		entries, err := toEntries(ctx, exec, []FileEntity{*fromDomainFile(rec)})
		if err != nil {
			return err
		}
		stored = &entries[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Inventory summarizes every type with files at the site.
func (r *SQLArchiveIndex) Inventory(ctx context.Context, siteShortName string) (*model.Inventory, error) {
	const op = "SQLArchiveIndex.Inventory"
	siteShortName = model.NormalizeCode(siteShortName)
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	site, err := findSite(ctx, exec, siteShortName)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, notFound(op, "site %q not found", siteShortName)
	}
	types, err := typesForSite(ctx, exec, site.ID)
	if err != nil {
		return nil, err
	}

	inv := &model.Inventory{Site: toDomainSite(site), Types: make([]model.TypeInventory, 0, len(types))}
	for _, t := range types {
		times, err := initTimes(ctx, exec, t.ID, site.ID)
		if err != nil {
			return nil, err
		}
		if len(times) == 0 {
			continue
		}
		ti := model.TypeInventory{
			Type:  t,
			First: times[0],
			Last:  times[len(times)-1],
		}
		if interval, ok := t.Interval(); ok {
			ti.Missing = model.MissingRuns(times, interval)
		}
		if ti.Locations, err = locationsFor(ctx, exec, t.ID, site.ID); err != nil {
			return nil, err
		}
		inv.Types = append(inv.Types, ti)
	}
	return inv, nil
}

func locationsFor(ctx context.Context, exec tx.TxExecutor, typeID, siteID int64) ([]model.Location, error) {
	const op = "SQLArchiveIndex.locationsFor"
	var ids []int64
	if err := exec.Pluck(ctx, &FileEntity{}, "location_id", &ids, map[string]interface{}{"type_id": typeID, "site_id": siteID}); err != nil {
		return nil, wrapError(op, exec, err, "failed to list locations")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []LocationEntity
	err := exec.Select(ctx, &entities, tx.Query{
		Where:   map[string]interface{}{"id": ids},
		OrderBy: []tx.Order{{Column: "id"}},
	})
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to load locations")
	}
	out := make([]model.Location, 0, len(entities))
	for i := range entities {
		out = append(out, toDomainLocation(&entities[i]))
	}
	return out, nil
}

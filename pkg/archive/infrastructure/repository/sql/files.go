package sql

import (
	"context"
	"sort"
	"time"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// RegisterFile inserts rec. Clashes on file_name or on (type, site, init time) are
// reported by the engine as DuplicateKey.
func (r *SQLArchiveIndex) RegisterFile(ctx context.Context, rec model.FileRecord) error {
	const op = "SQLArchiveIndex.RegisterFile"
	if err := rec.Validate(); err != nil {
		return err
	}
	return r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		return insertFile(ctx, exec, rec)
	})
}

// insertFile relies on the unique indexes of the files table to reject duplicates.
func insertFile(ctx context.Context, exec tx.TxExecutor, rec model.FileRecord) error {
	const op = "SQLArchiveIndex.insertFile"
	entity := fromDomainFile(rec)
	if _, err := exec.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil); err != nil {
		return wrapError(op, exec, err, "failed to register file %s", rec.FileName)
	}
	return nil
}

// FindByFileName returns the entry stored under fileName; NotFound if there is none.
func (r *SQLArchiveIndex) FindByFileName(ctx context.Context, fileName string) (*model.FileEntry, error) {
	const op = "SQLArchiveIndex.FindByFileName"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	var files []FileEntity
	if err := exec.ExecuteQueryAdvanced(ctx, &files, map[string]interface{}{"file_name": fileName}, "", 1); err != nil {
		return nil, wrapError(op, exec, err, "failed to find file %s", fileName)
	}
	if len(files) == 0 {
		return nil, notFound(op, "file %q not found", fileName)
	}
	return firstEntry(ctx, exec, files)
}

// FindByMetadata returns the entry for (type, site, init time); NotFound if there is none.
func (r *SQLArchiveIndex) FindByMetadata(ctx context.Context, typeCode, siteShortName string, initTime time.Time) (*model.FileEntry, error) {
	const op = "SQLArchiveIndex.FindByMetadata"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	typeID, siteID, err := resolveKeys(ctx, exec, op, typeCode, siteShortName)
	if err != nil {
		return nil, err
	}
	var files []FileEntity
	err = exec.ExecuteQueryAdvanced(ctx, &files, map[string]interface{}{
		"type_id":   typeID,
		"site_id":   siteID,
		"init_time": formatTime(initTime),
	}, "", 1)
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to find %s file for %s", typeCode, siteShortName)
	}
	if len(files) == 0 {
		return nil, notFound(op, "no %s file for %s at %s", model.NormalizeCode(typeCode), model.NormalizeCode(siteShortName), formatTime(initTime))
	}
	return firstEntry(ctx, exec, files)
}

func firstEntry(ctx context.Context, exec tx.TxExecutor, files []FileEntity) (*model.FileEntry, error) {
	entries, err := toEntries(ctx, exec, files[:1])
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// resolveKeys maps a type code and a site short name to their ids, NotFound if either is unknown.
func resolveKeys(ctx context.Context, exec tx.TxExecutor, op, typeCode, siteShortName string) (int64, int64, error) {
	typeCode = model.NormalizeCode(typeCode)
	siteShortName = model.NormalizeCode(siteShortName)
	t, err := findType(ctx, exec, typeCode)
	if err != nil {
		return 0, 0, err
	}
	if t == nil {
		return 0, 0, notFound(op, "type %q not found", typeCode)
	}
	s, err := findSite(ctx, exec, siteShortName)
	if err != nil {
		return 0, 0, err
	}
	if s == nil {
		return 0, 0, notFound(op, "site %q not found", siteShortName)
	}
	return t.ID, s.ID, nil
}

// ListFiles returns the entries matching q in ascending init time order.
func (r *SQLArchiveIndex) ListFiles(ctx context.Context, q repository.FileQuery) ([]model.FileEntry, error) {
	const op = "SQLArchiveIndex.ListFiles"
	empty := []model.FileEntry{}
	if !q.Range.From.IsZero() && !q.Range.To.IsZero() && !q.Range.From.Before(q.Range.To) {
		return empty, nil
	}
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}

	where := map[string]interface{}{}
	if code := model.NormalizeCode(q.TypeCode); code != "" {
		t, err := findType(ctx, exec, code)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return empty, nil
		}
		where["type_id"] = t.ID
	}
	if name := model.NormalizeCode(q.SiteShortName); name != "" {
		s, err := findSite(ctx, exec, name)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return empty, nil
		}
		where["site_id"] = s.ID
	}

	initRange := tx.Range{Column: "init_time"}
	if !q.Range.From.IsZero() {
		initRange.From = formatTime(q.Range.From)
	}
	if !q.Range.To.IsZero() {
		initRange.To = formatTime(q.Range.To)
	}

	var files []FileEntity
	err = exec.Select(ctx, &files, tx.Query{
		Where:   where,
		Ranges:  []tx.Range{initRange},
		OrderBy: []tx.Order{{Column: "init_time"}, {Column: "file_name"}},
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to list files")
	}
	if len(files) == 0 {
		return empty, nil
	}
	return toEntries(ctx, exec, files)
}

// DeleteFile removes the entry stored under fileName; NotFound if nothing was deleted.
func (r *SQLArchiveIndex) DeleteFile(ctx context.Context, fileName string) error {
	const op = "SQLArchiveIndex.DeleteFile"
	return r.runInTx(ctx, op, func(ctx context.Context, exec tx.TxExecutor) error {
		rows, err := exec.ExecuteUpdate(ctx, &FileEntity{}, "DELETE", FileEntity{}.TableName(), map[string]interface{}{"file_name": fileName})
		if err != nil {
			return wrapError(op, exec, err, "failed to delete file %s", fileName)
		}
		if rows == 0 {
			return notFound(op, "file %q not found", fileName)
		}
		return nil
	})
}

// Count returns the number of indexed files.
func (r *SQLArchiveIndex) Count(ctx context.Context) (int64, error) {
	const op = "SQLArchiveIndex.Count"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return 0, err
	}
	n, err := exec.Count(ctx, &FileEntity{}, nil)
	if err != nil {
		return 0, wrapError(op, exec, err, "failed to count files")
	}
	return n, nil
}

// FileNames returns every indexed file name in ascending order.
func (r *SQLArchiveIndex) FileNames(ctx context.Context) ([]string, error) {
	const op = "SQLArchiveIndex.FileNames"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	names := []string{}
	if err := exec.Pluck(ctx, &FileEntity{}, "file_name", &names, nil); err != nil {
		return nil, wrapError(op, exec, err, "failed to list file names")
	}
	sort.Strings(names)
	return names, nil
}

// InitTimes returns the init times for (type, site) in ascending order.
func (r *SQLArchiveIndex) InitTimes(ctx context.Context, typeCode, siteShortName string) ([]time.Time, error) {
	const op = "SQLArchiveIndex.InitTimes"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	typeID, siteID, err := resolveKeys(ctx, exec, op, typeCode, siteShortName)
	if err != nil {
		return nil, err
	}
	return initTimes(ctx, exec, typeID, siteID)
}

func initTimes(ctx context.Context, exec tx.TxExecutor, typeID, siteID int64) ([]time.Time, error) {
	const op = "SQLArchiveIndex.initTimes"
	var files []FileEntity
	err := exec.Select(ctx, &files, tx.Query{
		Where:   map[string]interface{}{"type_id": typeID, "site_id": siteID},
		OrderBy: []tx.Order{{Column: "init_time"}},
	})
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to list init times")
	}
	out := make([]time.Time, 0, len(files))
	for i := range files {
		t, err := parseTime(files[i].InitTime)
		if err != nil {
			return nil, exception.Newf(op, exception.KindStoreUnavailable, err, "file %s has an unreadable init time", files[i].FileName)
		}
		out = append(out, t)
	}
	return out, nil
}

// MostRecent returns the entry with the latest init time for (type, site).
func (r *SQLArchiveIndex) MostRecent(ctx context.Context, typeCode, siteShortName string) (*model.FileEntry, error) {
	const op = "SQLArchiveIndex.MostRecent"
	exec, err := r.getTxExecutor(ctx)
	if err != nil {
		return nil, err
	}
	typeID, siteID, err := resolveKeys(ctx, exec, op, typeCode, siteShortName)
	if err != nil {
		return nil, err
	}
	var files []FileEntity
	err = exec.Select(ctx, &files, tx.Query{
		Where:   map[string]interface{}{"type_id": typeID, "site_id": siteID},
		OrderBy: []tx.Order{{Column: "init_time", Desc: true}},
		Limit:   1,
	})
	if err != nil {
		return nil, wrapError(op, exec, err, "failed to find most recent file")
	}
	if len(files) == 0 {
		return nil, notFound(op, "no %s files for %s", model.NormalizeCode(typeCode), model.NormalizeCode(siteShortName))
	}
	return firstEntry(ctx, exec, files)
}

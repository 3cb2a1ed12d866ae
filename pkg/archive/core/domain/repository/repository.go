// Package repository defines the persistence ports of the sounding archive index.
//
// Every method returns errors built by the exception package, so callers classify
// failures with exception.IsDuplicateKey, IsNotFound, IsReferentialViolation and
// IsStoreUnavailable. Methods join the transaction carried by ctx (see tx.WithTx)
// when there is one.
package repository

import (
	"context"
	"time"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
)

// FileQuery selects files for ListFiles. Empty codes match every type or site.
type FileQuery struct {
	TypeCode      string
	SiteShortName string
	// Range restricts init_time to [Range.From, Range.To).
	Range model.TimeRange
	// Limit caps the result; 0 means no limit.
	Limit int
}

// DimensionRepository manages the types, sites and locations tables.
type DimensionRepository interface {
	// RegisterType returns the id of the type with t's code, inserting t if it is new.
	// An existing row is returned unchanged.
	RegisterType(ctx context.Context, t model.SoundingType) (int64, error)
	// RegisterSite returns the id of the site with s's short name, inserting s if it is new.
	RegisterSite(ctx context.Context, s model.Site) (int64, error)
	// RegisterLocation returns the id of the location with l's coordinates and elevation,
	// inserting l if it is new.
	RegisterLocation(ctx context.Context, l model.Location) (int64, error)

	// AddSite inserts s, failing with DuplicateKey if the short name exists.
	AddSite(ctx context.Context, s model.Site) (int64, error)
	// UpdateSite rewrites the descriptive fields of the site with s's short name.
	UpdateSite(ctx context.Context, s model.Site) error

	// Site finds a site by short name.
	Site(ctx context.Context, shortName string) (*model.Site, error)
	// Sites lists all sites ordered by short name.
	Sites(ctx context.Context) ([]model.Site, error)
	// Type finds a sounding type by code.
	Type(ctx context.Context, code string) (*model.SoundingType, error)
	// Types lists all sounding types ordered by code.
	Types(ctx context.Context) ([]model.SoundingType, error)
	// TypesForSite lists the types with at least one file at the site.
	TypesForSite(ctx context.Context, shortName string) ([]model.SoundingType, error)
}

// FileRepository manages the files table.
type FileRepository interface {
	// RegisterFile inserts r. A clash on file_name or on (type, site, init_time) fails
	// with DuplicateKey; an unknown type, site or location fails with ReferentialViolation.
	RegisterFile(ctx context.Context, r model.FileRecord) error
	// FindByFileName returns the entry stored under fileName.
	FindByFileName(ctx context.Context, fileName string) (*model.FileEntry, error)
	// FindByMetadata returns the entry for (type code, site short name, init time).
	FindByMetadata(ctx context.Context, typeCode, siteShortName string, initTime time.Time) (*model.FileEntry, error)
	// ListFiles returns matching entries ordered by init time ascending. No match is
	// an empty result, not an error.
	ListFiles(ctx context.Context, q FileQuery) ([]model.FileEntry, error)
	// DeleteFile removes the entry stored under fileName; NotFound if there is none.
	DeleteFile(ctx context.Context, fileName string) error

	// Count returns the number of indexed files.
	Count(ctx context.Context) (int64, error)
	// FileNames returns every indexed file name in ascending order.
	FileNames(ctx context.Context) ([]string, error)
	// InitTimes returns the init times for (type, site) in ascending order.
	InitTimes(ctx context.Context, typeCode, siteShortName string) ([]time.Time, error)
	// MostRecent returns the entry with the latest init time for (type, site).
	MostRecent(ctx context.Context, typeCode, siteShortName string) (*model.FileEntry, error)
}

// ArchiveIndex is the complete index: dimension and file tables plus the composite operations.
type ArchiveIndex interface {
	DimensionRepository
	FileRepository

	// Ingest registers e's type, site and location (reusing existing rows) and inserts the
	// file, all in one transaction. The returned entry carries the ids that were used.
	Ingest(ctx context.Context, e model.FileEntry) (*model.FileEntry, error)
	// Inventory summarizes the holdings of a site.
	Inventory(ctx context.Context, siteShortName string) (*model.Inventory, error)
}

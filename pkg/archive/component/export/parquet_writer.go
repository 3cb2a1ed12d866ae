// Package export writes listings of archived files in columnar formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

const op = "export.WriteParquet"

// FileRow is the Parquet schema of one exported file entry. Times are UTC milliseconds.
type FileRow struct {
	FileName        string  `parquet:"name=file_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TypeCode        string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FileType        string  `parquet:"name=file_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SiteShortName   string  `parquet:"name=short_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SiteLongName    *string `parquet:"name=long_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	State           *string `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Latitude        float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude       float64 `parquet:"name=longitude, type=DOUBLE"`
	ElevationMeters *int32  `parquet:"name=elevation_meters, type=INT32, repetitiontype=OPTIONAL"`
	InitTime        int64   `parquet:"name=init_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	EndTime         int64   `parquet:"name=end_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// NewFileRow flattens e.
func NewFileRow(e model.FileEntry) FileRow {
	row := FileRow{
		FileName:      e.FileName,
		TypeCode:      e.Type.Code,
		FileType:      e.Type.FileType,
		SiteShortName: e.Site.ShortName,
		Latitude:      e.Location.Latitude(),
		Longitude:     e.Location.Longitude(),
		InitTime:      e.InitTime.UTC().UnixMilli(),
		EndTime:       e.EndTime.UTC().UnixMilli(),
	}
	if e.Site.LongName != "" {
		longName := e.Site.LongName
		row.SiteLongName = &longName
	}
	if e.Site.State != "" {
		state := string(e.Site.State)
		row.State = &state
	}
	if e.Location.ElevationMeters != nil {
		elev := int32(*e.Location.ElevationMeters)
		row.ElevationMeters = &elev
	}
	return row
}

// CompressionCodec returns the Parquet codec named by compressionType.
func CompressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

// WriteParquet writes entries to w as one Parquet file with a single row group and
// returns the number of rows written. An empty listing still produces a valid file.
func WriteParquet(w io.Writer, entries []model.FileEntry, compressionType string) (int, error) {
	codec, err := CompressionCodec(compressionType)
	if err != nil {
		return 0, exception.New(op, exception.KindInvalidArgument, "invalid compression type", err)
	}

	rowGroupSize := int64(len(entries))
	if rowGroupSize == 0 {
		rowGroupSize = 1
	}
	pw, err := writer.NewParquetWriterFromWriter(w, new(FileRow), rowGroupSize)
	if err != nil {
		return 0, exception.New(op, exception.KindUnknown, "failed to create Parquet writer", err)
	}
	pw.CompressionType = codec

	var multiErr error
	written := 0
	for _, e := range entries {
		if err := pw.Write(NewFileRow(e)); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("row %s: %w", e.FileName, err))
			continue
		}
		written++
	}

	// WriteStop panics on some malformed inputs.
	func() {
		defer func() {
			if r := recover(); r != nil {
				multiErr = multierror.Append(multiErr, fmt.Errorf("parquet writer panicked during WriteStop: %v", r))
				logger.Errorf("Export: recovered from panic during WriteStop: %v", r)
			}
		}()
		if err := pw.WriteStop(); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("failed to finalize Parquet file: %w", err))
		}
	}()

	if multiErr != nil {
		return written, exception.New(op, exception.KindUnknown, "failed to write Parquet export", multiErr)
	}
	logger.Debugf("Export: wrote %d rows (%s).", written, codec.String())
	return written, nil
}

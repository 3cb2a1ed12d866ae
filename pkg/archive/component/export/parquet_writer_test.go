package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/parquet"

	"github.com/tigerroll/soundings/pkg/archive/component/export"
	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

func entries(t *testing.T) []model.FileEntry {
	t.Helper()
	loc, err := model.NewLocation(35.18, -97.44)
	require.NoError(t, err)
	site := model.NewSite("koun")
	site.LongName = "Norman"
	site.State = model.OK

	init := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.FileEntry{
		{Type: model.NewModelType("gfs", "bufkit", 6), Site: site, Location: loc.WithElevation(357), InitTime: init, EndTime: init.Add(180 * time.Hour), FileName: "a.buf.gz"},
		{Type: model.NewModelType("nam", "bufkit", 6), Site: model.NewSite("kokc"), Location: loc, InitTime: init, EndTime: init.Add(84 * time.Hour), FileName: "b.buf.gz"},
	}
}

func TestNewFileRow(t *testing.T) {
	es := entries(t)

	row := export.NewFileRow(es[0])
	assert.Equal(t, "a.buf.gz", row.FileName)
	assert.Equal(t, "GFS", row.TypeCode)
	assert.Equal(t, "KOUN", row.SiteShortName)
	require.NotNil(t, row.SiteLongName)
	assert.Equal(t, "Norman", *row.SiteLongName)
	require.NotNil(t, row.State)
	assert.Equal(t, "OK", *row.State)
	require.NotNil(t, row.ElevationMeters)
	assert.Equal(t, int32(357), *row.ElevationMeters)
	assert.Equal(t, es[0].InitTime.UnixMilli(), row.InitTime)
	assert.InDelta(t, 35.18, row.Latitude, 1e-6)

	row = export.NewFileRow(es[1])
	assert.Nil(t, row.SiteLongName)
	assert.Nil(t, row.State)
	assert.Nil(t, row.ElevationMeters)
}

func TestCompressionCodec(t *testing.T) {
	tests := []struct {
		in   string
		want parquet.CompressionCodec
	}{
		{"snappy", parquet.CompressionCodec_SNAPPY},
		{"GZIP", parquet.CompressionCodec_GZIP},
		{"NONE", parquet.CompressionCodec_UNCOMPRESSED},
		{"", parquet.CompressionCodec_UNCOMPRESSED},
	}
	for _, tt := range tests {
		got, err := export.CompressionCodec(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := export.CompressionCodec("LZMA")
	assert.Error(t, err)
}

func TestWriteParquet(t *testing.T) {
	for _, codec := range []string{"SNAPPY", "GZIP", "NONE"} {
		t.Run(codec, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := export.WriteParquet(&buf, entries(t), codec)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			b := buf.Bytes()
			require.Greater(t, len(b), 8)
			assert.Equal(t, "PAR1", string(b[:4]))
			assert.Equal(t, "PAR1", string(b[len(b)-4:]))
		})
	}
}

func TestWriteParquet_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := export.WriteParquet(&buf, nil, "SNAPPY")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "PAR1", string(buf.Bytes()[:4]))
}

func TestWriteParquet_BadCodec(t *testing.T) {
	var buf bytes.Buffer
	_, err := export.WriteParquet(&buf, entries(t), "BROTLI9")
	require.Error(t, err)
	assert.True(t, exception.IsInvalidArgument(err))
	assert.Zero(t, buf.Len())
}

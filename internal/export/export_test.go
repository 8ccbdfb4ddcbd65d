package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
)

var sample = []*models.Video{
	{ID: "dQw4w9WgXcQ", Title: "Intro, part 1", Channel: "gophers", Description: "A long description", Summary: "Short summary", WatchedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	{ID: "9bZkp7q19f0", Title: "No watch time"},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "Intro, part 1", records[1][1])
	assert.Equal(t, "Short summary", records[1][4])
	assert.Equal(t, "2024-03-01T10:00:00Z", records[1][5])
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", records[1][6])
	assert.Equal(t, "", records[2][5])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "9bZkp7q19f0", rows[2][0])
	assert.Equal(t, "Short summary", rows[1][4])
}

func TestAllVideos(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.UpsertVideos(ctx, sample))

	all, err := AllVideos(ctx, store)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

package sheet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/MarketBrief/internal/content"
)

func testEntry(at time.Time, script string, sources int) content.Entry {
	e := content.Entry{
		GeneratedAt: at,
		Day:         at.Weekday().String(),
		ContentType: "Daily Market Update",
		Bundle: content.Bundle{
			Script:       script,
			SocialPost:   "📈 social",
			MotionScript: "motion",
			VideoCaption: "caption",
			EpisodeTitle: "Market Update - February 26 | Crypto, Fed, and Markets",
		},
		NewsCount:  sources,
		MarketData: "SPY: $512.34 (+0.42%)",
	}
	for i := 0; i < sources; i++ {
		e.Sources = append(e.Sources, content.Source{
			Rank: i + 1, Title: "Gold climbs", Source: "Reuters", Sentiment: "bullish",
			SentimentScore: 0.41, Tickers: []string{"GLD", "IAU"}, TimePublished: "20260226T081500",
		})
	}
	return e
}

func TestSaveAppendsMostRecentFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultFilename)
	now := time.Date(2026, 2, 26, 18, 0, 0, 0, time.Local)
	sink := New(path, WithClock(func() time.Time { return now }))

	first := testEntry(time.Date(2026, 2, 25, 9, 0, 0, 0, time.Local), "one two three", 0)
	second := testEntry(time.Date(2026, 2, 26, 9, 0, 0, 0, time.Local), "four five", 3)

	res, err := sink.Save(first)
	require.NoError(t, err)
	assert.Equal(t, Result{Path: path, Rows: 1}, res)

	res, err = sink.Save(second)
	require.NoError(t, err)
	assert.False(t, res.Backup)
	assert.Equal(t, 2, res.Rows)

	records, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-02-26", records[0]["Date"])
	assert.Equal(t, "09:00:00", records[0]["Time"])
	assert.Equal(t, "Thursday", records[0]["Day"])
	assert.Equal(t, "four five", records[0]["Script"])
	assert.Equal(t, "2", records[0]["Word_Count"])
	assert.Equal(t, "3", records[0]["News_Count"])
	assert.Equal(t, content.QualityGenerated, records[0]["Quality_Score"])
	assert.Equal(t, content.QualityFallback, records[1]["Quality_Score"])
	assert.Equal(t, "📈 social", records[1]["Social_Post"])

	_, err = os.Stat(path + ".tmp.xlsx")
	assert.True(t, os.IsNotExist(err), "temporary file removed")
}

func TestSaveWritesSummaryAndSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	now := time.Date(2026, 2, 26, 18, 0, 0, 0, time.Local)
	sink := New(path, WithClock(func() time.Time { return now }))

	_, err := sink.Save(testEntry(time.Date(2026, 2, 26, 9, 0, 0, 0, time.Local), "one two three", 2))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetLog, SheetSummary, SheetSources}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Total Entries", "1"}, summary[1])
	assert.Equal(t, []string{"Last Updated", "2026-02-26 18:00:00"}, summary[2])
	assert.Equal(t, []string{"Scripts This Week", "1"}, summary[3])
	assert.Equal(t, []string{"Most Active Day", "Thursday"}, summary[4])
	assert.Equal(t, []string{"Average Script Length", "13 characters"}, summary[5])
	assert.Equal(t, []string{"Total Words Generated", "3"}, summary[6])

	sources, err := f.GetRows(SheetSources)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, sourceColumns, sources[0])
	assert.Equal(t, "GLD, IAU", sources[2][5])

	header, err := f.GetRows(SheetLog)
	require.NoError(t, err)
	assert.Equal(t, LogColumns, header[0])

	width, err := f.GetColWidth(SheetLog, "E")
	require.NoError(t, err)
	assert.InDelta(t, 80, width, 0.01)

	style, err := f.GetCellStyle(SheetLog, "A1")
	require.NoError(t, err)
	assert.NotZero(t, style, "header is styled")
}

func TestSaveFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	now := time.Date(2026, 2, 26, 9, 30, 0, 0, time.Local)
	sink := New(path, WithClock(func() time.Time { return now }))

	res, err := sink.Save(testEntry(now, "script text", 1))
	require.NoError(t, err)
	assert.True(t, res.Backup)
	assert.Equal(t, filepath.Join(dir, "market_content_backup_thursday_20260226_0930.xlsx"), res.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a workbook", string(data), "broken workbook left untouched")

	f, err := excelize.OpenFile(res.Path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetBackup)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, backupColumns, rows[0])
	assert.Equal(t, "script text", rows[1][4])
	assert.Equal(t, "1", rows[1][9])
}

func TestReadLogMissingFile(t *testing.T) {
	_, err := ReadLog(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadLogMatchesHeadersByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetLog))
	require.NoError(t, f.SetSheetRow(SheetLog, "A1", &[]any{"Day", "Date", "Time", "Script"}))
	require.NoError(t, f.SetSheetRow(SheetLog, "A2", &[]any{"Monday", "2026-02-23", "08:00:00", "old script"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sink := New(path, WithClock(time.Now))
	_, err := sink.Save(testEntry(time.Date(2026, 2, 26, 9, 0, 0, 0, time.Local), "new script", 0))
	require.NoError(t, err)

	records, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new script", records[0]["Script"])
	assert.Equal(t, "Monday", records[1]["Day"])
	assert.Equal(t, "old script", records[1]["Script"])
	assert.Equal(t, "", records[1]["Quality_Score"])
}

func TestBackupName(t *testing.T) {
	at := time.Date(2026, 3, 2, 7, 5, 0, 0, time.UTC)
	assert.Equal(t, "market_content_backup_monday_20260302_0705.xlsx", BackupName("Monday", at))
}

// Package sheet keeps the content log as an XLSX workbook. Every save reads
// the existing log, appends the entry and rewrites the whole file.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/MarketBrief/internal/content"
)

// DefaultFilename is the workbook written when no path is configured.
const DefaultFilename = "market_content_tracker.xlsx"

// Sheet names.
const (
	SheetLog     = "Content_Log"
	SheetSummary = "Summary"
	SheetSources = "Todays_Sources"
	SheetBackup  = "Content"
)

// LogColumns are the Content_Log headers in order.
var LogColumns = []string{
	"Date", "Time", "Day", "Content_Type", "Script", "Social_Post", "Motion_Script",
	"Video_Caption", "Episode_Title", "Script_Length", "Word_Count", "News_Count",
	"Market_Data", "Quality_Score",
}

var sourceColumns = []string{"Rank", "Title", "Source", "Sentiment", "Sentiment_Score", "Tickers", "Time_Published"}

var backupColumns = []string{
	"Date", "Time", "Day", "Content_Type", "Script", "Social_Post", "Motion_Script",
	"Video_Caption", "Episode_Title", "News_Count",
}

var numericColumns = map[string]bool{"Script_Length": true, "Word_Count": true, "News_Count": true}

var columnWidths = map[string]float64{
	"Date": 12, "Time": 10, "Day": 12, "Content_Type": 20, "Script": 80, "Social_Post": 50,
	"Motion_Script": 60, "Video_Caption": 40, "Episode_Title": 50, "Script_Length": 15,
	"Word_Count": 12, "News_Count": 12, "Market_Data": 25, "Quality_Score": 15,
}

var wrapColumns = []string{"Script", "Social_Post", "Motion_Script", "Video_Caption", "Episode_Title"}

// Record is one Content_Log row keyed by column name.
type Record map[string]string

// Result describes a completed save.
type Result struct {
	Path   string
	Backup bool
	Rows   int
}

// Sink writes entries to a workbook.
type Sink struct {
	path string
	now  func() time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock sets the time source used for the summary and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// New creates a sink for the workbook at path.
func New(path string, opts ...Option) *Sink {
	if path == "" {
		path = DefaultFilename
	}
	s := &Sink{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the workbook path.
func (s *Sink) Path() string { return s.path }

// Save appends the entry to the log. When the workbook cannot be updated the
// entry goes to a timestamped backup file next to it instead; an error is
// returned only if that fails too.
func (s *Sink) Save(e content.Entry) (Result, error) {
	rows, err := s.update(e)
	if err == nil {
		lgr.Printf("[INFO] content appended to %s (%d entries)", s.path, rows)
		return Result{Path: s.path, Rows: rows}, nil
	}

	lgr.Printf("[WARN] updating %s failed: %v", s.path, err)
	backup, berr := s.backup(e)
	if berr != nil {
		return Result{}, fmt.Errorf("saving entry: %w (backup failed: %v)", err, berr)
	}
	lgr.Printf("[INFO] entry written to backup %s", backup)
	return Result{Path: backup, Backup: true, Rows: 1}, nil
}

func (s *Sink) update(e content.Entry) (int, error) {
	records, err := ReadLog(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	records = append(records, recordFrom(e))
	sortRecords(records)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLog); err != nil {
		return 0, err
	}
	if err := writeLog(f, records); err != nil {
		return 0, fmt.Errorf("writing %s: %w", SheetLog, err)
	}
	if err := writeSummary(f, content.Summarize(entriesFrom(records), s.now())); err != nil {
		return 0, fmt.Errorf("writing %s: %w", SheetSummary, err)
	}
	if len(e.Sources) > 0 {
		if err := writeSources(f, e.Sources); err != nil {
			return 0, fmt.Errorf("writing %s: %w", SheetSources, err)
		}
	}
	f.SetActiveSheet(0)

	if err := saveAtomic(f, s.path); err != nil {
		return 0, err
	}
	return len(records), nil
}

// BackupName is the file name used when the main workbook cannot be updated.
func BackupName(day string, at time.Time) string {
	return fmt.Sprintf("market_content_backup_%s_%s.xlsx", strings.ToLower(day), at.Format("20060102_1504"))
}

func (s *Sink) backup(e content.Entry) (string, error) {
	path := filepath.Join(filepath.Dir(s.path), BackupName(e.Day, s.now()))

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetBackup); err != nil {
		return "", err
	}
	rec := recordFrom(e)
	if err := writeTable(f, SheetBackup, backupColumns, []Record{rec}); err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// ReadLog returns the Content_Log rows of a workbook in file order. Columns
// are matched by header name. A workbook without the sheet has no rows.
func ReadLog(path string) ([]Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(SheetLog); err != nil || idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(SheetLog)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SheetLog, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var records []Record
	for _, row := range rows[1:] {
		rec := Record{}
		empty := true
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
				if row[i] != "" {
					empty = false
				}
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

func recordFrom(e content.Entry) Record {
	return Record{
		"Date":          e.Date(),
		"Time":          e.Time(),
		"Day":           e.Day,
		"Content_Type":  e.ContentType,
		"Script":        e.Script,
		"Social_Post":   e.SocialPost,
		"Motion_Script": e.MotionScript,
		"Video_Caption": e.VideoCaption,
		"Episode_Title": e.EpisodeTitle,
		"Script_Length": strconv.Itoa(e.ScriptLength()),
		"Word_Count":    strconv.Itoa(e.WordCount()),
		"News_Count":    strconv.Itoa(e.NewsCount),
		"Market_Data":   e.MarketData,
		"Quality_Score": e.QualityScore(),
	}
}

// sortRecords orders by date and time, most recent first.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i]["Date"]+" "+records[i]["Time"] > records[j]["Date"]+" "+records[j]["Time"]
	})
}

func entriesFrom(records []Record) []content.Entry {
	out := make([]content.Entry, 0, len(records))
	for _, r := range records {
		at, _ := time.ParseInLocation("2006-01-02 15:04:05", r["Date"]+" "+r["Time"], time.Local)
		out = append(out, content.Entry{
			GeneratedAt: at,
			Day:         r["Day"],
			Bundle:      content.Bundle{Script: r["Script"]},
		})
	}
	return out
}

func writeTable(f *excelize.File, sheet string, columns []string, records []Record) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, rec := range records {
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = cellValue(c, rec[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(column, v string) any {
	if numericColumns[column] {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}

func writeLog(f *excelize.File, records []Record) error {
	if err := writeTable(f, SheetLog, LogColumns, records); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(LogColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetLog, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, c := range LogColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetLog, col, col, columnWidths[c]); err != nil {
			return err
		}
	}

	if len(records) == 0 {
		return nil
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	for _, c := range wrapColumns {
		col, err := excelize.ColumnNumberToName(columnIndex(c) + 1)
		if err != nil {
			return err
		}
		from, to := col+"2", col+strconv.Itoa(len(records)+1)
		if err := f.SetCellStyle(SheetLog, from, to, wrapStyle); err != nil {
			return err
		}
	}
	return nil
}

func columnIndex(name string) int {
	for i, c := range LogColumns {
		if c == name {
			return i
		}
	}
	return -1
}

func writeSummary(f *excelize.File, s content.Summary) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetSummary, "A1", &[]any{"Metric", "Value"}); err != nil {
		return err
	}
	for i, m := range s.Metrics() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &[]any{m[0], m[1]}); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "B", 25)
}

func writeSources(f *excelize.File, sources []content.Source) error {
	if _, err := f.NewSheet(SheetSources); err != nil {
		return err
	}
	header := make([]any, len(sourceColumns))
	for i, c := range sourceColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetSources, "A1", &header); err != nil {
		return err
	}
	for i, src := range sources {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{src.Rank, src.Title, src.Source, src.Sentiment, src.SentimentScore,
			strings.Join(src.Tickers, ", "), src.TimePublished}
		if err := f.SetSheetRow(SheetSources, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// saveAtomic writes next to the target and renames, so a failed write
// leaves the previous workbook intact.
func saveAtomic(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}

package content

import (
	"fmt"
	"sort"
	"time"
)

// Summary aggregates a content log.
type Summary struct {
	TotalEntries    int
	LastUpdated     time.Time
	ScriptsThisWeek int
	MostActiveDay   string
	AvgScriptLength float64
	TotalWords      int
}

// Summarize computes log statistics as of now. An entry counts toward the
// week when its date is on or after the date seven days before now. Ties for
// the most active day go to the alphabetically first day.
func Summarize(entries []Entry, now time.Time) Summary {
	s := Summary{TotalEntries: len(entries), LastUpdated: now, MostActiveDay: "None"}
	if len(entries) == 0 {
		return s
	}

	weekStart := now.AddDate(0, 0, -7).Format("2006-01-02")
	days := map[string]int{}
	chars := 0
	for _, e := range entries {
		if e.Date() >= weekStart {
			s.ScriptsThisWeek++
		}
		days[e.Day]++
		chars += e.ScriptLength()
		s.TotalWords += e.WordCount()
	}
	s.AvgScriptLength = float64(chars) / float64(len(entries))

	names := make([]string, 0, len(days))
	for d := range days {
		names = append(names, d)
	}
	sort.Strings(names)
	best := 0
	for _, d := range names {
		if days[d] > best {
			best, s.MostActiveDay = days[d], d
		}
	}
	return s
}

// Metrics returns the summary as ordered metric/value pairs for display.
func (s Summary) Metrics() [][2]string {
	avg := "0"
	if s.TotalEntries > 0 {
		avg = fmt.Sprintf("%.0f characters", s.AvgScriptLength)
	}
	return [][2]string{
		{"Total Entries", fmt.Sprint(s.TotalEntries)},
		{"Last Updated", s.LastUpdated.Format("2006-01-02 15:04:05")},
		{"Scripts This Week", fmt.Sprint(s.ScriptsThisWeek)},
		{"Most Active Day", s.MostActiveDay},
		{"Average Script Length", avg},
		{"Total Words Generated", fmt.Sprint(s.TotalWords)},
	}
}

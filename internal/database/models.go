package database

// Stats holds aggregate content log statistics.
type Stats struct {
	TotalEntries     int
	GeneratedEntries int
	FallbackEntries  int
	EntriesThisWeek  int
	TotalWords       int
	AvgScriptLength  float64
	MostActiveDay    string
	LastGeneratedAt  string
}

// EntrySummary is a content log row without the long text fields.
type EntrySummary struct {
	ID           int64
	GeneratedAt  string
	Day          string
	ContentType  string
	Mode         string
	Style        string
	EpisodeTitle string
	NewsCount    int
	Fallback     bool
	Provider     string
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/MarketBrief/internal/content"
)

const timeLayout = time.RFC3339

// InsertEntry stores an entry with its sources and returns the new ID.
func (db *DB) InsertEntry(e content.Entry) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO entries
		(generated_at, day, content_type, mode, style, script, social_post, motion_script,
		 video_caption, episode_title, script_length, word_count, news_count, fallback,
		 market_data, quality_score, provider, fallback_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GeneratedAt.Format(timeLayout), e.Day, e.ContentType, e.Mode, e.Style,
		e.Script, e.SocialPost, e.MotionScript, e.VideoCaption, e.EpisodeTitle,
		e.ScriptLength(), e.WordCount(), e.NewsCount, boolToInt(e.Fallback),
		e.MarketData, e.QualityScore(), e.Provider, e.FallbackReason,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, s := range e.Sources {
		_, err := tx.Exec(
			`INSERT INTO entry_sources
			(entry_id, rank, title, source, url, sentiment, sentiment_score, tickers, time_published, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, s.Rank, s.Title, s.Source, s.URL, s.Sentiment, s.SentimentScore,
			strings.Join(s.Tickers, ","), s.TimePublished, s.Score,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting source %d: %w", s.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

// GetEntry returns the entry with sources. Returns nil if it does not exist.
func (db *DB) GetEntry(id int64) (*content.Entry, error) {
	row := db.conn.QueryRow(
		`SELECT id, generated_at, day, content_type, mode, style, script, social_post,
		motion_script, video_caption, episode_title, news_count, fallback, market_data,
		provider, fallback_reason
		FROM entries WHERE id = ?`, id,
	)

	var (
		e           content.Entry
		generatedAt string
		fallback    int
	)
	err := row.Scan(&e.ID, &generatedAt, &e.Day, &e.ContentType, &e.Mode, &e.Style,
		&e.Script, &e.SocialPost, &e.MotionScript, &e.VideoCaption, &e.EpisodeTitle,
		&e.NewsCount, &fallback, &e.MarketData, &e.Provider, &e.FallbackReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.Fallback = fallback != 0
	if e.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
		return nil, fmt.Errorf("parsing generated_at of entry %d: %w", id, err)
	}

	if e.Sources, err = db.entrySources(id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (db *DB) entrySources(entryID int64) ([]content.Source, error) {
	rows, err := db.conn.Query(
		`SELECT rank, title, source, url, sentiment, sentiment_score, tickers, time_published, score
		FROM entry_sources WHERE entry_id = ? ORDER BY rank`, entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []content.Source
	for rows.Next() {
		var (
			s       content.Source
			tickers string
		)
		if err := rows.Scan(&s.Rank, &s.Title, &s.Source, &s.URL, &s.Sentiment,
			&s.SentimentScore, &tickers, &s.TimePublished, &s.Score); err != nil {
			return nil, err
		}
		if tickers != "" {
			s.Tickers = strings.Split(tickers, ",")
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// RecentEntries returns the newest entries first.
func (db *DB) RecentEntries(limit int) ([]EntrySummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, generated_at, day, content_type, mode, style, episode_title, news_count, fallback, provider
		FROM entries ORDER BY generated_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []EntrySummary
	for rows.Next() {
		var (
			e        EntrySummary
			fallback int
		)
		if err := rows.Scan(&e.ID, &e.GeneratedAt, &e.Day, &e.ContentType, &e.Mode, &e.Style,
			&e.EpisodeTitle, &e.NewsCount, &fallback, &e.Provider); err != nil {
			return nil, err
		}
		e.Fallback = fallback != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes an entry and its sources.
func (db *DB) DeleteEntry(id int64) error {
	_, err := db.conn.Exec("DELETE FROM entries WHERE id = ?", id)
	return err
}

// GetStats returns aggregate statistics as of now. The week boundary follows
// content.Summarize.
func (db *DB) GetStats(now time.Time) (*Stats, error) {
	s := &Stats{}
	weekStart := now.AddDate(0, 0, -7).Format("2006-01-02")

	queries := []struct {
		sql  string
		args []any
		dest any
	}{
		{"SELECT COUNT(*) FROM entries", nil, &s.TotalEntries},
		{"SELECT COUNT(*) FROM entries WHERE fallback = 0", nil, &s.GeneratedEntries},
		{"SELECT COUNT(*) FROM entries WHERE fallback = 1", nil, &s.FallbackEntries},
		{"SELECT COUNT(*) FROM entries WHERE substr(generated_at, 1, 10) >= ?", []any{weekStart}, &s.EntriesThisWeek},
		{"SELECT COALESCE(SUM(word_count), 0) FROM entries", nil, &s.TotalWords},
		{"SELECT COALESCE(AVG(script_length), 0) FROM entries", nil, &s.AvgScriptLength},
		{"SELECT COALESCE(MAX(generated_at), '') FROM entries", nil, &s.LastGeneratedAt},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	err := db.conn.QueryRow(
		"SELECT day FROM entries GROUP BY day ORDER BY COUNT(*) DESC, day ASC LIMIT 1",
	).Scan(&s.MostActiveDay)
	if errors.Is(err, sql.ErrNoRows) {
		s.MostActiveDay = "None"
	} else if err != nil {
		return nil, err
	}

	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

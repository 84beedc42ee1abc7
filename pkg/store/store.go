// Package store keeps a history of translation requests and their results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/nguyenvanduocit/indictrans/pkg/translation"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		max_length INTEGER,
		num_beams INTEGER,
		success BOOLEAN NOT NULL,
		translated_text TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		word_count INTEGER,
		inference_speed TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_translations_created ON translations(created_at);
	CREATE INDEX IF NOT EXISTS idx_translations_pair ON translations(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements translation.Recorder.
func (s *Store) Record(ctx context.Context, req translation.Request, res translation.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (id, source_text, source_lang, target_lang, max_length, num_beams, success, translated_text, error, duration_ms, word_count, inference_speed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), normalizeText(req.Text), req.SourceLang, req.TargetLang, req.MaxLength, req.NumBeams,
		res.Success, res.TranslatedText, res.Error, res.DurationMS, res.WordCount, res.InferenceSpeed, time.Now().UTC())
	return err
}

// Entry is a row from the translations table.
type Entry struct {
	ID             string
	SourceText     string
	SourceLang     string
	TargetLang     string
	Success        bool
	TranslatedText string
	Error          string
	DurationMS     int64
	WordCount      int
	InferenceSpeed string
	CreatedAt      time.Time
}

// Result rebuilds the translation result stored in the entry.
func (e Entry) Result() translation.Result {
	return translation.Result{
		Success:        e.Success,
		TranslatedText: e.TranslatedText,
		SourceLang:     e.SourceLang,
		TargetLang:     e.TargetLang,
		DurationMS:     e.DurationMS,
		WordCount:      e.WordCount,
		InferenceSpeed: e.InferenceSpeed,
		Error:          e.Error,
	}
}

// List returns the newest entries first. limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, source_text, source_lang, target_lang, success, translated_text, error, duration_ms, word_count, inference_speed, created_at FROM translations ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var e Entry
		var translated, errMsg, speed sql.NullString
		var words sql.NullInt64
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Success,
			&translated, &errMsg, &e.DurationMS, &words, &speed, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TranslatedText = translated.String
		e.Error = errMsg.String
		e.InferenceSpeed = speed.String
		e.WordCount = int(words.Int64)
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats summarises the history.
type Stats struct {
	Total         int
	Succeeded     int
	Failed        int
	AvgDurationMS float64
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM translations`).Scan(
		&stats.Total,
		&stats.Succeeded,
		&stats.Failed,
		&stats.AvgDurationMS,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Clear removes every entry and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

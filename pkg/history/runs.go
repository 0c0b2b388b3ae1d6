package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dtnitsch/chat-extract/models"
)

// Run is one recorded extraction.
type Run struct {
	RunID          int64
	ConversationID string
	URL            string
	Title          string
	Platform       string
	Language       string
	Strategy       string
	TotalRounds    int
	Confidence     float64
	ContentHash    string
	ExtractionMs   int64
	CreatedAt      time.Time
	Attempts       []models.StrategyAttempt
}

// RecordRun stores a validated conversation and every strategy attempt that
// led to it, returning the run_id.
func (db *DB) RecordRun(conv *models.ExtractedConversation, contentHash string) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	meta := conv.SourceMetadata
	stats := conv.ExtractionStats
	createdAt := meta.ExtractedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := tx.Exec(`
		INSERT INTO runs (conversation_id, url, title, platform, language, strategy,
		                  total_rounds, confidence, content_hash, extraction_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, conv.ID, meta.URL, meta.Title, meta.Platform, meta.Language, stats.Strategy,
		stats.TotalRounds, conv.Confidence, contentHash, stats.ExtractionTimeMs, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, a := range stats.Attempts {
		var score sql.NullFloat64
		if a.Score != nil {
			score = sql.NullFloat64{Float64: *a.Score, Valid: true}
		}
		_, err = tx.Exec(`
			INSERT INTO run_strategies (run_id, strategy, priority, rounds, score, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, a.Strategy, a.Priority, a.Rounds, score, a.Error)
		if err != nil {
			return 0, fmt.Errorf("failed to insert strategy attempt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns retrieves runs ordered by most recent first, without attempts.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, conversation_id, url, title, platform, language, strategy,
		       total_rounds, confidence, content_hash, extraction_ms, created_at
		FROM runs
		ORDER BY run_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var url, title, platform, language, hash sql.NullString
		if err := rows.Scan(&r.RunID, &r.ConversationID, &url, &title, &platform, &language,
			&r.Strategy, &r.TotalRounds, &r.Confidence, &hash, &r.ExtractionMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.URL = url.String
		r.Title = title.String
		r.Platform = platform.String
		r.Language = language.String
		r.ContentHash = hash.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// GetRunAttempts returns the strategy attempts of a run in the order they ran.
func (db *DB) GetRunAttempts(runID int64) ([]models.StrategyAttempt, error) {
	rows, err := db.Query(`
		SELECT strategy, priority, rounds, score, error
		FROM run_strategies
		WHERE run_id = ?
		ORDER BY attempt_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.StrategyAttempt
	for rows.Next() {
		var a models.StrategyAttempt
		var score sql.NullFloat64
		var errMsg sql.NullString
		if err := rows.Scan(&a.Strategy, &a.Priority, &a.Rounds, &score, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if score.Valid {
			s := score.Float64
			a.Score = &s
		}
		a.Error = errMsg.String
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// FindRunsByHash returns the ids of earlier runs that extracted the same
// conversation text.
func (db *DB) FindRunsByHash(contentHash string) ([]int64, error) {
	rows, err := db.Query("SELECT run_id FROM runs WHERE content_hash = ? ORDER BY run_id", contentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs by hash: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
